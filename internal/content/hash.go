package content

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// HashLength is the number of hex characters of every Hash.
const HashLength = 16

// Hash is the lowercase hex form of the 64-bit xxHash of a document version.
// It is not a cryptographic commitment: colliding contents are considered identical.
type Hash string

var ErrInvalidHash = errors.New("invalid content hash")

func Compute(data []byte) Hash {
	return Hash(fmt.Sprintf("%016x", xxhash.Sum64(data)))
}

// ParseHash accepts exactly HashLength lowercase hex characters.
func ParseHash(text string) (Hash, error) {
	if len(text) != HashLength {
		return "", fmt.Errorf("%w: %q has %d characters, expected %d", ErrInvalidHash, text, len(text), HashLength)
	}
	for _, c := range text {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidHash, text, c)
		}
	}
	return Hash(text), nil
}

func (h Hash) String() string {
	return string(h)
}

// Short yields a prefix suitable for display, similar to abbreviated commit IDs.
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}
