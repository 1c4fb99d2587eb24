// Package identity assigns every document a stable token independent of its path, name, or location.
package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Token is the opaque identity of one logical document: a random 128-bit UUID in canonical lowercase form.
type Token string

var ErrInvalidToken = errors.New("invalid identity token")

func NewToken() Token {
	return Token(uuid.New().String())
}

// ParseToken only accepts the canonical textual form as produced by NewToken.
func ParseToken(text string) (Token, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %q (%v)", ErrInvalidToken, text, err)
	}
	if id.String() != text {
		return "", fmt.Errorf("%w: %q is not in canonical form", ErrInvalidToken, text)
	}
	return Token(text), nil
}

func (t Token) String() string {
	return string(t)
}
