package identity

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/n2code/doctrail/internal/content"
)

// Origin tells how a token was determined.
type Origin int

const (
	OriginAttached  Origin = iota //read from the file's metadata
	OriginRecovered               //found in the history by content hash
	OriginCreated                 //freshly minted
)

func (o Origin) String() string {
	switch o {
	case OriginAttached:
		return "attached"
	case OriginRecovered:
		return "recovered"
	case OriginCreated:
		return "created"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// Index finds the identity that most recently saved a given content.
type Index interface {
	LatestByHash(hash content.Hash) (token Token, found bool, err error)
}

type Resolver struct {
	attacher Attacher
	index    Index
	logger   *zap.Logger
}

func NewResolver(attacher Attacher, index Index, logger *zap.Logger) *Resolver {
	if attacher == nil {
		attacher = NoAttacher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{attacher: attacher, index: index, logger: logger}
}

// Lookup only consults the file's metadata. Read failures are indistinguishable from absence.
func (r *Resolver) Lookup(path string) (Token, bool) {
	return r.attacher.TryRead(path)
}

// ResolveOrCreate determines the identity of the file at path whose current content has the given hash:
// the attached token if present, else the identity that last saved identical content, else a new token.
// Recovered and new tokens are attached to the file on a best-effort basis.
// Only failures of the history search are returned.
func (r *Resolver) ResolveOrCreate(path string, hash content.Hash) (Token, Origin, error) {
	if token, present := r.attacher.TryRead(path); present {
		return token, OriginAttached, nil
	}

	token, found, err := r.index.LatestByHash(hash)
	if err != nil {
		return "", 0, fmt.Errorf("searching history for content %s failed: %w", hash, err)
	}
	origin := OriginRecovered
	if !found {
		token = NewToken()
		origin = OriginCreated
	}

	if !r.attacher.TryWrite(path, token) {
		r.logger.Debug("identity could not be attached to file",
			zap.String("path", path), zap.String("token", string(token)))
	}
	r.logger.Info("identity resolved without attached metadata",
		zap.String("path", path),
		zap.String("token", string(token)),
		zap.Stringer("origin", origin))
	return token, origin, nil
}
