package identity

import (
	"path/filepath"
	"strings"
	"sync"
)

// AttributeName names the out-of-band metadata that carries the token of a file.
const AttributeName = "user.doctrail.id"

// maximum accepted attribute payload, a canonical UUID is 36 bytes
const maxAttributeSize = 256

// Attacher reads and writes the token attached to a file.
// Both operations are best-effort: implementations report absence or failure, never an error.
type Attacher interface {
	TryRead(path string) (token Token, present bool)
	TryWrite(path string, token Token) (success bool)
}

// parseAttached interprets a raw attribute value; anything but a valid token counts as absent.
func parseAttached(raw []byte) (Token, bool) {
	if len(raw) == 0 || len(raw) > maxAttributeSize {
		return "", false
	}
	token, err := ParseToken(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", false
	}
	return token, true
}

// NoAttacher is used where files cannot carry metadata. Every resolution then takes the ledger search path.
type NoAttacher struct{}

func (NoAttacher) TryRead(string) (Token, bool) {
	return "", false
}

func (NoAttacher) TryWrite(string, Token) bool {
	return false
}

// MemoryAttacher keeps attachments in memory, keyed by cleaned path. It suits tests and hosts without file metadata.
type MemoryAttacher struct {
	mu          sync.Mutex
	attachments map[string]Token
}

func NewMemoryAttacher() *MemoryAttacher {
	return &MemoryAttacher{attachments: make(map[string]Token)}
}

func (m *MemoryAttacher) TryRead(path string) (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, present := m.attachments[filepath.Clean(path)]
	return token, present
}

func (m *MemoryAttacher) TryWrite(path string, token Token) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[filepath.Clean(path)] = token
	return true
}

// Strip drops the attachment of path, as happens when a file is copied by a tool unaware of metadata.
func (m *MemoryAttacher) Strip(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attachments, filepath.Clean(path))
}
