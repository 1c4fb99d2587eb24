// Package content implements the write-once blob store that keeps every saved document version exactly once.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/n2code/doctrail/internal"
)

var ErrNotFound = errors.New("blob not found")

const blobPermissions = 0o644

// Store keeps one file per unique hash below its directory. Blobs are never modified or removed.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory failed: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) blobPath(hash Hash) string {
	return filepath.Join(s.dir, string(hash))
}

func (s *Store) Has(hash Hash) (bool, error) {
	_, err := os.Lstat(s.blobPath(hash))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Put stores data under hash unless a blob with that name exists already, in which case nothing is touched.
// Concurrent puts of the same hash are harmless since identical names imply identical content.
func (s *Store) Put(hash Hash, data []byte) error {
	exists, err := s.Has(hash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return internal.WriteFileAtomically(s.blobPath(hash), data, blobPermissions)
}

func (s *Store) Get(hash Hash) ([]byte, error) {
	if _, err := ParseHash(string(hash)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err) //malformed names cannot exist in the store
	}
	data, err := os.ReadFile(s.blobPath(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return data, err
}

// Walk visits all stored hashes in lexical order. Leftover work-in-progress files and foreign names are skipped.
func (s *Store) Walk(visit func(Hash) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), internal.WorkInProgressFileSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		hash, parseErr := ParseHash(name)
		if parseErr != nil {
			continue
		}
		if err := visit(hash); err != nil {
			return err
		}
	}
	return nil
}
