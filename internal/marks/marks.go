// Package marks keeps line notes per document identity, so they follow a document across renames.
package marks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/n2code/doctrail/internal"
	"github.com/n2code/doctrail/internal/identity"
)

var ErrInvalidLine = errors.New("line numbers start at 1")

type Mark struct {
	Note string `json:"note"`
}

// Marks maps 1-based line numbers to their mark.
type Marks map[int]Mark

// Lines returns the marked line numbers in ascending order.
func (m Marks) Lines() []int {
	lines := make([]int, 0, len(m))
	for line := range m {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating marks directory failed: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(token identity.Token) string {
	return filepath.Join(s.dir, string(token)+".json")
}

// Load yields the marks of the token, an empty set if there are none.
func (s *Store) Load(token identity.Token) (Marks, error) {
	if _, err := identity.ParseToken(string(token)); err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(s.path(token))
	if errors.Is(err, fs.ErrNotExist) {
		return Marks{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading marks of %s failed: %w", token, err)
	}
	marks := Marks{}
	if err := json.Unmarshal(blob, &marks); err != nil {
		return nil, fmt.Errorf("marks of %s unreadable: %w", token, err)
	}
	return marks, nil
}

// Save replaces all marks of the token. Saving an empty set removes the record.
func (s *Store) Save(token identity.Token, marks Marks) error {
	if _, err := identity.ParseToken(string(token)); err != nil {
		return err
	}
	for line := range marks {
		if line < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidLine, line)
		}
	}
	if len(marks) == 0 {
		if err := os.Remove(s.path(token)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("clearing marks of %s failed: %w", token, err)
		}
		return nil
	}
	blob, err := json.MarshalIndent(marks, "", "  ")
	internal.AssertNoError(err, "marks consist of strings only")
	if err := internal.WriteFileAtomically(s.path(token), append(blob, '\n'), 0o644); err != nil {
		return fmt.Errorf("saving marks of %s failed: %w", token, err)
	}
	return nil
}
