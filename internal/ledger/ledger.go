// Package ledger persists the append-only version history of every document identity, one JSON record per token.
//
// Appending rewrites the whole record. There is no locking: two concurrent appends for the same token
// can interleave their read-modify-write cycles and the last writer wins, losing the other entry.
// Callers with more than one writer per token must serialize them.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/n2code/doctrail/internal"
	"github.com/n2code/doctrail/internal/identity"
)

const recordExtension = ".json"

var ErrCorrupt = errors.New("ledger record corrupted")

type Ledger struct {
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory failed: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{dir: dir, logger: logger}, nil
}

func (l *Ledger) Dir() string {
	return l.dir
}

func (l *Ledger) recordPath(token identity.Token) string {
	return filepath.Join(l.dir, string(token)+recordExtension)
}

// Load yields all entries of the token in save order. A token without record has an empty history.
func (l *Ledger) Load(token identity.Token) ([]Entry, error) {
	if _, err := identity.ParseToken(string(token)); err != nil {
		return nil, err
	}
	return l.loadRecord(l.recordPath(token))
}

func (l *Ledger) loadRecord(path string) ([]Entry, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger record failed: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("%w (%s): %v", ErrCorrupt, path, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Append adds the entry at the end of the token's history and rewrites the record.
// It returns the complete history including the new entry.
func (l *Ledger) Append(token identity.Token, entry Entry) (entries []Entry, err error) {
	entries, err = l.Load(token)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	if err = l.store(token, entries); err != nil {
		return nil, err
	}
	l.logger.Debug("history entry appended",
		zap.String("token", string(token)),
		zap.String("hash", string(entry.Hash)),
		zap.Int("entries", len(entries)))
	return entries, nil
}

func (l *Ledger) store(token identity.Token, entries []Entry) error {
	blob, err := json.MarshalIndent(entries, "", "  ")
	internal.AssertNoError(err, "entries consist of strings only")
	blob = append(blob, '\n')
	if err := internal.WriteFileAtomically(l.recordPath(token), blob, 0o644); err != nil {
		return fmt.Errorf("saving ledger record of %s failed: %w", token, err)
	}
	return nil
}

// Tokens lists all identities with a ledger record, sorted.
func (l *Ledger) Tokens() ([]identity.Token, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("listing ledger records failed: %w", err)
	}
	tokens := make([]identity.Token, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, recordExtension) {
			continue
		}
		token, parseErr := identity.ParseToken(strings.TrimSuffix(name, recordExtension))
		if parseErr != nil {
			continue //foreign file
		}
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens, nil
}
