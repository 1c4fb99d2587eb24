package doctrail

import (
	"context"
	"time"

	"github.com/n2code/doctrail/internal/content"
	"github.com/n2code/doctrail/internal/identity"
	"github.com/n2code/doctrail/internal/ledger"
	"github.com/n2code/doctrail/internal/marks"
)

// Doctrail lets you interface with a data directory whose handle was retrieved using New or Open.
//
// Calls hold no state between each other, everything is re-read from disk.
// There is no locking: concurrent saves of the same document can lose a history entry.
// Hosts with more than one writer must serialize saves, for example through an autosave worker.
type Doctrail interface {

	// Save stores the content and appends a version to the history of the document at path.
	// The document identity is taken from the file metadata, recovered from the histories by content,
	// or newly created. The content is stored before the identity is resolved.
	// Every call appends an entry, unchanged content included.
	Save(path string, data []byte) (SaveResult, error)

	// SaveTracked is Save with the writing time the editor attributes to this save.
	SaveTracked(path string, data []byte, timeSpent time.Duration) (SaveResult, error)

	// WriteAndSave overwrites the file at path in place (keeping its metadata) and then tracks the content like SaveTracked.
	WriteAndSave(path string, data []byte, timeSpent time.Duration) (SaveResult, error)

	// LoadHistory yields all versions of the document at path, oldest first.
	// It does not search by content: a file without attached identity yields ErrNoIdentity.
	LoadHistory(path string) ([]ledger.Entry, error)

	// LoadHistoryByToken yields all versions recorded for the identity, oldest first.
	LoadHistoryByToken(token identity.Token) ([]ledger.Entry, error)

	// RestoreVersion yields the content stored under the hash.
	// Unknown hashes yield ErrNotFound, malformed ones additionally ErrInvalidHash.
	RestoreVersion(hash string) ([]byte, error)

	// GetUuid resolves the identity of the document like Save does, minting one if needed,
	// without storing content or touching any history.
	GetUuid(path string, data []byte) (identity.Token, error)

	// GetFileMetadata resolves the identity like GetUuid and summarizes its history.
	GetFileMetadata(path string, data []byte) (FileMetadata, error)

	// LoadMarks yields the line notes of the identity.
	LoadMarks(token identity.Token) (marks.Marks, error)

	// SaveMarks replaces the line notes of the identity.
	SaveMarks(token identity.Token, lineMarks marks.Marks) error

	// Verify re-hashes every stored blob and returns those whose content no longer matches.
	Verify(ctx context.Context) ([]content.Hash, error)

	// PrintHistory outputs the versions of the document at path as a tree of locations.
	// With flat set a plain list is printed instead.
	PrintHistory(path string, flat bool) error

	// PrintVersion outputs the content stored under the hash as is.
	PrintVersion(hash string) error

	// PrintMarks outputs the line notes of the document at path.
	PrintMarks(path string) error

	// DataDir is the absolute location of all persisted state.
	DataDir() string
}

// SaveResult describes the outcome of a successful save.
type SaveResult struct {
	Token     identity.Token
	Hash      content.Hash
	Origin    identity.Origin //how the identity was determined
	Versions  int             //history length including this save
	TotalTime time.Duration   //tracked writing time over the whole history
}

// FileMetadata summarizes a document identity.
type FileMetadata struct {
	Token     identity.Token
	Origin    identity.Origin
	Versions  int
	TotalTime time.Duration
}
