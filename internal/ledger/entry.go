package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/n2code/doctrail/internal/content"
)

// Entry records one save event of a document.
type Entry struct {
	Hash      content.Hash
	Timestamp time.Time     //UTC
	FilePath  *string       //source path at the time of saving, nil if unknown
	TimeSpent time.Duration //writing time attributed to this save by the editor, whole seconds
}

func NewEntry(hash content.Hash, timestamp time.Time, filePath string) Entry {
	entry := Entry{Hash: hash, Timestamp: timestamp.UTC()}
	if filePath != "" {
		entry.FilePath = &filePath
	}
	return entry
}

// Path returns the recorded source path or an empty string.
func (e Entry) Path() string {
	if e.FilePath == nil {
		return ""
	}
	return *e.FilePath
}

type jsonEntry struct {
	Hash      string  `json:"hash"`
	Timestamp string  `json:"timestamp"`
	FilePath  *string `json:"file_path"`
	TimeSpent uint64  `json:"time_spent,omitempty"` //seconds
}

func (e Entry) MarshalJSON() ([]byte, error) {
	var seconds uint64
	if e.TimeSpent > 0 {
		seconds = uint64(e.TimeSpent / time.Second)
	}
	return json.Marshal(jsonEntry{
		Hash:      string(e.Hash),
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		FilePath:  e.FilePath,
		TimeSpent: seconds,
	})
}

func (e *Entry) UnmarshalJSON(blob []byte) error {
	var loaded jsonEntry
	if err := json.Unmarshal(blob, &loaded); err != nil {
		return err
	}
	hash, err := content.ParseHash(loaded.Hash)
	if err != nil {
		return err
	}
	timestamp, err := time.Parse(time.RFC3339Nano, loaded.Timestamp)
	if err != nil {
		return fmt.Errorf("bad timestamp of entry %s: %w", hash, err)
	}
	e.Hash = hash
	e.Timestamp = timestamp.UTC()
	e.FilePath = loaded.FilePath
	e.TimeSpent = time.Duration(loaded.TimeSpent) * time.Second
	return nil
}

// TotalTimeSpent sums the writing time of all entries.
func TotalTimeSpent(entries []Entry) (total time.Duration) {
	for _, entry := range entries {
		total += entry.TimeSpent
	}
	return
}

func (e Entry) String() string {
	path := e.Path()
	if path == "" {
		path = "<unknown path>"
	}
	return fmt.Sprintf("%s  %s  %s", e.Hash, e.Timestamp.Local().Format("2006-01-02 15:04:05"), path)
}
