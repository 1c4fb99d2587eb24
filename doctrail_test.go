package doctrail

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/doctrail/internal"
	"github.com/n2code/doctrail/internal/content"
	"github.com/n2code/doctrail/internal/identity"
	"github.com/n2code/doctrail/internal/marks"
)

type testSetup struct {
	api      Doctrail
	attacher *identity.MemoryAttacher
	dataDir  string
	docsDir  string
	printed  *bytes.Buffer
}

// steppingClock makes every save happen one second after the previous one.
func steppingClock(t *testing.T) {
	t.Helper()
	original := internal.UtcNow
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	internal.UtcNow = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	t.Cleanup(func() { internal.UtcNow = original })
}

func setup(t *testing.T, verbosity VerbosityLevel) testSetup {
	t.Helper()
	steppingClock(t)
	base := t.TempDir()
	s := testSetup{
		attacher: identity.NewMemoryAttacher(),
		dataDir:  filepath.Join(base, "data"),
		docsDir:  filepath.Join(base, "docs"),
		printed:  &bytes.Buffer{},
	}
	require.NoError(t, os.Mkdir(s.docsDir, 0o755))
	api, err := New(s.dataDir, CreateConfig{Verbosity: verbosity, Attacher: s.attacher, Out: s.printed, ErrOut: s.printed})
	require.NoError(t, err)
	s.api = api
	return s
}

func (s testSetup) write(t *testing.T, name string, text string) (path string, data []byte) {
	t.Helper()
	path = filepath.Join(s.docsDir, name)
	data = []byte(text)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(files)
}

func TestNewCreatesLayout(t *testing.T) {
	s := setup(t, QuietMode)
	assert.DirExists(t, filepath.Join(s.dataDir, "blobs"))
	assert.DirExists(t, filepath.Join(s.dataDir, "history"))
	assert.DirExists(t, filepath.Join(s.dataDir, "marks"))
	assert.Equal(t, s.dataDir, s.api.DataDir())
}

func TestTwoVersionsOfOneDocument(t *testing.T) {
	s := setup(t, QuietMode)
	path, v1 := s.write(t, "doc.txt", "v1")

	first, err := s.api.Save(path, v1)
	require.NoError(t, err)
	assert.Equal(t, identity.OriginCreated, first.Origin)
	assert.Equal(t, 1, first.Versions)
	assert.Equal(t, content.Compute(v1), first.Hash)

	_, v2 := s.write(t, "doc.txt", "v2")
	second, err := s.api.Save(path, v2)
	require.NoError(t, err)
	assert.Equal(t, identity.OriginAttached, second.Origin)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, 2, second.Versions)

	history, err := s.api.LoadHistory(path)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.Hash, history[0].Hash)
	assert.Equal(t, second.Hash, history[1].Hash)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
	for _, entry := range history {
		assert.Equal(t, path, entry.Path())
	}

	restored, err := s.api.RestoreVersion(string(first.Hash))
	require.NoError(t, err)
	assert.Equal(t, v1, restored)
	assert.Equal(t, 2, countFiles(t, filepath.Join(s.dataDir, "blobs")))
	assert.Equal(t, 1, countFiles(t, filepath.Join(s.dataDir, "history")))
}

func TestRevertedContentKeepsSaveOrder(t *testing.T) {
	s := setup(t, QuietMode)
	path, a := s.write(t, "doc.txt", "A")
	b := []byte("B")

	for _, data := range [][]byte{a, b, a} {
		_, err := s.api.Save(path, data)
		require.NoError(t, err)
	}

	history, err := s.api.LoadHistory(path)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []content.Hash{content.Compute(a), content.Compute(b), content.Compute(a)},
		[]content.Hash{history[0].Hash, history[1].Hash, history[2].Hash})
	assert.Equal(t, 2, countFiles(t, filepath.Join(s.dataDir, "blobs")), "identical content is stored once")
}

func TestOrphanedDocumentIsRecognizedByContent(t *testing.T) {
	s := setup(t, QuietMode)
	original, data := s.write(t, "draft.txt", "chapter one")
	saved, err := s.api.Save(original, data)
	require.NoError(t, err)

	copied, _ := s.write(t, "copy of draft.txt", "chapter one") //metadata lost on copy
	recovered, err := s.api.Save(copied, data)
	require.NoError(t, err)
	assert.Equal(t, identity.OriginRecovered, recovered.Origin)
	assert.Equal(t, saved.Token, recovered.Token)
	assert.Equal(t, 2, recovered.Versions)

	reattached, ok := s.attacher.TryRead(copied)
	assert.True(t, ok)
	assert.Equal(t, saved.Token, reattached)

	history, err := s.api.LoadHistory(copied)
	require.NoError(t, err)
	assert.Equal(t, original, history[0].Path())
	assert.Equal(t, copied, history[1].Path())
}

func TestStrippedIdentityIsRecoveredAfterEdit(t *testing.T) {
	s := setup(t, QuietMode)
	path, v1 := s.write(t, "doc.txt", "v1")
	first, err := s.api.Save(path, v1)
	require.NoError(t, err)

	s.attacher.Strip(path)
	_, err = s.api.Save(path, v1) //same content, recovered
	require.NoError(t, err)

	s.attacher.Strip(path)
	_, v2 := s.write(t, "doc.txt", "v2")
	edited, err := s.api.Save(path, v2) //edited while detached, unknown content
	require.NoError(t, err)
	assert.Equal(t, identity.OriginCreated, edited.Origin)
	assert.NotEqual(t, first.Token, edited.Token)
}

func TestWithoutMetadataSupportEverySaveGoesThroughRecovery(t *testing.T) {
	steppingClock(t)
	api, err := New(t.TempDir(), CreateConfig{Verbosity: QuietMode, Attacher: identity.NoAttacher{}, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "doc.txt")

	first, err := api.Save(path, []byte("same"))
	require.NoError(t, err)
	second, err := api.Save(path, []byte("same"))
	require.NoError(t, err)
	assert.Equal(t, identity.OriginCreated, first.Origin)
	assert.Equal(t, identity.OriginRecovered, second.Origin)
	assert.Equal(t, first.Token, second.Token)

	_, err = api.LoadHistory(path)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestRestoreUnknownVersion(t *testing.T) {
	s := setup(t, QuietMode)

	_, err := s.api.RestoreVersion("00000000deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.api.RestoreVersion("nonexistent_hash")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestLoadHistoryRequiresAttachedIdentity(t *testing.T) {
	s := setup(t, QuietMode)
	path, _ := s.write(t, "fresh.txt", "never saved")

	_, err := s.api.LoadHistory(path)
	assert.ErrorIs(t, err, ErrNoIdentity)
	var commandErr *CommandError
	assert.True(t, errors.As(err, &commandErr))
}

func TestGetUuidDoesNotRecordAnything(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "doc.txt", "text")

	token, err := s.api.GetUuid(path, data)
	require.NoError(t, err)
	_, err = identity.ParseToken(string(token))
	assert.NoError(t, err)
	assert.Zero(t, countFiles(t, filepath.Join(s.dataDir, "blobs")))
	assert.Zero(t, countFiles(t, filepath.Join(s.dataDir, "history")))

	again, err := s.api.GetUuid(path, data)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	saved, err := s.api.Save(path, data)
	require.NoError(t, err)
	assert.Equal(t, token, saved.Token)
	assert.Equal(t, identity.OriginAttached, saved.Origin)
}

func TestTrackedTime(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "essay.txt", "draft")

	_, err := s.api.SaveTracked(path, data, 90*time.Second)
	require.NoError(t, err)
	result, err := s.api.SaveTracked(path, append(data, '!'), 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 91*time.Second, result.TotalTime)

	metadata, err := s.api.GetFileMetadata(path, data)
	require.NoError(t, err)
	assert.Equal(t, result.Token, metadata.Token)
	assert.Equal(t, identity.OriginAttached, metadata.Origin)
	assert.Equal(t, 2, metadata.Versions)
	assert.Equal(t, 91*time.Second, metadata.TotalTime)
}

func TestNegativeWritingTimeIsRejected(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "essay.txt", "draft")

	_, err := s.api.SaveTracked(path, data, -5*time.Second)
	assert.ErrorIs(t, err, ErrNegativeTimeSpent)
	_, err = s.api.LoadHistory(path)
	assert.ErrorIs(t, err, ErrNoIdentity, "a rejected save must not record anything")

	_, err = s.api.WriteAndSave(path, []byte("overwritten"), -time.Second)
	assert.ErrorIs(t, err, ErrNegativeTimeSpent)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "draft", string(onDisk))

	result, err := s.api.SaveTracked(path, data, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, result.TotalTime)
}

func TestWriteAndSave(t *testing.T) {
	s := setup(t, QuietMode)
	path := filepath.Join(s.docsDir, "new.txt")

	first, err := s.api.WriteAndSave(path, []byte("one"), 0)
	require.NoError(t, err)
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(onDisk))

	second, err := s.api.WriteAndSave(path, []byte("two"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
	onDisk, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(onDisk))
	assert.Equal(t, time.Minute, second.TotalTime)

	_, err = s.api.WriteAndSave(filepath.Join(s.docsDir, "missing", "dir.txt"), []byte("x"), 0)
	assert.Error(t, err)
}

func TestMarks(t *testing.T) {
	s := setup(t, DefaultVerbosity)
	path, data := s.write(t, "doc.txt", "line\nline\nline")
	saved, err := s.api.Save(path, data)
	require.NoError(t, err)

	require.NoError(t, s.api.SaveMarks(saved.Token, marks.Marks{3: {Note: "rephrase"}, 1: {Note: "title"}}))
	loaded, err := s.api.LoadMarks(saved.Token)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, loaded.Lines())

	s.printed.Reset()
	require.NoError(t, s.api.PrintMarks(path))
	assert.Contains(t, s.printed.String(), "rephrase")
	assert.Less(t, bytes.Index(s.printed.Bytes(), []byte("title")), bytes.Index(s.printed.Bytes(), []byte("rephrase")))

	err = s.api.SaveMarks(saved.Token, marks.Marks{0: {Note: "bad"}})
	assert.ErrorIs(t, err, marks.ErrInvalidLine)
}

func TestPrintHistory(t *testing.T) {
	s := setup(t, DefaultVerbosity)
	path, v1 := s.write(t, "doc.txt", "v1")
	saved, err := s.api.Save(path, v1)
	require.NoError(t, err)
	_, err = s.api.SaveTracked(path, []byte("v2"), time.Minute)
	require.NoError(t, err)

	s.printed.Reset()
	require.NoError(t, s.api.PrintHistory(path, false))
	tree := s.printed.String()
	assert.Contains(t, tree, string(saved.Token))
	assert.Contains(t, tree, "#1")
	assert.Contains(t, tree, "#2")
	assert.Contains(t, tree, "(+1m 00s)")
	assert.Contains(t, tree, "2 versions, 1m 00s of writing")

	s.printed.Reset()
	require.NoError(t, s.api.PrintHistory(path, true))
	assert.Contains(t, s.printed.String(), string(saved.Hash))

	require.NoError(t, os.Remove(filepath.Join(s.dataDir, "blobs", string(saved.Hash))))
	s.printed.Reset()
	require.NoError(t, s.api.PrintHistory(path, false))
	assert.Contains(t, s.printed.String(), "[content missing]")

	assert.ErrorIs(t, s.api.PrintHistory(filepath.Join(s.docsDir, "other.txt"), false), ErrNoIdentity)
}

func TestQuietModeOnlyPrintsRequested(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "doc.txt", "x")
	_, err := s.api.Save(path, data)
	require.NoError(t, err)
	assert.Empty(t, s.printed.String())

	require.NoError(t, s.api.PrintHistory(path, true))
	assert.NotEmpty(t, s.printed.String())
}

func TestVerifyCleanStore(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "doc.txt", "x")
	_, err := s.api.Save(path, data)
	require.NoError(t, err)

	mismatches, err := s.api.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestPrintVersion(t *testing.T) {
	s := setup(t, QuietMode)
	path, data := s.write(t, "doc.txt", "100% literal")
	saved, err := s.api.Save(path, data)
	require.NoError(t, err)

	require.NoError(t, s.api.PrintVersion(string(saved.Hash)))
	assert.Equal(t, "100% literal", s.printed.String())
	assert.ErrorIs(t, s.api.PrintVersion("00000000deadbeef"), ErrNotFound)
}
