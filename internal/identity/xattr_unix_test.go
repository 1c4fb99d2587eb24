//go:build linux || darwin || freebsd || netbsd

package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformAttacherRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	attacher := Platform()

	_, present := attacher.TryRead(path)
	assert.False(t, present, "fresh file must not carry an identity")

	token := NewToken()
	if !attacher.TryWrite(path, token) {
		t.Skip("temporary directory does not support user extended attributes")
	}
	read, present := attacher.TryRead(path)
	assert.True(t, present)
	assert.Equal(t, token, read)

	replacement := NewToken()
	require.True(t, attacher.TryWrite(path, replacement))
	read, _ = attacher.TryRead(path)
	assert.Equal(t, replacement, read)
}

func TestPlatformAttacherMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	attacher := Platform()

	_, present := attacher.TryRead(path)
	assert.False(t, present)
	assert.False(t, attacher.TryWrite(path, NewToken()))
}
