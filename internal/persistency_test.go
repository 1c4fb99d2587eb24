package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicallyReplacesContent(t *testing.T) {
	dir, err := os.MkdirTemp("", "doctrail-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		os.RemoveAll(dir)
	}()
	target := filepath.Join(dir, "record.json")

	for _, content := range []string{"first", "second, longer", ""} {
		if err := WriteFileAtomically(target, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		written, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		if string(written) != content {
			t.Fatalf("expected %q, got %q", content, written)
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && os.PathSeparator == '/' {
		t.Errorf("permissions not applied: %v", perm)
	}
	entries, _ := os.ReadDir(dir)
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), WorkInProgressFileSuffix) {
			t.Errorf("leftover work-in-progress file %s", entry.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicallyFailsWithoutDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "record.json")
	if err := WriteFileAtomically(target, []byte("x"), 0o644); err == nil {
		t.Fatal("write into missing directory succeeded")
	}
}

func TestAssertNoError(t *testing.T) {
	AssertNoError(nil, "nothing happened")
	defer func() {
		if recover() == nil {
			t.Error("no panic on error")
		}
	}()
	AssertNoError(errors.New("boom"), "test")
}
