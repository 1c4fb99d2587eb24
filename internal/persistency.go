package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

const WorkInProgressFileSuffix = ".wip"

// WriteFileAtomically writes to a uniquely named work-in-progress file next to path and renames it into place,
// so readers observe either the previous or the complete new content.
func WriteFileAtomically(path string, data []byte, perm os.FileMode) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	file, err := os.CreateTemp(dir, "."+name+".*"+WorkInProgressFileSuffix)
	if err != nil {
		return err
	}
	tempPath := file.Name()
	defer func() {
		if err != nil {
			os.Remove(tempPath) //best effort, the leftover is harmless
		}
	}()

	if _, err = file.Write(data); err != nil {
		file.Close()
		return
	}
	if err = file.Sync(); err != nil {
		file.Close()
		return
	}
	if err = file.Close(); err != nil {
		return
	}
	if err = os.Chmod(tempPath, perm); err != nil {
		return
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing %s with working copy %s failed: %w", path, tempPath, err)
	}
	return nil
}
