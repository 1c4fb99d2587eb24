//go:build windows

package identity

import "os"

// streamAttacher emulates extended attributes with an NTFS alternate data stream of the file.
type streamAttacher struct{}

// Platform returns the metadata mechanism native to the operating system.
func Platform() Attacher {
	return streamAttacher{}
}

func streamPath(path string) string {
	return path + ":" + AttributeName
}

func (streamAttacher) TryRead(path string) (Token, bool) {
	raw, err := os.ReadFile(streamPath(path))
	if err != nil { //missing stream or non-NTFS volume
		return "", false
	}
	return parseAttached(raw)
}

func (streamAttacher) TryWrite(path string, token Token) bool {
	return os.WriteFile(streamPath(path), []byte(token), 0o644) == nil
}
