//go:build linux || darwin || freebsd || netbsd

package identity

import "golang.org/x/sys/unix"

// xattrAttacher stores the token as extended file attribute.
type xattrAttacher struct{}

// Platform returns the metadata mechanism native to the operating system.
func Platform() Attacher {
	return xattrAttacher{}
}

func (xattrAttacher) TryRead(path string) (Token, bool) {
	size, err := unix.Getxattr(path, AttributeName, nil)
	if err != nil || size <= 0 || size > maxAttributeSize { //ENODATA/ENOATTR, ENOTSUP, EPERM, ... all mean absent
		return "", false
	}
	buffer := make([]byte, size)
	size, err = unix.Getxattr(path, AttributeName, buffer)
	if err != nil {
		return "", false
	}
	return parseAttached(buffer[:size])
}

func (xattrAttacher) TryWrite(path string, token Token) bool {
	return unix.Setxattr(path, AttributeName, []byte(token), 0) == nil
}
