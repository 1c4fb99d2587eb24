//go:build !(linux || darwin || freebsd || netbsd || windows)

package identity

// Platform returns the metadata mechanism native to the operating system.
// Here there is none, so identities are always recovered from the ledger.
func Platform() Attacher {
	return NoAttacher{}
}
