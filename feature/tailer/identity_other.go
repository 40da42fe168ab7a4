//go:build !unix

package tailer

import "os"

// fileIdentity has no stable identity source on this platform; rotation
// is then detected through size shrink only.
func fileIdentity(info os.FileInfo) (uint64, uint64, bool) {
	return 0, 0, false
}
