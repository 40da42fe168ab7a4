//go:build unix

package tailer

import (
	"os"
	"syscall"
)

// fileIdentity returns the stable on-disk identity (device, inode) of a
// file. The third return reports whether an identity was available.
func fileIdentity(info os.FileInfo) (uint64, uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return uint64(stat.Dev), uint64(stat.Ino), true
}
