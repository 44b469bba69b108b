//go:build linux

package overlay

import "golang.org/x/sys/unix"

// fsUsage returns capacity and free bytes of the filesystem backing path,
// or zeros when statfs fails.
func fsUsage(path string) (capacity, free uint64) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize, st.Bavail * bsize
}
