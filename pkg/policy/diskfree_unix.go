//go:build !windows

package policy

import "golang.org/x/sys/unix"

// diskFree reports the bytes available to unprivileged callers on the
// filesystem containing path.
func diskFree(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
