//go:build windows

package policy

import "golang.org/x/sys/windows"

// diskFree reports the bytes available to the calling user on the volume
// containing path.
func diskFree(path string) (int64, error) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var available, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &available, &total, &free); err != nil {
		return 0, err
	}
	return int64(available), nil
}
