//go:build !windows

package models

import "golang.org/x/sys/unix"

// FreeSpace возвращает количество байт, доступных непривилегированному пользователю.
func FreeSpace(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
