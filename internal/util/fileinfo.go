package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FileInfo identifies one version of a file on disk
type FileInfo struct {
	ModTime int64  // seconds since epoch
	Size    int64  // bytes
	Inode   uint64 // unique per filesystem
}

// GetFileInfo stats path and returns its identity. Linux and macOS only.
func GetFileInfo(path string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	sec, _ := st.Mtim.Unix()
	return &FileInfo{
		ModTime: sec,
		Size:    st.Size,
		Inode:   uint64(st.Ino),
	}, nil
}
