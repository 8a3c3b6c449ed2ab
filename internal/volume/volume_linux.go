//go:build linux

package volume

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const mountTablePath = "/proc/self/mounts"

var errNotDirectory = errors.New("mount point is not a directory")

// listVolumes reads the kernel mount table and stats every candidate mount.
func listVolumes() ([]Info, error) {
	f, err := os.Open(mountTablePath)
	if err != nil {
		return nil, fmt.Errorf("open mount table: %w", err)
	}
	defer f.Close()

	entries, err := parseMountTable(f)
	if err != nil {
		return nil, fmt.Errorf("parse mount table: %w", err)
	}

	return volumesFromMounts(entries, statMountPoint), nil
}

// statMountPoint stats the filesystem mounted at path. File bind mounts, such
// as a container's /etc/hosts, are rejected.
func statMountPoint(path string) (total, avail uint64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("%w: %s", errNotDirectory, path)
	}
	return statfs(path)
}

func statfs(path string) (total, avail uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(st.Frsize)
	if blockSize == 0 {
		blockSize = uint64(st.Bsize)
	}
	return st.Blocks * blockSize, st.Bavail * blockSize, nil
}
