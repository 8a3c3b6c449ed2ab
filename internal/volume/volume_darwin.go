//go:build darwin

package volume

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// listVolumes queries every mounted filesystem with getfsstat(2).
func listVolumes() ([]Info, error) {
	n, err := unix.Getfsstat(nil, unix.MNT_NOWAIT)
	if err != nil {
		return nil, fmt.Errorf("count mounts: %w", err)
	}

	buf := make([]unix.Statfs_t, n)
	n, err = unix.Getfsstat(buf, unix.MNT_NOWAIT)
	if err != nil {
		return nil, fmt.Errorf("list mounts: %w", err)
	}

	volumes := make([]Info, 0, n)
	for _, st := range buf[:n] {
		source := unix.ByteSliceToString(st.Mntfromname[:])
		mountPoint := unix.ByteSliceToString(st.Mntonname[:])
		fstype := unix.ByteSliceToString(st.Fstypename[:])

		if shouldSkipDarwinVolume(source, fstype, mountPoint) {
			continue
		}

		blockSize := uint64(st.Bsize)
		total := st.Blocks * blockSize
		if total == 0 {
			continue
		}

		volumes = append(volumes, Info{
			Label:          darwinVolumeLabel(mountPoint),
			MountPoint:     mountPoint,
			Filesystem:     fstype,
			Type:           darwinVolumeType(mountPoint),
			AvailableBytes: st.Bavail * blockSize,
			TotalBytes:     total,
		})
	}

	return volumes, nil
}

// shouldSkipDarwinVolume determines if a volume should be skipped
func shouldSkipDarwinVolume(source, fstype, mountPoint string) bool {
	if !isSearchable(source, fstype) {
		return true
	}

	// APFS splits the boot volume; only the Data volume holds user files.
	if strings.HasPrefix(mountPoint, "/System/Volumes/") && mountPoint != "/System/Volumes/Data" {
		return true
	}

	switch mountPoint {
	case "/dev", "/net", "/home":
		return true
	}

	// automounter maps
	return strings.HasPrefix(source, "map ")
}

func darwinVolumeLabel(mountPoint string) string {
	if mountPoint == "/" {
		return "Macintosh HD"
	}
	return filepath.Base(mountPoint)
}

func darwinVolumeType(mountPoint string) string {
	if strings.HasPrefix(mountPoint, "/Volumes/") {
		return TypeRemovable
	}
	return TypeLocal
}
