//go:build windows

package volume

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// listVolumes walks the logical drive bitmask and queries each fixed or
// removable drive.
func listVolumes() ([]Info, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil, fmt.Errorf("get logical drives: %w", err)
	}

	var volumes []Info
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}

		letter := string(rune('A'+i)) + ":"
		root := letter + `\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		driveType := driveTypeName(windows.GetDriveType(rootPtr))
		if driveType == "" {
			continue
		}

		var freeToCaller, total, totalFree uint64
		if err := windows.GetDiskFreeSpaceEx(rootPtr, &freeToCaller, &total, &totalFree); err != nil || total == 0 {
			continue
		}

		label, fsName := volumeInformation(rootPtr)
		if label == "" {
			label = letter
		}

		volumes = append(volumes, Info{
			Label:          label,
			MountPoint:     root,
			Filesystem:     fsName,
			Type:           driveType,
			AvailableBytes: freeToCaller,
			TotalBytes:     total,
		})
	}

	return volumes, nil
}

// driveTypeName maps GetDriveType results to Info.Type. CD-ROM, network and
// unknown drives return "" and are skipped.
func driveTypeName(t uint32) string {
	switch t {
	case windows.DRIVE_FIXED, windows.DRIVE_RAMDISK:
		return TypeFixed
	case windows.DRIVE_REMOVABLE:
		return TypeRemovable
	default:
		return ""
	}
}

func volumeInformation(root *uint16) (label, fsName string) {
	var (
		nameBuf   [windows.MAX_PATH + 1]uint16
		fsNameBuf [windows.MAX_PATH + 1]uint16
		serial    uint32
		maxComp   uint32
		flags     uint32
	)
	err := windows.GetVolumeInformation(
		root,
		&nameBuf[0], uint32(len(nameBuf)),
		&serial, &maxComp, &flags,
		&fsNameBuf[0], uint32(len(fsNameBuf)),
	)
	if err != nil {
		return "", ""
	}
	return windows.UTF16ToString(nameBuf[:]), windows.UTF16ToString(fsNameBuf[:])
}
