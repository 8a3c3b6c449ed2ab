package volume

import (
	"bufio"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// mountEntry is one line of a Linux mount table.
type mountEntry struct {
	Source     string
	MountPoint string
	FSType     string
}

// pseudoFilesystems never hold user files.
var pseudoFilesystems = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"bpf":         true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devfs":       true,
	"devpts":      true,
	"devtmpfs":    true,
	"efivarfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"nsfs":        true,
	"proc":        true,
	"pstore":      true,
	"ramfs":       true,
	"rpc_pipefs":  true,
	"securityfs":  true,
	"selinuxfs":   true,
	"squashfs":    true,
	"sysfs":       true,
	"tmpfs":       true,
	"tracefs":     true,
}

// networkFilesystems are excluded: only locally mounted paths are searched.
var networkFilesystems = map[string]bool{
	"afpfs":      true,
	"cifs":       true,
	"fuse.sshfs": true,
	"ncpfs":      true,
	"nfs":        true,
	"nfs4":       true,
	"smb3":       true,
	"smbfs":      true,
	"sshfs":      true,
	"webdav":     true,
}

// isSearchable reports whether a mounted filesystem should be offered as a
// search volume.
func isSearchable(source, fstype string) bool {
	fstype = strings.ToLower(fstype)
	if pseudoFilesystems[fstype] || networkFilesystems[fstype] {
		return false
	}
	// SMB/NFS sources sometimes hide behind a fuse fstype.
	if strings.HasPrefix(source, "//") {
		return false
	}
	return true
}

// parseMountTable reads the /proc/self/mounts format:
// "source mountpoint fstype options dump pass".
func parseMountTable(r io.Reader) ([]mountEntry, error) {
	var entries []mountEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, mountEntry{
			Source:     unescapeMountField(fields[0]),
			MountPoint: unescapeMountField(fields[1]),
			FSType:     fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// unescapeMountField decodes the three-digit octal escapes the kernel uses for
// whitespace and backslashes, e.g. "\040" for a space.
func unescapeMountField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// statFunc returns the total and available bytes of the filesystem at path.
type statFunc func(path string) (total, avail uint64, err error)

// volumesFromMounts turns mount table entries into volumes, dropping pseudo
// and network filesystems, duplicate mount points, unreadable mounts and
// mounts reporting no capacity.
func volumesFromMounts(entries []mountEntry, stat statFunc) []Info {
	volumes := make([]Info, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, m := range entries {
		if !isSearchable(m.Source, m.FSType) || seen[m.MountPoint] {
			continue
		}

		total, avail, err := stat(m.MountPoint)
		if err != nil || total == 0 {
			continue
		}
		seen[m.MountPoint] = true

		volumes = append(volumes, Info{
			Label:          mountLabel(m.Source, m.MountPoint),
			MountPoint:     m.MountPoint,
			Filesystem:     m.FSType,
			Type:           TypeLocal,
			AvailableBytes: avail,
			TotalBytes:     total,
		})
	}

	return volumes
}

// mountLabel prefers the device name, falling back to the mount point's last
// component for sources that are not device paths (overlay, zfs datasets, ...).
func mountLabel(source, mountPoint string) string {
	if strings.HasPrefix(source, "/dev/") {
		return filepath.Base(source)
	}
	if source != "" && source != "none" {
		return source
	}
	if base := filepath.Base(mountPoint); base != "/" && base != "." {
		return base
	}
	return mountPoint
}
