//go:build windows

package search

import (
	"os"
	"path/filepath"
)

// DefaultExcludedPaths returns the Windows installation directory, the
// OS-managed program data directory and the system drive's housekeeping
// folders, resolved from the environment.
func DefaultExcludedPaths() []string {
	systemDrive := envOr("SystemDrive", "C:") + `\`

	return []string{
		envOr("SystemRoot", filepath.Join(systemDrive, "Windows")),
		envOr("ProgramData", filepath.Join(systemDrive, "ProgramData")),
		filepath.Join(systemDrive, "$Recycle.Bin"),
		filepath.Join(systemDrive, "System Volume Information"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
