//go:build linux

package search

// DefaultExcludedPaths returns kernel-provided trees that never hold user files.
func DefaultExcludedPaths() []string {
	return []string{"/proc", "/sys", "/dev"}
}
