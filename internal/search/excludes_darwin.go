//go:build darwin

package search

// DefaultExcludedPaths returns the OS installation and swap trees.
func DefaultExcludedPaths() []string {
	return []string{"/System", "/private/var/vm", "/dev"}
}
