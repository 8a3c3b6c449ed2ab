//go:build !linux && !darwin && !windows

package search

// DefaultExcludedPaths returns nil on platforms without a known system layout.
func DefaultExcludedPaths() []string {
	return nil
}
