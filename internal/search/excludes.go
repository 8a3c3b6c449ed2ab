package search

// ExcludeList merges configured exclusions with the platform defaults.
func ExcludeList(configured []string, withDefaults bool) []string {
	out := make([]string, 0, len(configured)+4)
	if withDefaults {
		out = append(out, DefaultExcludedPaths()...)
	}
	return append(out, configured...)
}
