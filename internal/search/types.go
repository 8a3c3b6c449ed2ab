// Package search finds files and directories by name across mounted volumes.
//
// A search fans out one walker per top-level directory of a volume onto a
// process-wide worker pool. Walkers stream matches into a bounded channel that
// a single aggregation loop drains; a full channel stalls the walkers rather
// than growing memory. The loop finishes only once every walker has returned.
package search

// DefaultChannelCapacity is the number of matches buffered between walkers and
// the aggregation loop when no capacity is configured.
const DefaultChannelCapacity = 4096

// Match is one entry whose name satisfied the search criteria.
type Match struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	SourceRoot string `json:"sourceRoot"`
}

// Criteria describes a single search.
type Criteria struct {
	// Query is matched as a case-insensitive substring of entry names.
	// An empty query matches every entry.
	Query string
	// Extension is a case-insensitive name suffix applied to non-directory
	// entries only. Empty disables the filter.
	Extension string
	// IncludeDirectories allows directories to be returned. Directories are
	// descended into either way.
	IncludeDirectories bool
	// Volume restricts the search to one mount point. Empty searches every
	// enumerated volume.
	Volume string
}

// Config tunes an Engine.
type Config struct {
	// Workers sizes the traversal pool; 0 means one per CPU.
	Workers int
	// ChannelCapacity bounds buffered matches; 0 means DefaultChannelCapacity.
	ChannelCapacity int
	// ExcludePaths are path prefixes never descended into.
	ExcludePaths []string
	// DefaultExcludes appends the platform's system directories to ExcludePaths.
	DefaultExcludes bool
	// PruneTopLevel drops hidden and excluded top-level directories before
	// dispatch. Without it each one still costs a pool job, and the walker
	// rejects it on arrival.
	PruneTopLevel bool
	// StayOnVolume prunes directories on a different device than the volume.
	StayOnVolume bool
}
