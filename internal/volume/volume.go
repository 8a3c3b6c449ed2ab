// Package volume enumerates locally mounted volumes and their capacity.
package volume

import (
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Volume types reported in Info.Type.
const (
	TypeLocal     = "local"
	TypeFixed     = "fixed"
	TypeRemovable = "removable"
)

// Info describes one mounted volume. Capacity figures are a snapshot taken at
// enumeration time.
type Info struct {
	Label          string `json:"label"`
	MountPoint     string `json:"mountPoint"`
	Filesystem     string `json:"filesystem,omitempty"`
	Type           string `json:"type,omitempty"`
	AvailableBytes uint64 `json:"availableBytes"`
	TotalBytes     uint64 `json:"totalBytes"`
}

// UsedPercent returns the share of the volume in use, 0 when the size is unknown.
func (i Info) UsedPercent() float64 {
	if i.TotalBytes == 0 || i.AvailableBytes > i.TotalBytes {
		return 0
	}
	return float64(i.TotalBytes-i.AvailableBytes) / float64(i.TotalBytes) * 100
}

// Enumerator lists mounted volumes. It never caches: every call queries the OS,
// but concurrent calls share a single query.
type Enumerator struct {
	logger zerolog.Logger
	group  singleflight.Group
	source func() ([]Info, error)
}

// NewEnumerator creates an Enumerator backed by the host OS.
func NewEnumerator(logger zerolog.Logger) *Enumerator {
	return &Enumerator{
		logger: logger.With().Str("component", "volume").Logger(),
		source: listVolumes,
	}
}

// List returns the currently mounted local volumes. It never fails: an OS
// error yields an empty list.
func (e *Enumerator) List() []Info {
	v, err, shared := e.group.Do("volumes", func() (interface{}, error) {
		return e.source()
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to get volume information")
		return []Info{}
	}

	volumes, _ := v.([]Info)
	e.logger.Debug().
		Int("count", len(volumes)).
		Bool("shared", shared).
		Msg("Listed volumes")

	// Callers sharing a query must not alias each other's slice.
	out := slices.Clone(volumes)
	if out == nil {
		out = []Info{}
	}
	return out
}
