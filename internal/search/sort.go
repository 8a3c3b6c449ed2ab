package search

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SortField selects the key used by SortMatches.
type SortField string

const (
	SortByPath SortField = "path"
	SortByName SortField = "name"
	SortBySize SortField = "size"
)

// ErrInvalidSortField is returned by ParseSortField for unknown fields.
var ErrInvalidSortField = errors.New("invalid sort field")

// ParseSortField validates s. An empty string means no sorting.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case "", SortByPath, SortByName, SortBySize:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSortField, s)
	}
}

// SortMatches orders matches in place by field. Ties keep their relative
// order, and path breaks ties for name and size. An empty field is a no-op.
func SortMatches(matches []Match, field SortField, desc bool) {
	var compare func(a, b Match) int
	switch field {
	case SortByPath:
		compare = func(a, b Match) int { return cmp.Compare(a.Path, b.Path) }
	case SortByName:
		compare = func(a, b Match) int {
			return cmp.Or(
				cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
				cmp.Compare(a.Path, b.Path),
			)
		}
	case SortBySize:
		compare = func(a, b Match) int {
			return cmp.Or(cmp.Compare(a.Size, b.Size), cmp.Compare(a.Path, b.Path))
		}
	default:
		return
	}

	if desc {
		asc := compare
		compare = func(a, b Match) int { return asc(b, a) }
	}
	slices.SortStableFunc(matches, compare)
}
