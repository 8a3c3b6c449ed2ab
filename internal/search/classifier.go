package search

import (
	"path/filepath"
	"runtime"
	"strings"
)

// IsHidden reports whether a directory entry name is hidden. The relative
// path elements "." and ".." are not.
func IsHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// Classifier holds the excluded-path policy. It is immutable once built and
// safe for concurrent use.
type Classifier struct {
	excluded []string
	foldCase bool
}

// NewClassifier creates a Classifier that treats every path equal to or below
// one of excluded as off limits.
func NewClassifier(excluded []string) *Classifier {
	c := &Classifier{foldCase: runtime.GOOS == "windows"}

	seen := make(map[string]bool, len(excluded))
	for _, p := range excluded {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = c.fold(filepath.Clean(p))
		if seen[p] {
			continue
		}
		seen[p] = true
		c.excluded = append(c.excluded, p)
	}

	return c
}

// ExcludedPaths returns the normalized denylist.
func (c *Classifier) ExcludedPaths() []string {
	out := make([]string, len(c.excluded))
	copy(out, c.excluded)
	return out
}

// IsExcluded reports whether path is one of the excluded prefixes or lies
// beneath one. Matching is by whole path components.
func (c *Classifier) IsExcluded(path string) bool {
	if len(c.excluded) == 0 {
		return false
	}

	path = c.fold(filepath.Clean(path))
	for _, prefix := range c.excluded {
		if path == prefix {
			return true
		}
		if strings.HasSuffix(prefix, string(filepath.Separator)) {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (c *Classifier) fold(p string) string {
	if c.foldCase {
		return strings.ToLower(p)
	}
	return p
}

// Matches reports whether an entry satisfies criteria:
//  1. directories never match unless IncludeDirectories is set;
//  2. a non-directory must end with Extension when one is given;
//  3. otherwise the name must contain Query.
//
// All comparisons are case-insensitive.
func Matches(name string, isDir bool, criteria Criteria) bool {
	return newMatcher(criteria).matches(name, isDir)
}

// matcher is Criteria lower-cased once per search.
type matcher struct {
	query       string
	extension   string
	includeDirs bool
}

func newMatcher(c Criteria) matcher {
	return matcher{
		query:       strings.ToLower(c.Query),
		extension:   strings.ToLower(c.Extension),
		includeDirs: c.IncludeDirectories,
	}
}

func (m matcher) matches(name string, isDir bool) bool {
	if isDir && !m.includeDirs {
		return false
	}

	lower := strings.ToLower(name)
	if !isDir && m.extension != "" && !strings.HasSuffix(lower, m.extension) {
		return false
	}

	return strings.Contains(lower, m.query)
}
