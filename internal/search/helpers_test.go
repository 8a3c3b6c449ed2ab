package search

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// buildTree creates entries below a fresh temp dir. Names ending in "/" are
// directories; everything else is a file whose content is the map value.
func buildTree(t *testing.T, entries map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range entries {
		path := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(name, "/")))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// relPaths returns match paths relative to root using forward slashes, sorted.
func relPaths(t *testing.T, root string, matches []Match) []string {
	t.Helper()
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(root, m.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func newTestSearcher(t *testing.T, cfg Config, excluded ...string) *Searcher {
	t.Helper()
	pool := NewPool(4, zerolog.Nop())
	t.Cleanup(pool.Close)
	return NewSearcher(pool, NewClassifier(excluded), cfg, zerolog.Nop())
}

// lockDir removes every permission bit from dir until the test ends.
func lockDir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.Chmod(dir, 0))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })
}
