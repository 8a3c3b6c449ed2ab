package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskseek/diskseek/internal/volume"
)

type staticVolumes []volume.Info

func (s staticVolumes) List() []volume.Info { return s }

func newTestEngine(t *testing.T, volumes VolumeLister) *Engine {
	t.Helper()
	e := New(Config{Workers: 2, PruneTopLevel: true}, volumes, zerolog.Nop())
	t.Cleanup(e.Close)
	return e
}

func TestEngine_NoVolumes(t *testing.T) {
	e := newTestEngine(t, staticVolumes{})

	matches := e.Search(context.Background(), Criteria{Query: "anything"})
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestEngine_SearchesVolumesInOrder(t *testing.T) {
	first := buildTree(t, map[string]string{"a/report-1.txt": ""})
	second := buildTree(t, map[string]string{"b/report-2.txt": "", "report-3.txt": ""})

	e := newTestEngine(t, staticVolumes{
		{Label: "one", MountPoint: first},
		{Label: "missing", MountPoint: filepath.Join(t.TempDir(), "unmounted")},
		{Label: "two", MountPoint: second},
	})

	matches := e.Search(context.Background(), Criteria{Query: "report"})

	require.Len(t, matches, 3)
	assert.Equal(t, filepath.Join(first, "a", "report-1.txt"), matches[0].Path)
	assert.ElementsMatch(t,
		[]string{filepath.Join(second, "b", "report-2.txt"), filepath.Join(second, "report-3.txt")},
		[]string{matches[1].Path, matches[2].Path},
	)
}

func TestEngine_SingleVolume(t *testing.T) {
	first := buildTree(t, map[string]string{"a/report.txt": ""})
	second := buildTree(t, map[string]string{"b/report.txt": ""})

	e := newTestEngine(t, staticVolumes{{MountPoint: first}, {MountPoint: second}})

	matches := e.Search(context.Background(), Criteria{Query: "report", Volume: second})
	require.Len(t, matches, 1)
	assert.Equal(t, filepath.Join(second, "b", "report.txt"), matches[0].Path)
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	root := buildTree(t, map[string]string{"a/report.txt": ""})
	e := newTestEngine(t, staticVolumes{{MountPoint: root}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, e.Search(ctx, Criteria{}))
}
