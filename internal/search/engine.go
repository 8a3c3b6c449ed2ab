package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/diskseek/diskseek/internal/volume"
)

// VolumeLister provides the volumes to search when no volume is named.
type VolumeLister interface {
	List() []volume.Info
}

// Engine is the entry point for searches. It owns the worker pool.
type Engine struct {
	searcher *Searcher
	volumes  VolumeLister
	pool     *Pool
	logger   zerolog.Logger
}

// New creates an Engine and starts its worker pool.
func New(cfg Config, volumes VolumeLister, logger zerolog.Logger) *Engine {
	classifier := NewClassifier(ExcludeList(cfg.ExcludePaths, cfg.DefaultExcludes))
	pool := NewPool(cfg.Workers, logger)

	return &Engine{
		searcher: NewSearcher(pool, classifier, cfg, logger),
		volumes:  volumes,
		pool:     pool,
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

// Close stops the worker pool.
func (e *Engine) Close() {
	e.pool.Close()
}

// Search runs criteria against criteria.Volume, or against every enumerated
// volume in enumeration order when it is empty. It never fails; a search with
// nothing to look at returns an empty slice.
func (e *Engine) Search(ctx context.Context, criteria Criteria) []Match {
	start := time.Now()

	var roots []string
	if criteria.Volume != "" {
		roots = []string{criteria.Volume}
	} else {
		for _, v := range e.volumes.List() {
			roots = append(roots, v.MountPoint)
		}
	}

	results := []Match{}
	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		results = append(results, e.searcher.SearchRoot(ctx, root, criteria)...)
	}

	e.logger.Info().
		Str("query", criteria.Query).
		Str("extension", criteria.Extension).
		Bool("folders", criteria.IncludeDirectories).
		Strs("volumes", roots).
		Int("matches", len(results)).
		Dur("duration", time.Since(start)).
		Bool("cancelled", ctx.Err() != nil).
		Msg("Search completed")

	return results
}
