package search

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Searcher searches a single root directory using the shared pool.
type Searcher struct {
	pool          *Pool
	walker        *Walker
	classifier    *Classifier
	capacity      int
	pruneTopLevel bool
	stayOnVolume  bool
	logger        zerolog.Logger

	// beforeWalk, when set, runs inside the pool job ahead of each walker.
	beforeWalk func(root string)
}

// NewSearcher creates a Searcher. The pool is borrowed, not owned.
func NewSearcher(pool *Pool, classifier *Classifier, cfg Config, logger zerolog.Logger) *Searcher {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	capacity := cfg.ChannelCapacity
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}

	return &Searcher{
		pool:          pool,
		walker:        NewWalker(classifier, cfg.StayOnVolume),
		classifier:    classifier,
		capacity:      capacity,
		pruneTopLevel: cfg.PruneTopLevel,
		stayOnVolume:  cfg.StayOnVolume,
		logger:        logger.With().Str("component", "searcher").Logger(),
	}
}

// SearchRoot returns every match below root. A missing, unreadable or
// excluded root yields an empty result. When ctx is cancelled the matches collected so far
// are returned.
func (s *Searcher) SearchRoot(ctx context.Context, root string, criteria Criteria) []Match {
	results := []Match{}

	if s.classifier.IsExcluded(root) {
		s.logger.Debug().Str("root", root).Msg("Skipping excluded search root")
		return results
	}

	rootInfo, err := os.Stat(root)
	if err != nil || !rootInfo.IsDir() {
		s.logger.Debug().Err(err).Str("root", root).Msg("Skipping unusable search root")
		return results
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		s.logger.Debug().Err(err).Str("root", root).Msg("Failed to list search root")
		return results
	}

	var (
		rootDev   uint64
		hasDevice bool
	)
	if s.stayOnVolume {
		rootDev, hasDevice = deviceID(rootInfo)
	}

	m := newMatcher(criteria)
	dirs := make([]string, 0, len(entries))

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		pruned := IsHidden(entry.Name()) || s.classifier.IsExcluded(path)

		if entry.IsDir() {
			// Without top-level pruning the walker rejects its own root instead.
			if pruned && s.pruneTopLevel {
				continue
			}
			if hasDevice {
				if info, infoErr := entry.Info(); infoErr == nil {
					if dev, ok := deviceID(info); ok && dev != rootDev {
						continue
					}
				}
			}
			dirs = append(dirs, path)
			continue
		}

		if pruned || !m.matches(entry.Name(), false) {
			continue
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			continue
		}
		results = append(results, Match{
			Path:       path,
			Name:       entry.Name(),
			Size:       info.Size(),
			SourceRoot: root,
		})
	}

	if len(dirs) == 0 {
		return results
	}

	matches := make(chan Match, s.capacity)
	emit := func(match Match) bool {
		select {
		case matches <- match:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go s.dispatch(ctx, dirs, m, emit, matches)

	for {
		select {
		case match, ok := <-matches:
			if !ok {
				return results
			}
			results = append(results, match)
		case <-ctx.Done():
			s.logger.Debug().
				Str("root", root).
				Int("matches", len(results)).
				Msg("Search cancelled, returning partial results")
			return results
		}
	}
}

// dispatch submits one walker per directory, waits for all of them and then
// closes matches. It is the only sender that closes the channel.
func (s *Searcher) dispatch(ctx context.Context, dirs []string, m matcher, emit func(Match) bool, matches chan<- Match) {
	defer close(matches)

	tasks := make([]*Task, 0, len(dirs))
	for _, dir := range dirs {
		task, err := s.pool.Submit(ctx, func() {
			if s.beforeWalk != nil {
				s.beforeWalk(dir)
			}
			s.walker.walk(ctx, dir, m, emit)
		})
		if err != nil {
			s.logger.Debug().Err(err).Str("root", dir).Msg("Stopped dispatching walkers")
			break
		}
		tasks = append(tasks, task)
	}

	for _, task := range tasks {
		task.Wait()
	}
}
