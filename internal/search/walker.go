package search

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// errStopWalk ends a traversal early without reporting a failure.
var errStopWalk = errors.New("walk stopped")

// Walker performs one depth-first, pre-order traversal of a directory tree.
// Symbolic links are never followed. Hidden and excluded entries, the root
// included, are never reported and hidden or excluded directories are never
// descended into. Entries whose metadata cannot be read are skipped.
type Walker struct {
	classifier   *Classifier
	stayOnVolume bool

	// visit, when set, observes every entry that survived pruning.
	visit func(path string)
}

// NewWalker creates a Walker applying classifier's exclusions. With
// stayOnVolume set, directories on another device than the root are pruned.
func NewWalker(classifier *Classifier, stayOnVolume bool) *Walker {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Walker{classifier: classifier, stayOnVolume: stayOnVolume}
}

// Walk traverses root and calls emit for every entry matching criteria, in
// visitation order, with SourceRoot set to root. A false return from emit
// means the consumer has gone away; the walk then stops quietly. Walk never
// fails: unreadable entries are skipped.
func (w *Walker) Walk(ctx context.Context, root string, criteria Criteria, emit func(Match) bool) {
	w.walk(ctx, root, newMatcher(criteria), emit)
}

func (w *Walker) walk(ctx context.Context, root string, m matcher, emit func(Match) bool) {
	var (
		rootDev   uint64
		hasDevice bool
	)
	if w.stayOnVolume {
		if info, err := os.Lstat(root); err == nil {
			rootDev, hasDevice = deviceID(info)
		}
	}

	// The callback only ever returns nil, SkipDir, errStopWalk or a context
	// error, none of which needs reporting.
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable root or directory: nothing further to visit here.
			return nil
		}

		// The root gets the same checks as its descendants.
		isDir := d.IsDir()
		if IsHidden(d.Name()) || w.classifier.IsExcluded(path) {
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}

		if w.visit != nil {
			w.visit(path)
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil //nolint:nilerr // vanished or unreadable entry, keep walking
		}

		if isDir && hasDevice && path != root {
			if dev, ok := deviceID(info); ok && dev != rootDev {
				return filepath.SkipDir
			}
		}

		if !m.matches(d.Name(), isDir) {
			return nil
		}

		var size int64
		if !isDir {
			size = info.Size()
		}

		if !emit(Match{
			Path:       path,
			Name:       d.Name(),
			Size:       size,
			SourceRoot: root,
		}) {
			return errStopWalk
		}
		return nil
	})
}
