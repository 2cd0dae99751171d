package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// folderIndexer runs one folder to completion.
type folderIndexer interface {
	IndexFolder(ctx context.Context, folder string, progress func(ev domain.IndexEvent)) (domain.IndexSummary, error)
}

// Ensure Indexer satisfies folderIndexer.
var _ folderIndexer = (*Indexer)(nil)

// Reindexer re-indexes registered folders when their files change.
// Each folder is queued at most once while it waits, so a burst of
// changes produces a single run.
type Reindexer struct {
	folders driven.FolderStore
	watcher driven.FolderWatcher
	indexer folderIndexer
	logger  *logger.Logger

	// OnReindex is called after every run. Optional.
	OnReindex func(folder string, summary domain.IndexSummary, err error)

	mu      sync.Mutex
	pending map[string]bool
}

// NewReindexer creates a reindexer over every registered folder.
func NewReindexer(
	folders driven.FolderStore, watcher driven.FolderWatcher, indexer folderIndexer, log *logger.Logger,
) *Reindexer {
	return &Reindexer{
		folders: folders,
		watcher: watcher,
		indexer: indexer,
		logger:  log,
		pending: make(map[string]bool),
	}
}

// Run watches until ctx is done. It returns nil on cancellation.
func (r *Reindexer) Run(ctx context.Context) error {
	folders, err := r.folders.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}
	if len(folders) == 0 {
		return fmt.Errorf("%w: no folders registered", domain.ErrInvalidInput)
	}
	roots := make([]string, len(folders))
	for i, f := range folders {
		roots[i] = f.Path
	}

	changes, err := r.watcher.Watch(ctx, roots)
	if err != nil {
		return fmt.Errorf("watch folders: %w", err)
	}
	r.logger.Info("Watching %d folders", len(roots))

	// The pending set bounds the queue to one slot per root.
	queue := make(chan string, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		for batch := range changes {
			for _, c := range batch {
				r.logger.Debug("%s %s", c.Type, c.Path)
				if r.markPending(c.Folder) {
					queue <- c.Folder
				}
			}
		}
		return nil
	})
	g.Go(func() error {
		for folder := range queue {
			r.clearPending(folder)
			if gctx.Err() != nil {
				continue
			}
			r.reindex(gctx, folder)
		}
		return nil
	})

	return g.Wait()
}

func (r *Reindexer) reindex(ctx context.Context, folder string) {
	summary, err := r.indexer.IndexFolder(ctx, folder, nil)
	switch {
	case errors.Is(err, domain.ErrIndexInProgress):
		r.logger.Warn("Skipping %s: another run is in progress", folder)
	case err != nil:
		r.logger.Error("Re-index %s: %v", folder, err)
	default:
		r.logger.Info("Re-indexed %s: indexed %d, skipped %d", folder, summary.Indexed, summary.Skipped)
	}
	if r.OnReindex != nil {
		r.OnReindex(folder, summary, err)
	}
}

// markPending reports whether folder was newly queued.
func (r *Reindexer) markPending(folder string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if folder == "" || r.pending[folder] {
		return false
	}
	r.pending[folder] = true
	return true
}

func (r *Reindexer) clearPending(folder string) {
	r.mu.Lock()
	delete(r.pending, folder)
	r.mu.Unlock()
}
