package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// eventBuffer is the capacity of a run's event channel.
const eventBuffer = 64

// IndexerDeps holds the collaborators of an Indexer.
type IndexerDeps struct {
	Folders    driven.FolderStore
	Documents  driven.DocumentStore
	Writers    driven.IndexWriterFactory
	Walker     driven.FolderWalker
	Extractors driven.ExtractorRegistry

	// History records finished runs. Optional.
	History driven.RunHistoryStore

	// Embedder computes document vectors. Optional: without it documents
	// are stored for lexical matching only.
	Embedder driven.EmbeddingService

	// Lock is shared with other indexers. A private lock is used when nil.
	Lock *IndexLock

	Settings domain.IndexSettings
	Logger   *logger.Logger
}

// Indexer runs the indexing pipeline over registered folders.
type Indexer struct {
	deps IndexerDeps
	lock *IndexLock

	mu     sync.RWMutex
	states map[string]domain.IndexState
}

// NewIndexer creates a new indexer.
func NewIndexer(deps IndexerDeps) *Indexer {
	lock := deps.Lock
	if lock == nil {
		lock = NewIndexLock()
	}
	if deps.Settings.BatchSize <= 0 {
		deps.Settings.BatchSize = domain.DefaultIndexSettings().BatchSize
	}
	return &Indexer{
		deps:   deps,
		lock:   lock,
		states: make(map[string]domain.IndexState),
	}
}

// Start begins indexing a registered folder on its own goroutine.
// Cancelling ctx cancels the run.
func (ix *Indexer) Start(ctx context.Context, folder string) (driving.IndexRun, error) {
	root, err := ix.resolveFolder(ctx, folder)
	if err != nil {
		return nil, err
	}

	release, err := ix.lock.Acquire(root)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := newIndexRun(uuid.NewString(), root, cancel)
	ix.setState(root, domain.IndexScanning)

	go func() {
		defer release()
		defer cancel()

		summary, state := ix.execute(runCtx, run)
		ix.setState(root, state)
		run.finish(summary, state)
	}()

	return run, nil
}

// IndexFolder runs one folder to completion and returns its summary.
// Progress messages are passed to progress when it is non-nil.
func (ix *Indexer) IndexFolder(
	ctx context.Context, folder string, progress func(ev domain.IndexEvent),
) (domain.IndexSummary, error) {
	run, err := ix.Start(ctx, folder)
	if err != nil {
		return domain.IndexSummary{}, err
	}
	for ev := range run.Events() {
		if progress != nil {
			progress(ev)
		}
	}
	summary := run.Wait()
	return summary, summary.Err
}

// IndexAll indexes every registered folder one after another. A folder that
// cannot start is recorded with its error and the rest continue. A cancelled
// context stops after the current folder.
func (ix *Indexer) IndexAll(
	ctx context.Context, progress func(folder string, ev domain.IndexEvent),
) (map[string]domain.IndexSummary, error) {
	folders, err := ix.deps.Folders.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	summaries := make(map[string]domain.IndexSummary, len(folders))
	for _, f := range folders {
		if ctx.Err() != nil {
			break
		}
		path := f.Path
		summary, err := ix.IndexFolder(ctx, path, func(ev domain.IndexEvent) {
			if progress != nil {
				progress(path, ev)
			}
		})
		if err != nil && summary.Err == nil {
			summary.Err = err
			ix.deps.Logger.Warn("Index %s: %v", path, err)
		}
		summaries[path] = summary
	}
	return summaries, nil
}

// Status returns the state of the latest run for a folder.
func (ix *Indexer) Status(folder string) domain.IndexState {
	root := cleanRoot(folder)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if s, ok := ix.states[root]; ok {
		return s
	}
	return domain.IndexIdle
}

func (ix *Indexer) setState(root string, state domain.IndexState) {
	ix.mu.Lock()
	ix.states[root] = state
	ix.mu.Unlock()
}

// resolveFolder returns the cleaned absolute path of a registered folder.
func (ix *Indexer) resolveFolder(ctx context.Context, folder string) (string, error) {
	if folder == "" {
		return "", fmt.Errorf("%w: empty folder path", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", folder, err)
	}
	root := cleanRoot(abs)

	if _, err := ix.deps.Folders.GetFolder(ctx, root); err != nil {
		if errors.Is(err, domain.ErrFolderNotFound) || errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrFolderNotFound, root)
		}
		return "", fmt.Errorf("get folder: %w", err)
	}
	return root, nil
}

func cleanRoot(p string) string {
	return domain.TrimTrailingSeparator(filepath.Clean(p))
}

// execute clears the folder's previous data, then walks and indexes it.
// Store writes are detached from ctx so a cancellation still commits what
// was processed.
func (ix *Indexer) execute(ctx context.Context, run *IndexRun) (domain.IndexSummary, domain.IndexState) {
	log := ix.deps.Logger.With("folder", run.folder, "run", run.id)
	log.Section("Index " + run.folder)
	started := time.Now()
	storeCtx := context.WithoutCancel(ctx)

	removed, err := ix.deps.Documents.DeleteUnderPrefix(storeCtx, run.folder)
	if err != nil {
		log.Error("Clear previous index: %v", err)
		return domain.IndexSummary{Err: fmt.Errorf("clear %s: %w", run.folder, err)}, domain.IndexFailed
	}
	log.Debug("Removed %d stale documents", removed)

	writer, err := ix.deps.Writers.BeginWrite(storeCtx)
	if err != nil {
		log.Error("Begin write: %v", err)
		return domain.IndexSummary{Err: fmt.Errorf("begin write: %w", err)}, domain.IndexFailed
	}

	p := &pipeline{
		storeCtx:   storeCtx,
		writer:     writer,
		extractors: ix.deps.Extractors,
		embedder:   ix.deps.Embedder,
		settings:   ix.deps.Settings,
		log:        log,
		lastFlush:  time.Now(),
	}

	walkErr := ix.deps.Walker.Walk(ctx, run.folder,
		func(path string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.indexPath(ctx, path)
			run.progress("Processing " + filepath.Base(path))
			return nil
		},
		func(path string, err error) {
			log.Debug("Skipping directory %s: %v", path, err)
		},
	)

	if err := p.close(); err != nil {
		log.Error("Commit index: %v", err)
	}

	cancelled := ctx.Err() != nil
	if walkErr != nil && !cancelled {
		log.Warn("Walk stopped: %v", walkErr)
	}

	summary := domain.IndexSummary{Indexed: p.indexed, Skipped: p.skipped, Cancelled: cancelled}
	ix.saveHistory(storeCtx, run, started, summary)

	state := domain.IndexCompleted
	if cancelled {
		state = domain.IndexCancelled
	}
	log.Info("Index %s: indexed %d, skipped %d, cancelled %t", run.folder, summary.Indexed, summary.Skipped, cancelled)
	return summary, state
}

func (ix *Indexer) saveHistory(ctx context.Context, run *IndexRun, started time.Time, summary domain.IndexSummary) {
	if ix.deps.History == nil {
		return
	}
	record := domain.IndexRunRecord{
		ID:         run.id,
		FolderPath: run.folder,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Indexed:    summary.Indexed,
		Skipped:    summary.Skipped,
		Cancelled:  summary.Cancelled,
	}
	if err := ix.deps.History.SaveRun(ctx, record); err != nil {
		ix.deps.Logger.Warn("Save run history for %s: %v", run.folder, err)
	}
}

// ==================== Index Run ====================

// Ensure IndexRun implements the interface.
var _ driving.IndexRun = (*IndexRun)(nil)

// IndexRun is a handle to one background indexing run.
type IndexRun struct {
	id     string
	folder string
	cancel context.CancelFunc
	events chan domain.IndexEvent
	done   chan struct{}

	mu      sync.RWMutex
	state   domain.IndexState
	summary domain.IndexSummary
}

func newIndexRun(id, folder string, cancel context.CancelFunc) *IndexRun {
	return &IndexRun{
		id:     id,
		folder: folder,
		cancel: cancel,
		events: make(chan domain.IndexEvent, eventBuffer),
		done:   make(chan struct{}),
		state:  domain.IndexScanning,
	}
}

// ID returns the run identifier.
func (r *IndexRun) ID() string { return r.id }

// Folder returns the root being indexed.
func (r *IndexRun) Folder() string { return r.folder }

// Events streams progress followed by exactly one completion event.
func (r *IndexRun) Events() <-chan domain.IndexEvent { return r.events }

// Cancel requests cooperative cancellation.
func (r *IndexRun) Cancel() { r.cancel() }

// Wait blocks until the run finishes.
func (r *IndexRun) Wait() domain.IndexSummary {
	<-r.done
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summary
}

// State returns the current lifecycle state.
func (r *IndexRun) State() domain.IndexState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// progress sends a message without blocking. One slot is always left free
// for the completion event. Only the run goroutine sends.
func (r *IndexRun) progress(msg string) {
	if len(r.events) >= cap(r.events)-1 {
		return
	}
	r.events <- domain.IndexEvent{Kind: domain.IndexEventProgress, Message: msg}
}

func (r *IndexRun) finish(summary domain.IndexSummary, state domain.IndexState) {
	r.mu.Lock()
	r.summary = summary
	r.state = state
	r.mu.Unlock()

	r.events <- domain.IndexEvent{Kind: domain.IndexEventDone, Summary: summary}
	close(r.events)
	close(r.done)
}
