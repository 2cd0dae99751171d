package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.FolderWatcher = (*Watcher)(nil)

// DefaultDebounce is the quiet period before a batch of changes is emitted.
const DefaultDebounce = 2 * time.Second

// Watcher reports file changes under registered folders using fsnotify.
// Hidden files and directories are ignored.
type Watcher struct {
	debounce time.Duration
	logger   *logger.Logger
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration, log *logger.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{debounce: debounce, logger: log}
}

// Watch starts watching roots recursively. Batches are emitted once no
// change arrived for the debounce period. The channel closes when ctx is done.
func (w *Watcher) Watch(ctx context.Context, roots []string) (<-chan []domain.FileChange, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		root = domain.TrimTrailingSeparator(filepath.Clean(root))
		info, err := os.Stat(root)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("root path error: %w", err)
		}
		if !info.IsDir() {
			fw.Close()
			return nil, fmt.Errorf("root path error: %w: %s", domain.ErrNotADirectory, root)
		}
		if err := w.addRecursive(fw, root); err != nil {
			fw.Close()
			return nil, err
		}
		cleaned = append(cleaned, root)
	}

	out := make(chan []domain.FileChange, 1)
	go w.loop(ctx, fw, cleaned, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, roots []string, out chan<- []domain.FileChange) {
	defer close(out)
	defer fw.Close()

	pending := make(map[string]domain.FileChange)
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			change := w.handleFsEvent(fw, event, roots)
			if change == nil {
				continue
			}
			// A write right after a create is still a new file.
			prev, seen := pending[change.Path]
			if !seen || prev.Type != domain.ChangeCreated || change.Type != domain.ChangeUpdated {
				pending[change.Path] = *change
			}
			flush = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)

		case <-flush:
			flush = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]domain.FileChange, 0, len(pending))
			for _, c := range pending {
				batch = append(batch, c)
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			pending = make(map[string]domain.FileChange)

			select {
			case out <- batch:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is irrelevant. New directories are added to the watch.
func (w *Watcher) handleFsEvent(fw *fsnotify.Watcher, event fsnotify.Event, roots []string) *domain.FileChange {
	if isHidden(event.Name) {
		return nil
	}
	root := owningRoot(event.Name, roots)
	if root == "" {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if fw != nil {
				if err := w.addRecursive(fw, event.Name); err != nil {
					w.logger.Debug("Watch new directory %s: %v", event.Name, err)
				}
			}
		}
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		changeType = domain.ChangeDeleted
	default:
		return nil
	}

	return &domain.FileChange{Type: changeType, Path: event.Name, Folder: root}
}

// addRecursive watches dir and every non-hidden directory beneath it.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// owningRoot returns the most specific root containing path.
func owningRoot(path string, roots []string) string {
	best := ""
	for _, r := range roots {
		if domain.PathIsUnder(path, r) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
