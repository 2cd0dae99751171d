package driven

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// FolderWalker enumerates the regular files under a registered folder.
type FolderWalker interface {
	// Walk calls fn for every regular file under root, in lexical order per
	// directory. The context is checked before each directory is read; when
	// it is done Walk stops and returns ctx.Err(). An error returned by fn
	// also stops the walk and is returned unchanged. Unreadable
	// subdirectories are reported through onSkip and otherwise ignored.
	Walk(ctx context.Context, root string, fn func(path string) error, onSkip func(path string, err error)) error
}

// FolderWatcher reports file changes under registered folders.
type FolderWatcher interface {
	// Watch starts watching roots recursively. Changes are delivered in
	// debounced batches until ctx is done, after which the channel closes.
	Watch(ctx context.Context, roots []string) (<-chan []domain.FileChange, error)
}
