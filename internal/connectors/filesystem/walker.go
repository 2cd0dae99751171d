package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// Ensure Walker implements the interface.
var _ driven.FolderWalker = (*Walker)(nil)

// Walker enumerates regular files top-down. The files of a directory are
// visited before its subdirectories, each in lexical order. Symlinks to
// regular files are followed, symlinked directories are not.
type Walker struct{}

// NewWalker creates a new walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk calls fn for every regular file under root.
func (w *Walker) Walk(
	ctx context.Context,
	root string,
	fn func(path string) error,
	onSkip func(path string, err error),
) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %w: %s", domain.ErrNotADirectory, root)
	}
	return w.walkDir(ctx, root, fn, onSkip)
}

func (w *Walker) walkDir(
	ctx context.Context,
	dir string,
	fn func(path string) error,
	onSkip func(path string, err error),
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if onSkip != nil {
			onSkip(dir, err)
		}
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			subdirs = append(subdirs, full)
		case entry.Type().IsRegular():
			if err := fn(full); err != nil {
				return err
			}
		case entry.Type()&fs.ModeSymlink != 0:
			target, err := os.Stat(full)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
			if err := fn(full); err != nil {
				return err
			}
		}
	}

	for _, sub := range subdirs {
		if err := w.walkDir(ctx, sub, fn, onSkip); err != nil {
			return err
		}
	}
	return nil
}
