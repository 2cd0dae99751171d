package driving

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// FolderService manages registered indexing roots.
type FolderService interface {
	// Add registers a directory. Adding an already registered path succeeds.
	Add(ctx context.Context, path string) (*domain.Folder, error)

	// Remove unregisters a folder and deletes its indexed data.
	Remove(ctx context.Context, path string) error

	// List returns all registered folders.
	List(ctx context.Context) ([]domain.Folder, error)
}
