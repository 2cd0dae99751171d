package driving

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// DocumentService exposes indexed documents.
type DocumentService interface {
	// Get retrieves a document by its location string.
	Get(ctx context.Context, location string) (*domain.Document, error)

	// Open opens the real file behind a location in the default application.
	Open(ctx context.Context, location string) error

	// Stats returns index counters.
	Stats(ctx context.Context) (*IndexStats, error)
}

// IndexStats summarises the persisted index.
type IndexStats struct {
	Documents  int
	Embeddings int
	Folders    []FolderStats
}

// FolderStats describes one registered folder.
type FolderStats struct {
	Folder  domain.Folder
	LastRun *domain.IndexRunRecord
}
