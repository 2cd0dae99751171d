package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes indexed documents and index counters.
type DocumentService struct {
	docStore   driven.DocumentStore
	embedStore driven.EmbeddingStore
	folders    driven.FolderStore
	history    driven.RunHistoryStore
	opener     driven.FileOpener
}

// NewDocumentService creates a new document service. history and opener
// may be nil.
func NewDocumentService(
	docStore driven.DocumentStore,
	embedStore driven.EmbeddingStore,
	folders driven.FolderStore,
	history driven.RunHistoryStore,
	opener driven.FileOpener,
) *DocumentService {
	return &DocumentService{
		docStore:   docStore,
		embedStore: embedStore,
		folders:    folders,
		history:    history,
		opener:     opener,
	}
}

// Get retrieves a document by its location string, either a path or
// "<archive> :: <entry>".
func (s *DocumentService) Get(ctx context.Context, location string) (*domain.Document, error) {
	loc, err := domain.ParseLocation(location)
	if err != nil {
		return nil, err
	}
	return s.docStore.GetDocumentByLocation(ctx, loc)
}

// Open opens the real file behind a location. Archive members open their
// containing archive.
func (s *DocumentService) Open(ctx context.Context, location string) error {
	if s.opener == nil {
		return domain.ErrNotImplemented
	}
	loc, err := domain.ParseLocation(location)
	if err != nil {
		return err
	}
	return s.opener.Open(ctx, loc.RealPath())
}

// Stats returns document, embedding and folder counters with the last run
// of each folder.
func (s *DocumentService) Stats(ctx context.Context) (*driving.IndexStats, error) {
	docs, err := s.docStore.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	vecs, err := s.embedStore.CountEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("count embeddings: %w", err)
	}
	folders, err := s.folders.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	stats := &driving.IndexStats{
		Documents:  docs,
		Embeddings: vecs,
		Folders:    make([]driving.FolderStats, 0, len(folders)),
	}
	for _, f := range folders {
		fs := driving.FolderStats{Folder: f}
		if s.history != nil {
			run, err := s.history.LastRun(ctx, f.Path)
			switch {
			case err == nil:
				fs.LastRun = run
			case !errors.Is(err, domain.ErrNotFound):
				return nil, fmt.Errorf("last run for %s: %w", f.Path, err)
			}
		}
		stats.Folders = append(stats.Folders, fs)
	}
	return stats, nil
}
