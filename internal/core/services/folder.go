package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Ensure FolderService implements the interface.
var _ driving.FolderService = (*FolderService)(nil)

// FolderService manages registered indexing roots.
type FolderService struct {
	store  driven.FolderStore
	logger *logger.Logger
}

// NewFolderService creates a new folder service.
func NewFolderService(store driven.FolderStore, log *logger.Logger) *FolderService {
	return &FolderService{store: store, logger: log}
}

// Add registers an existing directory under its absolute path. The alias
// is the directory's base name. Adding a registered path again succeeds and
// returns the stored folder.
func (s *FolderService) Add(ctx context.Context, path string) (*domain.Folder, error) {
	root, err := absFolderPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotADirectory, root)
	}

	if err := s.store.AddFolder(ctx, domain.NewFolder(root)); err != nil {
		return nil, fmt.Errorf("register folder: %w", err)
	}
	s.logger.Info("Registered folder %s", root)

	return s.store.GetFolder(ctx, root)
}

// Remove unregisters a folder and deletes every document and embedding
// stored under it. The directory itself need not exist any more.
func (s *FolderService) Remove(ctx context.Context, path string) error {
	root, err := absFolderPath(path)
	if err != nil {
		return err
	}
	if err := s.store.RemoveFolder(ctx, root); err != nil {
		return fmt.Errorf("remove folder %s: %w", root, err)
	}
	s.logger.Info("Removed folder %s", root)
	return nil
}

// List returns all registered folders ordered by path.
func (s *FolderService) List(ctx context.Context) ([]domain.Folder, error) {
	return s.store.ListFolders(ctx)
}

func absFolderPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty folder path", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return cleanRoot(abs), nil
}
