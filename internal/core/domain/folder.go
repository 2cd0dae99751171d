package domain

import (
	"path/filepath"
	"time"
)

// Folder is a registered indexing root.
type Folder struct {
	// Path is the absolute filesystem path. It is unique.
	Path string

	// Alias is the display label, the base name of Path by default.
	Alias string
}

// NewFolder returns a folder whose alias defaults to the base name of path.
func NewFolder(path string) Folder {
	return Folder{Path: path, Alias: filepath.Base(path)}
}

// IndexRunRecord is the persisted history of a finished indexing run.
type IndexRunRecord struct {
	ID         string
	FolderPath string
	StartedAt  time.Time
	FinishedAt time.Time
	Indexed    int
	Skipped    int
	Cancelled  bool
}
