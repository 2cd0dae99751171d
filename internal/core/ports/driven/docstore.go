package driven

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// DocumentStore persists extracted documents in a full-text index.
// Backed by SQLite FTS5.
type DocumentStore interface {
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// GetDocumentByLocation retrieves the document stored for a location.
	GetDocumentByLocation(ctx context.Context, loc domain.Location) (*domain.Document, error)

	// DeleteUnderPrefix atomically removes every document whose real path is
	// root or lies beneath it, together with their embeddings.
	// Returns the number of documents removed.
	DeleteUnderPrefix(ctx context.Context, root string) (int, error)

	// LexicalMatch runs a full-text query and returns at most limit candidates.
	// A malformed query returns an error wrapping domain.ErrInvalidInput.
	LexicalMatch(ctx context.Context, ftsQuery string, limit int) ([]domain.LexicalCandidate, error)

	// DisplayRow returns the filename, location and highlighted snippet for a
	// document. When the document does not match ftsQuery the snippet is a
	// leading excerpt of its content.
	DisplayRow(ctx context.Context, id int64, ftsQuery string, snippetTokens int) (*domain.DisplayRow, error)

	// ListDocuments returns documents whose real path lies under root.
	ListDocuments(ctx context.Context, root string) ([]domain.Document, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// EmbeddingStore persists one vector per document.
type EmbeddingStore interface {
	// InsertEmbedding stores the vector for a document.
	InsertEmbedding(ctx context.Context, docID int64, vector []float32) error

	// AllEmbeddings returns every stored vector. A blob that cannot be
	// decoded returns an error wrapping domain.ErrCorruptEmbedding.
	AllEmbeddings(ctx context.Context) ([]domain.Embedding, error)

	// CountEmbeddings returns the number of stored vectors.
	CountEmbeddings(ctx context.Context) (int, error)
}

// FolderStore persists registered indexing roots.
type FolderStore interface {
	// AddFolder registers a folder. Registering an existing path succeeds
	// and leaves the stored alias unchanged.
	AddFolder(ctx context.Context, folder domain.Folder) error

	// RemoveFolder deletes the folder and every document and embedding
	// under its path. Returns domain.ErrFolderNotFound if not registered.
	RemoveFolder(ctx context.Context, path string) error

	// GetFolder retrieves a folder by path.
	GetFolder(ctx context.Context, path string) (*domain.Folder, error)

	// ListFolders returns all registered folders ordered by path.
	ListFolders(ctx context.Context) ([]domain.Folder, error)
}

// IndexWriter batches document and embedding inserts into transactions.
// It is used by a single indexing run and is not safe for concurrent use.
type IndexWriter interface {
	// InsertDocument stores a document and returns its assigned ID.
	InsertDocument(ctx context.Context, doc domain.Document) (int64, error)

	// InsertEmbedding stores the vector for a document inserted earlier
	// through this writer.
	InsertEmbedding(ctx context.Context, docID int64, vector []float32) error

	// Commit makes all pending writes visible and starts a fresh batch.
	Commit() error

	// Rollback discards pending writes and releases the writer.
	Rollback() error

	// Close commits pending writes and releases the writer.
	Close() error
}

// IndexWriterFactory opens index writers.
type IndexWriterFactory interface {
	// BeginWrite opens a writer.
	BeginWrite(ctx context.Context) (IndexWriter, error)
}

// RunHistoryStore records finished indexing runs.
type RunHistoryStore interface {
	// SaveRun stores a finished run.
	SaveRun(ctx context.Context, run domain.IndexRunRecord) error

	// LastRun returns the most recent run for a folder.
	// Returns domain.ErrNotFound if the folder was never indexed.
	LastRun(ctx context.Context, folderPath string) (*domain.IndexRunRecord, error)
}
