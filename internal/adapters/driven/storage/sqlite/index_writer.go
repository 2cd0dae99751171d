package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// writerFactory implements driven.IndexWriterFactory.
type writerFactory struct {
	store *Store
}

var _ driven.IndexWriterFactory = (*writerFactory)(nil)

// BeginWrite opens a writer. The first transaction starts lazily on the
// first insert so an idle writer holds no lock.
func (f *writerFactory) BeginWrite(ctx context.Context) (driven.IndexWriter, error) {
	if err := f.store.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("opening index writer: %w", err)
	}
	return &indexWriter{store: f.store}, nil
}

// indexWriter implements driven.IndexWriter over one open transaction.
type indexWriter struct {
	store  *Store
	tx     *sql.Tx
	closed bool
}

var _ driven.IndexWriter = (*indexWriter)(nil)

// InsertDocument stores a document and returns its rowid.
func (w *indexWriter) InsertDocument(ctx context.Context, doc domain.Document) (int64, error) {
	tx, err := w.begin(ctx)
	if err != nil {
		return 0, err
	}

	filename := doc.Filename
	if filename == "" {
		filename = doc.Location.Filename()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (filename, path, content) VALUES (?, ?, ?)
	`, filename, doc.Location.String(), doc.Content)
	if err != nil {
		return 0, fmt.Errorf("saving document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saving document: %w", err)
	}
	return id, nil
}

// InsertEmbedding stores the vector for a document in the same transaction.
func (w *indexWriter) InsertEmbedding(ctx context.Context, docID int64, vector []float32) error {
	tx, err := w.begin(ctx)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (doc_id, vector) VALUES (?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET vector = excluded.vector
	`, docID, EncodeVector(vector))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// Commit makes pending writes visible.
func (w *indexWriter) Commit() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index batch: %w", err)
	}
	return nil
}

// Rollback discards pending writes and closes the writer.
func (w *indexWriter) Rollback() error {
	w.closed = true
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back index batch: %w", err)
	}
	return nil
}

// Close commits pending writes and closes the writer.
func (w *indexWriter) Close() error {
	err := w.Commit()
	w.closed = true
	return err
}

func (w *indexWriter) begin(ctx context.Context) (*sql.Tx, error) {
	if w.closed {
		return nil, domain.ErrStoreClosed
	}
	if w.tx != nil {
		return w.tx, nil
	}
	tx, err := w.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning index batch: %w", err)
	}
	w.tx = tx
	return tx, nil
}
