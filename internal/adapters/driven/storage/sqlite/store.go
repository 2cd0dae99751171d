package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "index.db"

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-desk/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-desk", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL lets searches read while an indexing run holds a write transaction.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// EmbeddingStore returns an EmbeddingStore interface backed by this store.
func (s *Store) EmbeddingStore() driven.EmbeddingStore {
	return &embeddingStore{store: s}
}

// FolderStore returns a FolderStore interface backed by this store.
func (s *Store) FolderStore() driven.FolderStore {
	return &folderStore{store: s}
}

// RunHistoryStore returns a RunHistoryStore interface backed by this store.
func (s *Store) RunHistoryStore() driven.RunHistoryStore {
	return &runHistoryStore{store: s}
}

// IndexWriterFactory returns an IndexWriterFactory backed by this store.
func (s *Store) IndexWriterFactory() driven.IndexWriterFactory {
	return &writerFactory{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT rowid, filename, path, content FROM documents WHERE rowid = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByLocation retrieves the document stored for a location.
func (s *documentStore) GetDocumentByLocation(ctx context.Context, loc domain.Location) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT rowid, filename, path, content FROM documents WHERE path = ? LIMIT 1
	`, loc.String())

	return scanDocument(row)
}

// DeleteUnderPrefix removes documents and embeddings under root in one transaction.
func (s *documentStore) DeleteUnderPrefix(ctx context.Context, root string) (int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := deleteUnderPrefix(ctx, tx, root)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return n, nil
}

// LexicalMatch runs an FTS5 MATCH query ordered by bm25 rank.
func (s *documentStore) LexicalMatch(ctx context.Context, ftsQuery string, limit int) ([]domain.LexicalCandidate, error) {
	if strings.TrimSpace(ftsQuery) == "" {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT rowid, filename, content FROM documents
		WHERE documents MATCH ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, classifyMatchError(err)
	}
	defer rows.Close()

	var candidates []domain.LexicalCandidate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.LexicalCandidate
		if err := rows.Scan(&c.DocID, &c.Filename, &c.Content); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyMatchError(err)
	}

	return candidates, nil
}

// DisplayRow returns display data with an FTS5 snippet, or a leading excerpt
// when the document does not match ftsQuery.
func (s *documentStore) DisplayRow(ctx context.Context, id int64, ftsQuery string, snippetTokens int) (*domain.DisplayRow, error) {
	if snippetTokens <= 0 {
		snippetTokens = 15
	}

	if strings.TrimSpace(ftsQuery) != "" {
		var filename, path string
		var snippet sql.NullString
		query := fmt.Sprintf(`
			SELECT filename, path, snippet(documents, 2, '<b>', '</b>', '...', %d)
			FROM documents WHERE documents MATCH ? AND rowid = ?
		`, snippetTokens)
		err := s.store.db.QueryRowContext(ctx, query, ftsQuery, id).Scan(&filename, &path, &snippet)
		if err == nil && strings.TrimSpace(snippet.String) != "" {
			return newDisplayRow(filename, path, snippet.String), nil
		}
	}

	var filename, path, content string
	err := s.store.db.QueryRowContext(ctx, `
		SELECT filename, path, content FROM documents WHERE rowid = ?
	`, id).Scan(&filename, &path, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying display row: %w", err)
	}

	return newDisplayRow(filename, path, leadingExcerpt(content, snippetTokens)), nil
}

// ListDocuments returns documents whose real path lies under root.
// An empty root lists every document.
func (s *documentStore) ListDocuments(ctx context.Context, root string) ([]domain.Document, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if root == "" {
		rows, err = s.store.db.QueryContext(ctx, `
			SELECT rowid, filename, path, content FROM documents ORDER BY path
		`)
	} else {
		where, args := prefixCondition(root)
		rows, err = s.store.db.QueryContext(ctx,
			"SELECT rowid, filename, path, content FROM documents WHERE "+where+" ORDER BY path", args...)
	}
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (s *documentStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// ==================== Embedding Store ====================

// embeddingStore implements driven.EmbeddingStore.
type embeddingStore struct {
	store *Store
}

var _ driven.EmbeddingStore = (*embeddingStore)(nil)

// InsertEmbedding stores the vector for a document.
func (s *embeddingStore) InsertEmbedding(ctx context.Context, docID int64, vector []float32) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (doc_id, vector) VALUES (?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET vector = excluded.vector
	`, docID, EncodeVector(vector))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// AllEmbeddings returns every stored vector ordered by doc id.
func (s *embeddingStore) AllEmbeddings(ctx context.Context) ([]domain.Embedding, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT doc_id, vector FROM embeddings ORDER BY doc_id")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.Embedding //nolint:prealloc // size unknown from query
	for rows.Next() {
		var docID int64
		var blob []byte
		if err := rows.Scan(&docID, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for doc %d: %w", docID, err)
		}
		out = append(out, domain.Embedding{DocID: docID, Vector: vec})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return out, nil
}

// CountEmbeddings returns the number of stored vectors.
func (s *embeddingStore) CountEmbeddings(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// ==================== Folder Store ====================

// folderStore implements driven.FolderStore.
type folderStore struct {
	store *Store
}

var _ driven.FolderStore = (*folderStore)(nil)

// AddFolder registers a folder. Existing paths are left untouched.
func (s *folderStore) AddFolder(ctx context.Context, folder domain.Folder) error {
	if folder.Path == "" {
		return domain.ErrInvalidInput
	}
	alias := folder.Alias
	if alias == "" {
		alias = filepath.Base(folder.Path)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO folders (path, alias) VALUES (?, ?)
		ON CONFLICT(path) DO NOTHING
	`, folder.Path, alias)
	if err != nil {
		return fmt.Errorf("saving folder: %w", err)
	}
	return nil
}

// RemoveFolder deletes the folder row and cascades to its documents.
func (s *folderStore) RemoveFolder(ctx context.Context, path string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting folder: %w", err)
	}
	if affected == 0 {
		return domain.ErrFolderNotFound
	}

	if _, err := deleteUnderPrefix(ctx, tx, path); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetFolder retrieves a folder by path.
func (s *folderStore) GetFolder(ctx context.Context, path string) (*domain.Folder, error) {
	var f domain.Folder
	err := s.store.db.QueryRowContext(ctx, "SELECT path, alias FROM folders WHERE path = ?", path).
		Scan(&f.Path, &f.Alias)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFolderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying folder: %w", err)
	}
	return &f, nil
}

// ListFolders returns all registered folders ordered by path.
func (s *folderStore) ListFolders(ctx context.Context) ([]domain.Folder, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT path, alias FROM folders ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.Path, &f.Alias); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}

	return folders, nil
}

// ==================== Helper Functions ====================

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// deleteUnderPrefix removes embeddings first, then documents, under root.
func deleteUnderPrefix(ctx context.Context, ex execer, root string) (int, error) {
	where, args := prefixCondition(root)

	if _, err := ex.ExecContext(ctx,
		"DELETE FROM embeddings WHERE doc_id IN (SELECT rowid FROM documents WHERE "+where+")", args...); err != nil {
		return 0, fmt.Errorf("deleting embeddings: %w", err)
	}

	res, err := ex.ExecContext(ctx, "DELETE FROM documents WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting documents: %w", err)
	}
	return int(n), nil
}

// prefixCondition builds a case-sensitive, boundary-aware path filter.
// A path matches when it equals root, starts with root plus a separator, or
// is a member of an archive located at root.
func prefixCondition(root string) (string, []any) {
	root = domain.TrimTrailingSeparator(root)
	dirPrefix := root
	if !strings.HasSuffix(dirPrefix, string(filepath.Separator)) {
		dirPrefix += string(filepath.Separator)
	}
	archivePrefix := root + domain.ArchiveSeparator

	where := "(path = ? OR substr(path, 1, length(?)) = ? OR substr(path, 1, length(?)) = ?)"
	return where, []any{root, dirPrefix, dirPrefix, archivePrefix, archivePrefix}
}

// classifyMatchError maps FTS5 query syntax failures to ErrInvalidInput.
func classifyMatchError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "fts5") || strings.Contains(msg, "syntax error") ||
		strings.Contains(msg, "no such column") || strings.Contains(msg, "unterminated string") {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("matching documents: %w", err)
}

// leadingExcerpt returns the first n words of content, with an ellipsis
// when content was cut.
func leadingExcerpt(content string, n int) string {
	words := strings.Fields(content)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}

func newDisplayRow(filename, path, snippet string) *domain.DisplayRow {
	loc, err := domain.ParseLocation(path)
	if err != nil {
		loc = domain.DirectLocation(path)
	}
	return &domain.DisplayRow{
		Filename: filename,
		Location: loc,
		Snippet:  snippet,
	}
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var path string

	if err := row.Scan(&doc.ID, &doc.Filename, &path, &doc.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Location = parseStoredLocation(path)
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var path string

	if err := rows.Scan(&doc.ID, &doc.Filename, &path, &doc.Content); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Location = parseStoredLocation(path)
	return &doc, nil
}

func parseStoredLocation(path string) domain.Location {
	loc, err := domain.ParseLocation(path)
	if err != nil {
		return domain.DirectLocation(path)
	}
	return loc
}
