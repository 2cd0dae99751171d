package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore      = (*Store)(nil)
	_ driven.EmbeddingStore     = (*Store)(nil)
	_ driven.FolderStore        = (*Store)(nil)
	_ driven.IndexWriterFactory = (*Store)(nil)
	_ driven.RunHistoryStore    = (*Store)(nil)
)

// Store is an in-memory index for testing. It understands the subset of the
// FTS5 query language produced by the search service: quoted prefix terms
// joined with OR.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	documents  map[int64]domain.Document
	embeddings map[int64][]float32
	folders    map[string]domain.Folder
	runs       []domain.IndexRunRecord

	// EmbeddingsErr, when set, is returned by AllEmbeddings.
	EmbeddingsErr error
}

// NewStore creates an empty in-memory index.
func NewStore() *Store {
	return &Store{
		documents:  make(map[int64]domain.Document),
		embeddings: make(map[int64][]float32),
		folders:    make(map[string]domain.Folder),
	}
}

// ==================== Document Store ====================

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByLocation retrieves the document stored for a location.
func (s *Store) GetDocumentByLocation(_ context.Context, loc domain.Location) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sortedIDs() {
		if s.documents[id].Location == loc {
			doc := s.documents[id]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteUnderPrefix removes documents and embeddings under root.
func (s *Store) DeleteUnderPrefix(_ context.Context, root string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUnder(root), nil
}

// LexicalMatch evaluates an OR of quoted prefix terms.
func (s *Store) LexicalMatch(_ context.Context, ftsQuery string, limit int) ([]domain.LexicalCandidate, error) {
	terms, err := parsePrefixQuery(ftsQuery)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.LexicalCandidate
	for _, id := range s.sortedIDs() {
		if limit > 0 && len(out) >= limit {
			break
		}
		doc := s.documents[id]
		if matchesAny(doc, terms) {
			out = append(out, domain.LexicalCandidate{DocID: id, Filename: doc.Filename, Content: doc.Content})
		}
	}
	return out, nil
}

// DisplayRow returns display data with matched words wrapped in <b> tags.
func (s *Store) DisplayRow(_ context.Context, id int64, ftsQuery string, snippetTokens int) (*domain.DisplayRow, error) {
	s.mu.RLock()
	doc, ok := s.documents[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if snippetTokens <= 0 {
		snippetTokens = 15
	}

	terms, _ := parsePrefixQuery(ftsQuery)
	words := strings.Fields(doc.Content)
	start := -1
	for i, w := range words {
		if wordMatches(w, terms) {
			start = i
			break
		}
	}

	var snippet string
	if start < 0 {
		snippet = strings.Join(words[:min(len(words), snippetTokens)], " ")
		if len(words) > snippetTokens {
			snippet += "..."
		}
	} else {
		end := min(len(words), start+snippetTokens)
		window := make([]string, 0, end-start)
		for _, w := range words[start:end] {
			if wordMatches(w, terms) {
				w = "<b>" + w + "</b>"
			}
			window = append(window, w)
		}
		snippet = strings.Join(window, " ")
		if start > 0 {
			snippet = "..." + snippet
		}
		if end < len(words) {
			snippet += "..."
		}
	}

	return &domain.DisplayRow{Filename: doc.Filename, Location: doc.Location, Snippet: snippet}, nil
}

// ListDocuments returns documents under root, or all when root is empty.
func (s *Store) ListDocuments(_ context.Context, root string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Document
	for _, id := range s.sortedIDs() {
		doc := s.documents[id]
		if root == "" || doc.Location.IsUnder(root) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// ==================== Embedding Store ====================

// InsertEmbedding stores the vector for a document.
func (s *Store) InsertEmbedding(_ context.Context, docID int64, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[docID] = append([]float32(nil), vector...)
	return nil
}

// AllEmbeddings returns every stored vector ordered by doc id.
func (s *Store) AllEmbeddings(_ context.Context) ([]domain.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EmbeddingsErr != nil {
		return nil, s.EmbeddingsErr
	}
	ids := make([]int64, 0, len(s.embeddings))
	for id := range s.embeddings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Embedding, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Embedding{DocID: id, Vector: append([]float32(nil), s.embeddings[id]...)})
	}
	return out, nil
}

// CountEmbeddings returns the number of stored vectors.
func (s *Store) CountEmbeddings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}

// ==================== Folder Store ====================

// AddFolder registers a folder. Existing paths are left untouched.
func (s *Store) AddFolder(_ context.Context, folder domain.Folder) error {
	if folder.Path == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.folders[folder.Path]; exists {
		return nil
	}
	if folder.Alias == "" {
		folder = domain.NewFolder(folder.Path)
	}
	s.folders[folder.Path] = folder
	return nil
}

// RemoveFolder deletes the folder and its documents.
func (s *Store) RemoveFolder(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.folders[path]; !exists {
		return domain.ErrFolderNotFound
	}
	delete(s.folders, path)
	s.deleteUnder(path)
	return nil
}

// GetFolder retrieves a folder by path.
func (s *Store) GetFolder(_ context.Context, path string) (*domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[path]
	if !ok {
		return nil, domain.ErrFolderNotFound
	}
	return &f, nil
}

// ListFolders returns all folders ordered by path.
func (s *Store) ListFolders(_ context.Context) ([]domain.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ==================== Run History ====================

// SaveRun stores a finished run.
func (s *Store) SaveRun(_ context.Context, run domain.IndexRunRecord) error {
	if run.ID == "" || run.FolderPath == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// LastRun returns the most recently saved run for a folder.
func (s *Store) LastRun(_ context.Context, folderPath string) (*domain.IndexRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.runs) - 1; i >= 0; i-- {
		if s.runs[i].FolderPath == folderPath {
			run := s.runs[i]
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ==================== Index Writer ====================

// BeginWrite opens a writer that buffers inserts until Commit.
func (s *Store) BeginWrite(_ context.Context) (driven.IndexWriter, error) {
	return &indexWriter{store: s}, nil
}

type pendingDoc struct {
	id  int64
	doc domain.Document
}

type pendingVec struct {
	id  int64
	vec []float32
}

// indexWriter buffers writes so uncommitted documents stay invisible.
type indexWriter struct {
	store  *Store
	docs   []pendingDoc
	vecs   []pendingVec
	closed bool
}

func (w *indexWriter) InsertDocument(_ context.Context, doc domain.Document) (int64, error) {
	if w.closed {
		return 0, domain.ErrStoreClosed
	}
	w.store.mu.Lock()
	w.store.nextID++
	id := w.store.nextID
	w.store.mu.Unlock()

	doc.ID = id
	if doc.Filename == "" {
		doc.Filename = doc.Location.Filename()
	}
	w.docs = append(w.docs, pendingDoc{id: id, doc: doc})
	return id, nil
}

func (w *indexWriter) InsertEmbedding(_ context.Context, docID int64, vector []float32) error {
	if w.closed {
		return domain.ErrStoreClosed
	}
	w.vecs = append(w.vecs, pendingVec{id: docID, vec: append([]float32(nil), vector...)})
	return nil
}

func (w *indexWriter) Commit() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	for _, p := range w.docs {
		w.store.documents[p.id] = p.doc
	}
	for _, p := range w.vecs {
		w.store.embeddings[p.id] = p.vec
	}
	w.docs, w.vecs = nil, nil
	return nil
}

func (w *indexWriter) Rollback() error {
	w.docs, w.vecs = nil, nil
	w.closed = true
	return nil
}

func (w *indexWriter) Close() error {
	err := w.Commit()
	w.closed = true
	return err
}

// ==================== Helpers ====================

// deleteUnder removes documents under root. Caller must hold the lock.
func (s *Store) deleteUnder(root string) int {
	n := 0
	for id, doc := range s.documents {
		if doc.Location.IsUnder(root) {
			delete(s.documents, id)
			delete(s.embeddings, id)
			n++
		}
	}
	return n
}

// sortedIDs returns document IDs ascending. Caller must hold the lock.
func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// parsePrefixQuery accepts `"a"* OR "b"*` and returns lower-cased terms.
func parsePrefixQuery(q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if strings.Count(q, `"`)%2 != 0 {
		return nil, fmt.Errorf("%w: unterminated string in %q", domain.ErrInvalidInput, q)
	}
	var terms []string
	for _, part := range strings.Split(q, " OR ") {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(part, "*")
		part = strings.Trim(part, `"`)
		if part == "" {
			return nil, fmt.Errorf("%w: empty term in %q", domain.ErrInvalidInput, q)
		}
		terms = append(terms, strings.ToLower(part))
	}
	return terms, nil
}

func matchesAny(doc domain.Document, terms []string) bool {
	for _, field := range []string{doc.Filename, doc.Location.String(), doc.Content} {
		for _, tok := range tokenize(field) {
			for _, term := range terms {
				if strings.HasPrefix(tok, term) {
					return true
				}
			}
		}
	}
	return false
}

func wordMatches(word string, terms []string) bool {
	for _, tok := range tokenize(word) {
		for _, term := range terms {
			if strings.HasPrefix(tok, term) {
				return true
			}
		}
	}
	return false
}

// tokenize splits like the FTS5 unicode61 tokenizer: letters and digits form
// tokens, everything else separates them.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
