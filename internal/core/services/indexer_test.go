package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-desk/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/extractors"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// gatedWalker holds every walk until gate is closed.
type gatedWalker struct {
	inner driven.FolderWalker
	gate  chan struct{}
}

func (g *gatedWalker) Walk(ctx context.Context, root string, fn func(string) error, onSkip func(string, error)) error {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.inner.Walk(ctx, root, fn, onSkip)
}

// cancellingWalker cancels the run after a number of files were handed over.
type cancellingWalker struct {
	inner  driven.FolderWalker
	after  int
	cancel context.CancelFunc
}

func (c *cancellingWalker) Walk(ctx context.Context, root string, fn func(string) error, onSkip func(string, error)) error {
	seen := 0
	return c.inner.Walk(ctx, root, func(path string) error {
		if err := fn(path); err != nil {
			return err
		}
		seen++
		if seen == c.after {
			c.cancel()
		}
		return nil
	}, onSkip)
}

type indexerFixture struct {
	store    *memory.Store
	embedder *mockEmbeddingService
	indexer  *Indexer
}

func newIndexerFixture(t *testing.T, walker driven.FolderWalker, settings domain.IndexSettings) *indexerFixture {
	t.Helper()
	store := memory.NewStore()
	embedder := newMockEmbedder("hello", "world", "test")
	if walker == nil {
		walker = filesystem.NewWalker()
	}
	ix := NewIndexer(IndexerDeps{
		Folders:    store,
		Documents:  store,
		Writers:    store,
		History:    store,
		Walker:     walker,
		Extractors: extractors.NewDefaultRegistry(logger.Nop(), nil),
		Embedder:   embedder,
		Settings:   settings,
		Logger:     logger.Nop(),
	})
	return &indexerFixture{store: store, embedder: embedder, indexer: ix}
}

func (f *indexerFixture) register(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, f.store.AddFolder(context.Background(), domain.NewFolder(root)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func runIndex(t *testing.T, f *indexerFixture, root string) (domain.IndexSummary, []domain.IndexEvent) {
	t.Helper()
	run, err := f.indexer.Start(context.Background(), root)
	require.NoError(t, err)
	var events []domain.IndexEvent
	for ev := range run.Events() {
		events = append(events, ev)
	}
	return run.Wait(), events
}

func documents(t *testing.T, store *memory.Store, root string) []domain.Document {
	t.Helper()
	docs, err := store.ListDocuments(context.Background(), root)
	require.NoError(t, err)
	return docs
}

func TestIndexer_IndexesNoteAndFindsIt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, domain.IndexSummary{Indexed: 1, Skipped: 0}, summary)
	n, _ := f.store.CountEmbeddings(context.Background())
	assert.Equal(t, 1, n)

	search := NewSearchService(f.store, f.store, f.embedder, domain.DefaultFusionSettings(), logger.Nop())
	results, err := search.Search(context.Background(), "hello", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "notes.txt", results[0].Filename)
}

func TestIndexer_WhitespaceFileIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "empty.txt"), "  ")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, 0, summary.Indexed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, documents(t, f.store, root))
}

func TestIndexer_MinimumContentLength(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "exact.txt"), "  "+strings.Repeat("x", 20)+"\n")
	writeFile(t, filepath.Join(root, "longer.txt"), strings.Repeat("y", 21))
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Skipped)
	for _, doc := range documents(t, f.store, root) {
		assert.Greater(t, len([]rune(strings.TrimSpace(doc.Content))), 20)
	}
}

func TestIndexer_UnsupportedAndUnreadableFilesAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "image.bin"), "binary content that nobody extracts")
	writeFile(t, filepath.Join(root, "good.txt"), "hello world, this is a test document")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestIndexer_ZipEntriesUseArchiveLocations(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "bundle.zip")
	writeFile(t, zipPath, string(zipBytes(t, map[string][]byte{
		"inner.txt":        []byte("hello world from inside the archive"),
		"docs/nested.md":   []byte("# Title\n\nmarkdown text stored in a folder of the archive"),
		"tiny.txt":         []byte("short"),
		"unsupported.bin":  []byte("binary content that nobody extracts"),
		"folder/":          nil,
		"docs/another.txt": []byte("another document with enough content"),
	})))
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, 3, summary.Indexed)
	assert.Equal(t, 0, summary.Skipped, "short or unsupported archive entries are not counted")

	doc, err := f.store.GetDocumentByLocation(context.Background(), domain.ArchiveLocation(zipPath, "inner.txt"))
	require.NoError(t, err)
	assert.Equal(t, zipPath+" :: inner.txt", doc.Location.String())
	assert.Equal(t, "inner.txt", doc.Filename)

	nested, err := f.store.GetDocumentByLocation(context.Background(), domain.ArchiveLocation(zipPath, "docs/nested.md"))
	require.NoError(t, err)
	assert.Equal(t, "nested.md", nested.Filename)
	assert.Equal(t, zipPath, nested.Location.RealPath())
}

func TestIndexer_CorruptZipCountsOneSkip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.zip"), "PK this is not really a zip archive")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, domain.IndexSummary{Indexed: 0, Skipped: 1}, summary)
}

func TestIndexer_ArchiveDepth(t *testing.T) {
	inner := zipBytes(t, map[string][]byte{"deep.txt": []byte("hello world hidden two levels down")})
	outer := zipBytes(t, map[string][]byte{"inner.zip": inner})

	t.Run("default depth does not open nested archives", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "outer.zip"), string(outer))
		f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
		f.register(t, root)

		summary, _ := runIndex(t, f, root)
		assert.Equal(t, domain.IndexSummary{}, summary)
	})

	t.Run("depth two indexes nested entries", func(t *testing.T) {
		root := t.TempDir()
		outerPath := filepath.Join(root, "outer.zip")
		writeFile(t, outerPath, string(outer))
		settings := domain.DefaultIndexSettings()
		settings.ArchiveDepth = 2
		f := newIndexerFixture(t, nil, settings)
		f.register(t, root)

		summary, _ := runIndex(t, f, root)
		assert.Equal(t, 1, summary.Indexed)

		doc, err := f.store.GetDocumentByLocation(context.Background(), domain.ArchiveLocation(outerPath, "inner.zip/deep.txt"))
		require.NoError(t, err)
		assert.Equal(t, "deep.txt", doc.Filename)
	})
}

func TestIndexer_ReindexReplacesPreviousData(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.txt")
	gone := filepath.Join(root, "gone.txt")
	writeFile(t, keep, "hello world, this is a test document")
	writeFile(t, gone, "this document will be removed before the second run")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	first, _ := runIndex(t, f, root)
	require.Equal(t, 2, first.Indexed)

	require.NoError(t, os.Remove(gone))
	second, _ := runIndex(t, f, root)
	assert.Equal(t, 1, second.Indexed)

	docs := documents(t, f.store, root)
	require.Len(t, docs, 1)
	assert.Equal(t, keep, docs[0].Location.Path)
	n, _ := f.store.CountEmbeddings(context.Background())
	assert.Equal(t, 1, n)
}

func TestIndexer_EventsEndWithSingleCompletion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	writeFile(t, filepath.Join(root, "more.txt"), "hello again with some more words in it")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	summary, events := runIndex(t, f, root)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, domain.IndexEventDone, last.Kind)
	assert.Equal(t, summary, last.Summary)

	var progress []string
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, domain.IndexEventProgress, ev.Kind)
		progress = append(progress, ev.Message)
	}
	assert.Equal(t, []string{"Processing more.txt", "Processing notes.txt"}, progress)
}

func TestIndexer_ProgressNeverBlocksWithoutConsumer(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < eventBuffer*2; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("f%03d.bin", i)), "x")
	}
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	run, err := f.indexer.Start(context.Background(), root)
	require.NoError(t, err)

	summary := run.Wait()
	assert.Equal(t, eventBuffer*2, summary.Skipped+summary.Indexed)

	var last domain.IndexEvent
	for ev := range run.Events() {
		last = ev
	}
	assert.Equal(t, domain.IndexEventDone, last.Kind)
}

func TestIndexer_EmbeddingFailureKeepsDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.embedder.err = errors.New("provider offline")
	f.register(t, root)

	summary, _ := runIndex(t, f, root)

	assert.Equal(t, 1, summary.Indexed)
	docs, _ := f.store.CountDocuments(context.Background())
	vecs, _ := f.store.CountEmbeddings(context.Background())
	assert.Equal(t, 1, docs)
	assert.Zero(t, vecs)
}

func TestIndexer_NoEmbedderStoresDocumentsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	store := memory.NewStore()
	require.NoError(t, store.AddFolder(context.Background(), domain.NewFolder(root)))
	ix := NewIndexer(IndexerDeps{
		Folders:    store,
		Documents:  store,
		Writers:    store,
		Walker:     filesystem.NewWalker(),
		Extractors: extractors.NewDefaultRegistry(logger.Nop(), nil),
		Settings:   domain.DefaultIndexSettings(),
		Logger:     logger.Nop(),
	})

	summary, err := ix.IndexFolder(context.Background(), root, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	vecs, _ := store.CountEmbeddings(context.Background())
	assert.Zero(t, vecs)
}

func TestIndexer_UnregisteredFolder(t *testing.T) {
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())

	_, err := f.indexer.Start(context.Background(), t.TempDir())

	assert.ErrorIs(t, err, domain.ErrFolderNotFound)
}

func TestIndexer_OneRunPerFolderTree(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "child")
	other := t.TempDir()
	writeFile(t, filepath.Join(child, "a.txt"), "hello world, this is a test document")

	walker := &gatedWalker{inner: filesystem.NewWalker(), gate: make(chan struct{})}
	f := newIndexerFixture(t, walker, domain.DefaultIndexSettings())
	f.register(t, root)
	f.register(t, child)
	f.register(t, other)

	first, err := f.indexer.Start(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexScanning, f.indexer.Status(root))

	_, err = f.indexer.Start(context.Background(), root)
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)
	_, err = f.indexer.Start(context.Background(), child)
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)

	unrelated, err := f.indexer.Start(context.Background(), other)
	require.NoError(t, err)

	close(walker.gate)
	first.Wait()
	unrelated.Wait()

	assert.Equal(t, domain.IndexCompleted, f.indexer.Status(root))
	assert.Equal(t, domain.IndexCompleted, first.State())

	again, err := f.indexer.Start(context.Background(), child)
	require.NoError(t, err, "the lock is released when the run finishes")
	again.Wait()
}

func TestIndexer_Cancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	walker := &gatedWalker{inner: filesystem.NewWalker(), gate: make(chan struct{})}
	f := newIndexerFixture(t, walker, domain.DefaultIndexSettings())
	f.register(t, root)

	run, err := f.indexer.Start(context.Background(), root)
	require.NoError(t, err)
	run.Cancel()

	summary := run.Wait()

	assert.True(t, summary.Cancelled)
	assert.Zero(t, summary.Indexed)
	assert.Equal(t, domain.IndexCancelled, run.State())
	assert.Equal(t, domain.IndexCancelled, f.indexer.Status(root))
}

func TestIndexer_CancelMidRunKeepsProcessedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hello world, this is the first document")
	writeFile(t, filepath.Join(root, "b.txt"), "hello world, this is the second document")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "hello world, this is the third document")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	walker := &cancellingWalker{inner: filesystem.NewWalker(), after: 1, cancel: cancel}
	f := newIndexerFixture(t, walker, domain.DefaultIndexSettings())
	f.register(t, root)

	run, err := f.indexer.Start(ctx, root)
	require.NoError(t, err)
	summary := run.Wait()

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Indexed)
	docs := documents(t, f.store, root)
	require.Len(t, docs, 1, "processed files are committed")
	assert.Equal(t, "a.txt", docs[0].Filename)
}

func TestIndexer_RunHistory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.txt"), "hello world, this is a test document")
	writeFile(t, filepath.Join(root, "empty.txt"), " ")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, root)

	run, err := f.indexer.Start(context.Background(), root)
	require.NoError(t, err)
	run.Wait()

	record, err := f.store.LastRun(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, run.ID(), record.ID)
	assert.Equal(t, 1, record.Indexed)
	assert.Equal(t, 1, record.Skipped)
	assert.False(t, record.Cancelled)
	assert.False(t, record.FinishedAt.Before(record.StartedAt))
}

func TestIndexer_IndexAll(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "a.txt"), "hello world, this is a test document")
	writeFile(t, filepath.Join(second, "b.txt"), "hello world, another test document")
	writeFile(t, filepath.Join(second, "c.txt"), "")
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())
	f.register(t, first)
	f.register(t, second)

	seen := map[string]int{}
	summaries, err := f.indexer.IndexAll(context.Background(), func(folder string, ev domain.IndexEvent) {
		if ev.Kind == domain.IndexEventDone {
			seen[folder]++
		}
	})

	require.NoError(t, err)
	assert.Equal(t, domain.IndexSummary{Indexed: 1}, summaries[first])
	assert.Equal(t, domain.IndexSummary{Indexed: 1, Skipped: 1}, summaries[second])
	assert.Equal(t, map[string]int{first: 1, second: 1}, seen)
}

func TestIndexer_StatusIdleByDefault(t *testing.T) {
	f := newIndexerFixture(t, nil, domain.DefaultIndexSettings())

	assert.Equal(t, domain.IndexIdle, f.indexer.Status("/never/indexed"))
}

func TestIndexLock(t *testing.T) {
	lock := NewIndexLock()

	release, err := lock.Acquire("/data/docs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/docs"}, lock.Held())

	_, err = lock.Acquire("/data/docs/sub")
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)
	_, err = lock.Acquire("/data")
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)

	other, err := lock.Acquire("/data/docs2")
	require.NoError(t, err, "sibling with a shared string prefix does not conflict")
	other()

	release()
	release()
	assert.Empty(t, lock.Held())

	again, err := lock.Acquire("/data/docs/sub")
	require.NoError(t, err)
	again()
}
