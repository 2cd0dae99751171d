package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

const (
	// maxFileBytes is the largest file or archive entry read into memory.
	maxFileBytes = 256 << 20

	// flushInterval commits a partial batch so long runs become searchable.
	flushInterval = 2 * time.Second
)

// pendingDocument is a document waiting for the next batch write.
type pendingDocument struct {
	doc    domain.Document
	input  string
	vector []float32
}

// pipeline indexes files for one run through a single writer.
// It is used only by the run goroutine.
type pipeline struct {
	storeCtx   context.Context
	writer     driven.IndexWriter
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingService
	settings   domain.IndexSettings
	log        *logger.Logger

	pending   []pendingDocument
	lastFlush time.Time

	indexed int
	skipped int
}

// indexPath handles one file found by the walker.
func (p *pipeline) indexPath(ctx context.Context, filePath string) {
	name := filepath.Base(filePath)
	if isArchive(name) {
		p.indexArchive(ctx, filePath)
		return
	}
	if !p.extractors.Supports(name) {
		p.log.Debug("Unsupported file %s", filePath)
		p.skipped++
		return
	}

	data, err := readFileLimited(filePath)
	if err != nil {
		p.log.Debug("Read %s: %v", filePath, err)
		p.skipped++
		return
	}

	text := p.extractors.Extract(ctx, data, name)
	if !p.persist(domain.DirectLocation(filePath), text) {
		p.skipped++
	}
}

// indexArchive indexes every entry of a zip file. An archive that cannot
// be opened counts as one skip.
func (p *pipeline) indexArchive(ctx context.Context, archivePath string) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		p.log.Debug("Open archive %s: %v", archivePath, err)
		p.skipped++
		return
	}
	defer zr.Close()

	p.indexEntries(ctx, &zr.Reader, archivePath, "", 1)
}

// indexEntries walks the entries of an archive at the given nesting depth.
// Entries of nested archives are addressed as "<outer entry>/<inner entry>".
// Entries that yield too little text are dropped without counting a skip.
func (p *pipeline) indexEntries(ctx context.Context, zr *zip.Reader, archivePath, prefix string, depth int) {
	for _, f := range zr.File {
		if ctx.Err() != nil {
			return
		}
		if f.FileInfo().IsDir() {
			continue
		}

		entry := f.Name
		if prefix != "" {
			entry = path.Join(prefix, f.Name)
		}

		data, err := readZipEntry(f)
		if err != nil {
			p.log.Debug("Read %s :: %s: %v", archivePath, entry, err)
			p.skipped++
			continue
		}

		if isArchive(f.Name) && depth < p.settings.ArchiveDepth {
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				p.log.Debug("Open nested archive %s :: %s: %v", archivePath, entry, err)
				p.skipped++
				continue
			}
			p.indexEntries(ctx, nested, archivePath, entry, depth+1)
			continue
		}

		text := p.extractors.Extract(ctx, data, path.Base(f.Name))
		p.persist(domain.ArchiveLocation(archivePath, entry), text)
	}
}

// persist queues text for a location when it is long enough.
// Reports whether the text was accepted.
func (p *pipeline) persist(loc domain.Location, text string) bool {
	if !domain.HasUsableContent(text, p.settings.MinContentLength) {
		return false
	}

	p.pending = append(p.pending, pendingDocument{
		doc:   domain.NewDocument(loc, text),
		input: domain.EmbeddingInput(text, p.settings.EmbedMaxChars),
	})
	if len(p.pending) >= p.settings.BatchSize || time.Since(p.lastFlush) >= flushInterval {
		if err := p.flush(); err != nil {
			p.log.Error("Commit batch: %v", err)
		}
	}
	return true
}

// flush embeds the queued documents, then writes and commits them in one
// transaction. Embedding happens before the first insert so the store's
// write lock is never held while waiting on the provider. A document whose
// embedding fails is stored without a vector.
func (p *pipeline) flush() error {
	p.lastFlush = time.Now()
	if len(p.pending) == 0 {
		return nil
	}
	batch := p.pending
	p.pending = nil

	if p.embedder != nil {
		p.embedBatch(batch)
	}

	for _, pd := range batch {
		id, err := p.writer.InsertDocument(p.storeCtx, pd.doc)
		if err != nil {
			p.log.Warn("Store %s: %v", pd.doc.Location, err)
			p.skipped++
			continue
		}
		p.indexed++
		if pd.vector == nil {
			continue
		}
		if err := p.writer.InsertEmbedding(p.storeCtx, id, pd.vector); err != nil {
			p.log.Warn("Store embedding for %s: %v", pd.doc.Location, err)
		}
	}
	return p.writer.Commit()
}

// embedBatch fills in the vectors of batch, falling back to one request per
// document when the batch call fails.
func (p *pipeline) embedBatch(batch []pendingDocument) {
	inputs := make([]string, len(batch))
	for i, pd := range batch {
		inputs[i] = pd.input
	}

	vectors, err := p.embedder.EmbedBatch(p.storeCtx, inputs)
	if err == nil && len(vectors) == len(inputs) {
		for i, v := range vectors {
			batch[i].vector = v
		}
		return
	}

	p.log.Debug("Batch embedding failed, embedding one by one: %v", err)
	for i, input := range inputs {
		v, err := p.embedder.Embed(p.storeCtx, input)
		if err != nil {
			p.log.Warn("Embedding %s: %v", batch[i].doc.Location, err)
			continue
		}
		batch[i].vector = v
	}
}

// close flushes the last batch and releases the writer.
func (p *pipeline) close() error {
	if err := p.flush(); err != nil {
		_ = p.writer.Rollback()
		return err
	}
	return p.writer.Close()
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

func readFileLimited(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileBytes {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), maxFileBytes)
	}
	return os.ReadFile(filePath)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxFileBytes {
		return nil, fmt.Errorf("entry is %d bytes, limit is %d", f.UncompressedSize64, maxFileBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxFileBytes {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxFileBytes)
	}
	return data, nil
}
