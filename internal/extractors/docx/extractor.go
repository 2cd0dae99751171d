// Package docx provides an Extractor for Word (.docx) documents.
package docx

import (
	"context"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Available always returns true.
func (e *Extractor) Available() bool {
	return true
}

// Extract returns the paragraph texts of word/document.xml joined by newlines.
func (e *Extractor) Extract(_ context.Context, r io.ReaderAt, size int64, _ string) (string, error) {
	zr, err := ooxml.Open(r, size)
	if err != nil {
		return "", err
	}

	data, err := ooxml.ReadPart(zr, documentPart)
	if err != nil {
		return "", err
	}

	paras, err := ooxml.Paragraphs(data, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(paras, "\n")), nil
}
