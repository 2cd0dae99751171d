// Package pptx provides an Extractor for PowerPoint (.pptx) presentations.
package pptx

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/extractors/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pptx"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pptx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Available always returns true.
func (e *Extractor) Available() bool {
	return true
}

type slide struct {
	num  int
	name string
}

// Extract emits "--- Slide n ---" for each slide in numeric order, followed
// by one line per non-empty paragraph with its runs joined by spaces.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64, _ string) (string, error) {
	zr, err := ooxml.Open(r, size)
	if err != nil {
		return "", err
	}

	var slides []slide
	for _, f := range zr.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, name: f.Name})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := ooxml.ReadPart(zr, s.name)
		if err != nil {
			return "", err
		}
		paras, err := ooxml.Paragraphs(data, " ")
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}

		fmt.Fprintf(&b, "--- Slide %d ---\n", i+1)
		for _, p := range paras {
			if p == "" {
				continue
			}
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}
