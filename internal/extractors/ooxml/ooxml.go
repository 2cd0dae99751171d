// Package ooxml reads the zip-packaged XML parts of Office Open XML files
// (.docx, .pptx) and pulls paragraph text out of them.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrPartNotFound indicates the package has no part with the given name.
var ErrPartNotFound = errors.New("ooxml: part not found")

// maxPartSize bounds how much of a single XML part is read.
const maxPartSize = 64 << 20

// Open opens r as an OOXML package.
func Open(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("ooxml: open package: %w", err)
	}
	return zr, nil
}

// ReadPart returns the bytes of the named part.
func ReadPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("ooxml: open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("ooxml: read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
}

// paragraph collects the runs of one <p> element.
type paragraph struct {
	runs []string
	run  *strings.Builder
}

func (p *paragraph) closeRun() {
	if p.run == nil {
		return
	}
	p.runs = append(p.runs, p.run.String())
	p.run = nil
}

func (p *paragraph) write(s string) {
	if p.run == nil {
		p.run = &strings.Builder{}
	}
	p.run.WriteString(s)
}

// Paragraphs returns the text of every <p> element in an XML part, in
// document order. Runs (<r> and <fld>) inside a paragraph are joined with
// runSep. Empty paragraphs are kept as "" so callers can decide on spacing.
// Element names are matched by local name, so both WordprocessingML (w:)
// and DrawingML (a:) parts work.
func Paragraphs(data []byte, runSep string) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out    []string
		stack  []*paragraph
		inText bool
	)
	current := func() *paragraph {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("ooxml: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				stack = append(stack, &paragraph{})
			case "r", "fld":
				if p := current(); p != nil {
					p.closeRun()
				}
			case "t":
				inText = true
			case "tab":
				if p := current(); p != nil {
					p.write("\t")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				p := current()
				if p == nil {
					continue
				}
				p.closeRun()
				stack = stack[:len(stack)-1]
				out = append(out, strings.TrimSpace(strings.Join(p.runs, runSep)))
			case "r", "fld":
				if p := current(); p != nil {
					p.closeRun()
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if !inText {
				continue
			}
			if p := current(); p != nil {
				p.write(string(t))
			}
		}
	}
	return out, nil
}
