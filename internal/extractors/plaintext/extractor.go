// Package plaintext provides an Extractor for text-like files such as
// source code, logs, configuration and data files.
package plaintext

import (
	"context"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extensions handled by the plaintext extractor.
var Extensions = []string{
	".txt", ".md", ".py", ".json", ".csv", ".log", ".ini", ".xml",
	".yaml", ".yml", ".toml", ".go", ".js", ".ts", ".java", ".c",
	".h", ".cpp", ".rs", ".sh", ".sql", ".cfg", ".conf", ".rst",
}

// Extractor reads files as UTF-8 text.
type Extractor struct{}

// New creates a new plaintext extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return Extensions
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Available always returns true.
func (e *Extractor) Available() bool {
	return true
}

// Extract decodes the file as UTF-8. Invalid byte sequences become U+FFFD.
func (e *Extractor) Extract(_ context.Context, r io.ReaderAt, size int64, _ string) (string, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
