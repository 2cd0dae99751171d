package driven

import (
	"context"
	"io"
)

// Extractor turns the bytes of one file type into plain text.
// Each extractor handles a set of file extensions (e.g., ".pdf").
type Extractor interface {
	// Name identifies the extractor in logs and capability listings.
	Name() string

	// Extensions returns the lower-case extensions, with leading dot, this
	// extractor handles.
	Extensions() []string

	// Priority returns the selection priority (higher = preferred) when two
	// extractors claim the same extension.
	Priority() int

	// Available reports whether the extractor can run in this environment.
	Available() bool

	// Extract returns the text of the file. name is the file or entry name
	// and is used only for diagnostics.
	Extract(ctx context.Context, r io.ReaderAt, size int64, name string) (string, error)
}

// ExtractorCapability describes one registered extractor.
type ExtractorCapability struct {
	Name       string
	Extensions []string
	Available  bool
	Disabled   bool
}

// ExtractorRegistry dispatches extraction by file extension.
// Extraction is best-effort: failures yield empty text, never an error.
type ExtractorRegistry interface {
	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// Supports reports whether a file name has an extractor that can run.
	Supports(name string) bool

	// Extract returns the text of data, or "" when the type is unsupported
	// or extraction fails.
	Extract(ctx context.Context, data []byte, name string) string

	// SupportedExtensions returns every extension that will be dispatched.
	SupportedExtensions() []string

	// Capabilities lists every registered extractor.
	Capabilities() []ExtractorCapability
}

// FileOpener opens a file with the operating system's default application.
type FileOpener interface {
	Open(ctx context.Context, path string) error
}
