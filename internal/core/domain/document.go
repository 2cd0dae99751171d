package domain

import "strings"

// Document is one indexed unit of extracted text.
type Document struct {
	// ID is the auto-assigned row identifier. It correlates the document
	// with its embedding and is zero until the document is persisted.
	ID int64

	// Filename is the display name, the base name of the location.
	Filename string

	// Location addresses the file or archive member the text came from.
	Location Location

	// Content is the full extracted text used for lexical matching.
	Content string
}

// NewDocument builds an unsaved document for the given location.
func NewDocument(loc Location, content string) Document {
	return Document{
		Filename: loc.Filename(),
		Location: loc,
		Content:  content,
	}
}

// HasUsableContent reports whether text is long enough to be persisted.
// The stripped length must exceed minLength.
func HasUsableContent(text string, minLength int) bool {
	return len([]rune(strings.TrimSpace(text))) > minLength
}

// EmbeddingInput returns the prefix of content that is sent to the embedding
// provider. Truncation happens on rune boundaries.
func EmbeddingInput(content string, maxChars int) string {
	return TruncateRunes(content, maxChars)
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Embedding is the vector stored for one document.
type Embedding struct {
	// DocID is the identity of the owning document.
	DocID int64

	// Vector is the fixed-length embedding.
	Vector []float32
}

// DisplayRow is the data shown for one search hit.
type DisplayRow struct {
	Filename string
	Location Location
	// Snippet is an excerpt with matched terms wrapped in <b>...</b>.
	Snippet string
}

// LexicalCandidate is a document returned by full-text matching.
type LexicalCandidate struct {
	DocID    int64
	Filename string
	Content  string
}
