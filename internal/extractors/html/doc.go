// Package html provides an Extractor implementation for HTML documents.
// It extracts readable text content from HTML, stripping tags, scripts
// and styles, and decoding entities for clean searchable content.
package html
