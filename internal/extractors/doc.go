// Package extractors provides implementations of the Extractor interface
// for various document formats. Each extractor knows how to turn the bytes
// of a set of file extensions into plain text.
//
// Extractors are registered with the Registry at startup. The registry is
// the single place that decides which formats are indexable, and it never
// lets one broken file stop an indexing run.
package extractors
