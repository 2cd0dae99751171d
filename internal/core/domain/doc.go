// Package domain defines the core business entities for sercha-desk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A unit of extracted text addressed by a Location
//   - Location: A direct file or a member inside an archive
//   - Folder: A registered indexing root
//   - SearchResult: A fused, ranked search hit
//   - IndexEvent / IndexSummary: Progress and completion of an indexing run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
