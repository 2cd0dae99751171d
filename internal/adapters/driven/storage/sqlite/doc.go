// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: FTS5 document index, matching and snippets
//   - EmbeddingStore: Per-document vectors as little-endian float32 blobs
//   - FolderStore: Registered indexing roots
//   - IndexWriterFactory: Batched transactional writes for indexing runs
//   - RunHistoryStore: Finished indexing runs
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-desk/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. An IndexWriter holds one transaction and must be used
// from a single goroutine.
package sqlite
