// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Full-text document persistence, matching and snippets
//   - EmbeddingStore: Per-document vector persistence
//   - FolderStore: Registered indexing roots
//   - IndexWriter: Batched transactional writes during an indexing run
//   - ExtractorRegistry: Best-effort text extraction by file extension
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, search returns no results
//     and indexing stores documents without vectors.
//   - FileOpener: Opens a location with the OS default application.
//   - RunHistoryStore: Records finished indexing runs.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or connector package
package driven
