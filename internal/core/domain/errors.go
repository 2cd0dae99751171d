package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidLocation indicates a location string could not be parsed.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNotImplemented indicates an optional collaborator is not configured.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedFormat indicates no extractor handles a file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// Folder Errors.

	// ErrFolderNotFound indicates the folder is not registered.
	ErrFolderNotFound = errors.New("folder not registered")

	// ErrNotADirectory indicates a folder path does not point to a directory.
	ErrNotADirectory = errors.New("not a directory")

	// Indexing Errors.

	// ErrIndexInProgress indicates an indexing run already covers the folder.
	ErrIndexInProgress = errors.New("index in progress")

	// Storage Errors.

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")

	// ErrCorruptEmbedding indicates a stored vector blob cannot be decoded.
	// A full re-index of the affected folder repairs it.
	ErrCorruptEmbedding = errors.New("corrupt embedding")

	// ErrDimensionMismatch indicates a stored vector does not match the
	// dimensionality of the current embedding provider.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Embedding Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the embedding API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
