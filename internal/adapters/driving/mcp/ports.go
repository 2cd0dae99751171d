package mcp

import (
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides search capabilities.
	Search driving.SearchService

	// Folders lists registered folders.
	Folders driving.FolderService

	// Index runs indexing for the index_folder tool.
	Index driving.IndexService

	// Documents serves document content by location.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// The remaining ports are optional; their tools report ErrServiceUnavailable.
	return nil
}
