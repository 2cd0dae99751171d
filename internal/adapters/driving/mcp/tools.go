package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-desk/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

// defaultSearchLimit applies when the caller gives no limit.
const defaultSearchLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to find documents"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	Filename string  `json:"filename"`
	Location string  `json:"location"`
	Snippet  string  `json:"snippet,omitempty"`
	Score    float64 `json:"score"`
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
}

// ListFoldersInput is the input schema for the list_folders tool.
type ListFoldersInput struct{}

// ListFoldersOutput is the output schema for the list_folders tool.
type ListFoldersOutput struct {
	Folders []FolderOutput `json:"folders"`
}

// FolderOutput represents a registered folder.
type FolderOutput struct {
	Path  string `json:"path"`
	Alias string `json:"alias"`
}

// IndexFolderInput is the input schema for the index_folder tool.
type IndexFolderInput struct {
	Path string `json:"path" jsonschema:"absolute path of a registered folder"`
}

// IndexFolderOutput is the output schema for the index_folder tool.
type IndexFolderOutput struct {
	Folder    string `json:"folder"`
	Indexed   int    `json:"indexed"`
	Skipped   int    `json:"skipped"`
	Cancelled bool   `json:"cancelled"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	Location string `json:"location" jsonschema:"document location as returned by search"`
}

// GetDocumentOutput is the output schema for the get_document tool.
type GetDocumentOutput struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
	Content  string `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed local files by meaning and by keyword",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_folders",
		Description: "List the folders that are registered for indexing",
	}, s.handleListFolders)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_folder",
		Description: "Re-index a registered folder and return the number of indexed and skipped files",
	}, s.handleIndexFolder)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Return the full extracted text of an indexed document",
	}, s.handleGetDocument)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, input.Query, domain.SearchOptions{Limit: limit})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			Filename: results[i].Filename,
			Location: results[i].Location.String(),
			Snippet:  results[i].Snippet,
			Score:    results[i].Score,
			Semantic: results[i].Semantic,
			Lexical:  results[i].Lexical,
		}
	}

	return nil, output, nil
}

// handleListFolders handles the list_folders tool invocation.
func (s *Server) handleListFolders(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListFoldersInput,
) (*mcp.CallToolResult, ListFoldersOutput, error) {
	if s.ports.Folders == nil {
		return nil, ListFoldersOutput{}, ErrServiceUnavailable
	}

	folders, err := s.ports.Folders.List(ctx)
	if err != nil {
		return nil, ListFoldersOutput{}, fmt.Errorf("listing folders: %w", err)
	}

	output := ListFoldersOutput{Folders: make([]FolderOutput, len(folders))}
	for i, f := range folders {
		output.Folders[i] = FolderOutput{Path: f.Path, Alias: f.Alias}
	}
	return nil, output, nil
}

// handleIndexFolder runs an indexing pass and waits for it to finish.
func (s *Server) handleIndexFolder(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexFolderInput,
) (*mcp.CallToolResult, IndexFolderOutput, error) {
	if s.ports.Index == nil {
		return nil, IndexFolderOutput{}, ErrServiceUnavailable
	}

	run, err := s.ports.Index.Start(ctx, input.Path)
	if err != nil {
		return nil, IndexFolderOutput{}, fmt.Errorf("starting index run: %w", err)
	}
	for range run.Events() {
	}
	summary := run.Wait()
	if summary.Err != nil {
		return nil, IndexFolderOutput{}, fmt.Errorf("indexing %s: %w", run.Folder(), summary.Err)
	}

	return nil, IndexFolderOutput{
		Folder:    run.Folder(),
		Indexed:   summary.Indexed,
		Skipped:   summary.Skipped,
		Cancelled: summary.Cancelled,
	}, nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, GetDocumentOutput, error) {
	if s.ports.Documents == nil {
		return nil, GetDocumentOutput{}, ErrServiceUnavailable
	}

	doc, err := s.ports.Documents.Get(ctx, filesystem.ResolveLocation(input.Location))
	if err != nil {
		return nil, GetDocumentOutput{}, fmt.Errorf("getting document: %w", err)
	}

	return nil, GetDocumentOutput{
		Filename: doc.Filename,
		Location: doc.Location.String(),
		Content:  doc.Content,
	}, nil
}
