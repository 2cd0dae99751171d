// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-desk.
// It lets AI assistants search the local index and read indexed documents.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrServiceUnavailable is returned by a tool whose port was not provided.
var ErrServiceUnavailable = errors.New("mcp: service not configured")
