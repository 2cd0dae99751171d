package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "escaped path",
			uri:      "sercha-desk://documents/%2Fdata%2Fnotes.txt",
			expected: "/data/notes.txt",
		},
		{
			name:     "archive member",
			uri:      DocumentURI("/data/bundle.zip :: docs/inner.txt"),
			expected: "/data/bundle.zip :: docs/inner.txt",
		},
		{
			name:     "invalid prefix",
			uri:      "file://documents/notes.txt",
			expected: "",
		},
		{
			name:     "bad escape",
			uri:      "sercha-desk://documents/%zz",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractLocation(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleFoldersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil folder service returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		result, err := server.handleFoldersResource(ctx, makeReadResourceRequest("sercha-desk://folders"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns folders", func(t *testing.T) {
		folders := &mockFolderService{folders: []domain.Folder{
			domain.NewFolder("/home/me/docs"),
			{Path: "/srv/share", Alias: "share"},
		}}
		server := newTestServer(t, &Ports{Folders: folders})

		result, err := server.handleFoldersResource(ctx, makeReadResourceRequest("sercha-desk://folders"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got []FolderOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, []FolderOutput{
			{Path: "/home/me/docs", Alias: "docs"},
			{Path: "/srv/share", Alias: "share"},
		}, got)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Folders: &mockFolderService{err: assert.AnError}})

		_, err := server.handleFoldersResource(ctx, makeReadResourceRequest("sercha-desk://folders"))

		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns content", func(t *testing.T) {
		doc := domain.NewDocument(domain.DirectLocation("/data/notes.txt"), "the whole note")
		docs := &mockDocumentService{document: &doc}
		server := newTestServer(t, &Ports{Documents: docs})
		uri := DocumentURI("/data/notes.txt")

		result, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "the whole note", result.Contents[0].Text)
		assert.Equal(t, "/data/notes.txt", docs.got)
	})

	t.Run("nil document service is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest(DocumentURI("/a.txt")))

		assert.Error(t, err)
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest("sercha-desk://other"))

		assert.Error(t, err)
	})

	t.Run("lookup failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Documents: &mockDocumentService{err: domain.ErrNotFound}})

		_, err := server.handleDocumentContentResource(ctx, makeReadResourceRequest(DocumentURI("/a.txt")))

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
