package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.opts = opts
	return m.results, m.err
}

// mockFolderService is a mock implementation of driving.FolderService.
type mockFolderService struct {
	folders []domain.Folder
	err     error
}

func (m *mockFolderService) Add(_ context.Context, path string) (*domain.Folder, error) {
	f := domain.NewFolder(path)
	return &f, m.err
}

func (m *mockFolderService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockFolderService) List(_ context.Context) ([]domain.Folder, error) {
	return m.folders, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	err      error
	got      string
}

func (m *mockDocumentService) Get(_ context.Context, location string) (*domain.Document, error) {
	m.got = location
	return m.document, m.err
}

func (m *mockDocumentService) Open(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*driving.IndexStats, error) {
	return &driving.IndexStats{}, m.err
}

// mockIndexRun is a finished run.
type mockIndexRun struct {
	folder  string
	summary domain.IndexSummary
	events  chan domain.IndexEvent
}

func newMockIndexRun(folder string, summary domain.IndexSummary) *mockIndexRun {
	events := make(chan domain.IndexEvent, 2)
	events <- domain.IndexEvent{Kind: domain.IndexEventProgress, Message: "Processing a.txt"}
	events <- domain.IndexEvent{Kind: domain.IndexEventDone, Summary: summary}
	close(events)
	return &mockIndexRun{folder: folder, summary: summary, events: events}
}

func (r *mockIndexRun) ID() string { return "run-1" }
func (r *mockIndexRun) Folder() string { return r.folder }
func (r *mockIndexRun) Events() <-chan domain.IndexEvent { return r.events }
func (r *mockIndexRun) Cancel() {}
func (r *mockIndexRun) Wait() domain.IndexSummary { return r.summary }
func (r *mockIndexRun) State() domain.IndexState { return domain.IndexCompleted }

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	summary  domain.IndexSummary
	startErr error
}

func (m *mockIndexService) Start(_ context.Context, folder string) (driving.IndexRun, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return newMockIndexRun(folder, m.summary), nil
}

func (m *mockIndexService) IndexAll(
	_ context.Context, _ func(string, domain.IndexEvent),
) (map[string]domain.IndexSummary, error) {
	return nil, nil
}

func (m *mockIndexService) Status(_ string) domain.IndexState { return domain.IndexIdle }
