package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

type mockSearchService struct {
	results   []domain.SearchResult
	err       error
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

type mockFolderService struct {
	folders []domain.Folder
	err     error
	added   []string
	removed []string
}

func (m *mockFolderService) Add(_ context.Context, path string) (*domain.Folder, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.added = append(m.added, path)
	f := domain.NewFolder(path)
	return &f, nil
}

func (m *mockFolderService) Remove(_ context.Context, path string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, path)
	return nil
}

func (m *mockFolderService) List(_ context.Context) ([]domain.Folder, error) {
	return m.folders, m.err
}

// mockIndexRun replays a fixed list of progress messages.
type mockIndexRun struct {
	folder  string
	events  chan domain.IndexEvent
	summary domain.IndexSummary
	done    chan struct{}
}

func newMockIndexRun(folder string, messages []string, summary domain.IndexSummary) *mockIndexRun {
	run := &mockIndexRun{
		folder:  folder,
		events:  make(chan domain.IndexEvent, len(messages)+1),
		summary: summary,
		done:    make(chan struct{}),
	}
	for _, msg := range messages {
		run.events <- domain.IndexEvent{Kind: domain.IndexEventProgress, Message: msg}
	}
	run.events <- domain.IndexEvent{Kind: domain.IndexEventDone, Summary: summary}
	close(run.events)
	close(run.done)
	return run
}

func (r *mockIndexRun) ID() string { return "run-1" }
func (r *mockIndexRun) Folder() string { return r.folder }
func (r *mockIndexRun) Events() <-chan domain.IndexEvent { return r.events }
func (r *mockIndexRun) Cancel() {}
func (r *mockIndexRun) Wait() domain.IndexSummary { <-r.done; return r.summary }
func (r *mockIndexRun) State() domain.IndexState { return domain.IndexCompleted }

type mockIndexService struct {
	messages []string
	summary  domain.IndexSummary
	startErr error
	all      map[string]domain.IndexSummary
	allErr   error
	state    domain.IndexState
	started  []string
}

func (m *mockIndexService) Start(_ context.Context, folder string) (driving.IndexRun, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	m.started = append(m.started, folder)
	return newMockIndexRun(folder, m.messages, m.summary), nil
}

func (m *mockIndexService) IndexAll(
	_ context.Context, progress func(folder string, ev domain.IndexEvent),
) (map[string]domain.IndexSummary, error) {
	for folder := range m.all {
		for _, msg := range m.messages {
			progress(folder, domain.IndexEvent{Kind: domain.IndexEventProgress, Message: msg})
		}
	}
	return m.all, m.allErr
}

func (m *mockIndexService) Status(_ string) domain.IndexState {
	return m.state
}

type mockDocumentService struct {
	doc    *domain.Document
	err    error
	stats  *driving.IndexStats
	got    []string
	opened []string
}

func (m *mockDocumentService) Get(_ context.Context, location string) (*domain.Document, error) {
	m.got = append(m.got, location)
	if m.err != nil {
		return nil, m.err
	}
	if m.doc == nil {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockDocumentService) Open(_ context.Context, location string) error {
	if m.err != nil {
		return m.err
	}
	m.opened = append(m.opened, location)
	return nil
}

func (m *mockDocumentService) Stats(_ context.Context) (*driving.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats == nil {
		return &driving.IndexStats{}, nil
	}
	return m.stats, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	entries     []driving.SettingEntry
	setErr      error
	validateErr error
	set         map[string]string

	provider domain.AIProvider
	model    string
	apiKey   string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		entries: []driving.SettingEntry{
			{Key: "embedding.provider", Value: "local"},
			{Key: "search.alpha", Value: "0.5"},
		},
		set: map[string]string{},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() ([]driving.SettingEntry, error) {
	return m.entries, nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.provider = provider
	m.model = model
	m.apiKey = apiKey
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

type mockExtractorRegistry struct {
	caps []driven.ExtractorCapability
}

func (m *mockExtractorRegistry) Register(driven.Extractor) {}

func (m *mockExtractorRegistry) Supports(name string) bool {
	return strings.HasSuffix(name, ".txt")
}

func (m *mockExtractorRegistry) Extract(_ context.Context, data []byte, _ string) string {
	return string(data)
}

func (m *mockExtractorRegistry) SupportedExtensions() []string {
	var exts []string
	for _, c := range m.caps {
		if c.Available && !c.Disabled {
			exts = append(exts, c.Extensions...)
		}
	}
	return exts
}

func (m *mockExtractorRegistry) Capabilities() []driven.ExtractorCapability {
	return m.caps
}

// fakeReindexer returns as soon as it has been started, or when ctx ends.
type fakeReindexer struct {
	err     error
	block   bool
	started chan struct{}
}

func (f *fakeReindexer) Run(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.block {
		<-ctx.Done()
		return nil
	}
	return f.err
}

type fakeScheduler struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeScheduler) Start(ctx context.Context) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeScheduler) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeScheduler) state() (started, stopped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started, f.stopped
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search     *mockSearchService
	folders    *mockFolderService
	index      *mockIndexService
	documents  *mockDocumentService
	settings   *mockSettingsService
	extractors *mockExtractorRegistry
}

// setupTestServices installs fresh mocks and returns a cleanup that restores
// every package-level service and flag.
func setupTestServices() (*testServices, func()) {
	svc := &testServices{
		search:     &mockSearchService{},
		folders:    &mockFolderService{},
		index:      &mockIndexService{},
		documents:  &mockDocumentService{},
		settings:   newMockSettingsService(),
		extractors: &mockExtractorRegistry{},
	}

	applyServices(&Services{
		Search:     svc.search,
		Folders:    svc.folders,
		Index:      svc.index,
		Documents:  svc.documents,
		Settings:   svc.settings,
		Extractors: svc.extractors,
	})

	return svc, func() {
		applyServices(&Services{})
		searchLimit = 10
		searchJSON = false
		indexAll = false
		mcpHTTPAddr = ""
	}
}

// execute runs the root command with args and returns everything printed.
func execute(args []string, stdin io.Reader) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
