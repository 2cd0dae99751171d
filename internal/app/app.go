// Package app wires the stores, adapters and services into one unit for the
// driving adapters.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/opener"
	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-desk/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/services"
	"github.com/custodia-labs/sercha-desk/internal/extractors"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// HomeEnv overrides the default data directory.
const HomeEnv = "SERCHA_DESK_HOME"

// logFileName is the rotating log file inside <home>/logs.
const logFileName = "sercha-desk.log"

// Options configures New.
type Options struct {
	// Home is the data directory. Empty uses SERCHA_DESK_HOME or ~/.sercha-desk.
	Home string

	Verbose bool

	// Console receives log output. Defaults to stderr.
	Console io.Writer
}

// App holds the wired services. Close releases the store, the embedder and
// the log file.
type App struct {
	Home     string
	Logger   *logger.Logger
	Settings *domain.AppSettings

	SettingsService *services.SettingsService
	Search          *services.SearchService
	Folders         *services.FolderService
	Indexer         *services.Indexer
	Documents       *services.DocumentService
	Extractors      *extractors.Registry

	store    *sqlite.Store
	embedder driven.EmbeddingService
}

// ResolveHome returns dir, or the default data directory when dir is empty.
func ResolveHome(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return filepath.Abs(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-desk"), nil
}

// New opens the data directory and builds every service.
// An embedding provider that cannot be created is logged and left out, so
// lexical-only commands keep working.
func New(opts Options) (*App, error) {
	home, err := ResolveHome(opts.Home)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(home, "logs"), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	log, err := logger.New(logger.Options{
		Verbose: opts.Verbose,
		Console: opts.Console,
		LogFile: filepath.Join(home, "logs", logFileName),
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(home)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("opening index: %w", err)
	}
	log.Debug("Index database: %s", store.Path())

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		log.Warn("Semantic search unavailable: %v", err)
		embedder = nil
	} else if embedder == nil {
		log.Debug("No embedding provider configured")
	}

	registry := extractors.NewDefaultRegistry(log, settings.Extractors.Disabled)

	a := &App{
		Home:            home,
		Logger:          log,
		Settings:        settings,
		SettingsService: settingsService,
		Extractors:      registry,
		store:           store,
		embedder:        embedder,
	}

	a.Search = services.NewSearchService(store.DocumentStore(), store.EmbeddingStore(), embedder, settings.Search, log)
	a.Folders = services.NewFolderService(store.FolderStore(), log)
	a.Indexer = services.NewIndexer(services.IndexerDeps{
		Folders:    store.FolderStore(),
		Documents:  store.DocumentStore(),
		Writers:    store.IndexWriterFactory(),
		Walker:     filesystem.NewWalker(),
		Extractors: registry,
		History:    store.RunHistoryStore(),
		Embedder:   embedder,
		Settings:   settings.Index,
		Logger:     log,
	})
	a.Documents = services.NewDocumentService(
		store.DocumentStore(), store.EmbeddingStore(), store.FolderStore(), store.RunHistoryStore(), opener.New(),
	)

	return a, nil
}

// NewReindexer returns a reindexer watching every registered folder.
func (a *App) NewReindexer() *services.Reindexer {
	watcher := filesystem.NewWatcher(filesystem.DefaultDebounce, a.Logger)
	return services.NewReindexer(a.store.FolderStore(), watcher, a.Indexer, a.Logger)
}

// NewScheduler returns the periodic re-index scheduler.
func (a *App) NewScheduler() *services.Scheduler {
	return services.NewScheduler(a.Settings.Schedule, a.Indexer, a.Logger)
}

// Close releases every resource held by the app.
func (a *App) Close() error {
	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	errs = append(errs, a.Logger.Close())
	return errors.Join(errs...)
}
