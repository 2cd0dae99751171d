// Package cli implements the sercha-desk command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// version is printed by the version command and set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by the commands. The bootstrap hook sets them before a
// command runs; tests assign them directly.
var (
	searchService     driving.SearchService
	folderService     driving.FolderService
	indexService      driving.IndexService
	documentService   driving.DocumentService
	settingsService   driving.SettingsService
	extractorRegistry driven.ExtractorRegistry
	reindexer         watchRunner
	scheduler         periodicRunner
)

// watchRunner re-indexes folders when their files change.
type watchRunner interface {
	Run(ctx context.Context) error
}

// periodicRunner re-indexes every folder on an interval.
type periodicRunner interface {
	Start(ctx context.Context) error
	Stop() error
}

// Services is what a bootstrap hook hands to the commands.
type Services struct {
	Search     driving.SearchService
	Folders    driving.FolderService
	Index      driving.IndexService
	Documents  driving.DocumentService
	Settings   driving.SettingsService
	Extractors driven.ExtractorRegistry
	Reindexer  watchRunner
	Scheduler  periodicRunner

	// Close is called once the command has finished. Optional.
	Close func() error
}

// BootstrapFunc builds the services for the global flag values.
type BootstrapFunc func(configDir string, verbose bool) (*Services, error)

var (
	bootstrap     BootstrapFunc
	closeServices func() error
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "sercha-desk",
	Short: "Search your local files by meaning and by name",
	Long: `sercha-desk indexes folders on this machine and answers queries with a
hybrid of semantic similarity and fuzzy keyword matching.

Register a folder, index it, then search:
  sercha-desk folder add ~/Documents
  sercha-desk index ~/Documents
  sercha-desk search quarterly budget`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"data directory (default $SERCHA_DESK_HOME or ~/.sercha-desk)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a command runs.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer releaseServices()
	return rootCmd.ExecuteContext(ctx)
}

func initServices(cmd *cobra.Command, _ []string) error {
	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	svc, err := bootstrap(configDir, verbose)
	if err != nil {
		return err
	}
	applyServices(svc)
	return nil
}

func applyServices(svc *Services) {
	searchService = svc.Search
	folderService = svc.Folders
	indexService = svc.Index
	documentService = svc.Documents
	settingsService = svc.Settings
	extractorRegistry = svc.Extractors
	reindexer = svc.Reindexer
	scheduler = svc.Scheduler
	closeServices = svc.Close
}

func releaseServices() {
	if closeServices == nil {
		return
	}
	closeServices() //nolint:errcheck
	closeServices = nil
}
