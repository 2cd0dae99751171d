// Command sercha-desk searches local files by meaning and by name.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-desk/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A .env in the working directory may carry OPENAI_API_KEY and
	// SERCHA_DESK_* overrides. It is optional.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

func bootstrap(configDir string, verbose bool) (*cli.Services, error) {
	a, err := app.New(app.Options{Home: configDir, Verbose: verbose})
	if err != nil {
		return nil, fmt.Errorf("starting sercha-desk: %w", err)
	}

	return &cli.Services{
		Search:     a.Search,
		Folders:    a.Folders,
		Index:      a.Indexer,
		Documents:  a.Documents,
		Settings:   a.SettingsService,
		Extractors: a.Extractors,
		Reindexer:  a.NewReindexer(),
		Scheduler:  a.NewScheduler(),
		Close:      a.Close,
	}, nil
}
