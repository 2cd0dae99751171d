package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driving/tui"
)

// program is the part of tea.Program the command drives.
type program interface {
	Run() (tea.Model, error)
}

// newProgram builds the bubbletea program; tests replace it.
var newProgram = func(ctx context.Context, model tea.Model) program {
	return tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive search screen",
	Long: `Launch the interactive terminal search screen.

Type a query and press Enter to search. Results are ranked by a blend of
meaning and keyword matches.

Controls:
  Enter        - Search
  ↑/k, ↓/j     - Navigate results
  o            - Open the selected file
  / or Tab     - New search
  Esc, Ctrl-C  - Quit

When index.interval is set, folders are re-indexed in the background while
the screen is open.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	if searchService == nil {
		return errors.New("search service not configured")
	}

	app, err := tui.NewApp(tui.NewPorts(searchService, documentService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx)

	// The screen is long-running, so periodic re-indexing runs alongside it.
	if scheduler != nil {
		go func() {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "scheduler stopped: %v\n", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "scheduler stop error: %v\n", err)
			}
		}()
	}

	if _, err := newProgram(ctx, app).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
