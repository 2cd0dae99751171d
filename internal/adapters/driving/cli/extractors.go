package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "List text extractors and the file types they handle",
	Long: `Lists every built-in text extractor with its file extensions. Extractors
switched off with extractors.disabled are marked as disabled.`,
	Args: cobra.NoArgs,
	RunE: runExtractors,
}

func init() {
	rootCmd.AddCommand(extractorsCmd)
}

func runExtractors(cmd *cobra.Command, _ []string) error {
	if extractorRegistry == nil {
		return errors.New("extractor registry not configured")
	}

	for _, c := range extractorRegistry.Capabilities() {
		state := "available"
		switch {
		case c.Disabled:
			state = "disabled"
		case !c.Available:
			state = "unavailable"
		}
		cmd.Printf("  %-12s %-12s %s\n", c.Name, state, strings.Join(c.Extensions, " "))
	}
	cmd.Println()
	cmd.Printf("Supported extensions: %d\n", len(extractorRegistry.SupportedExtensions()))
	return nil
}
