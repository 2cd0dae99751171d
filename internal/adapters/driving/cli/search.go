package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search indexed documents",
	Long: `Performs hybrid search across all indexed documents.
Combines semantic similarity from the embedding provider with fuzzy
keyword matching over the full-text index.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results (0 = configured maximum)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the --json shape of one result.
type searchResultJSON struct {
	Rank     int     `json:"rank"`
	DocID    int64   `json:"doc_id"`
	Filename string  `json:"filename"`
	Location string  `json:"location"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
	Semantic float64 `json:"semantic"`
	Lexical  float64 `json:"lexical"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), query, domain.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	outputSearchTable(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		out[i] = searchResultJSON{
			Rank:     i + 1,
			DocID:    results[i].DocID,
			Filename: results[i].Filename,
			Location: results[i].Location.String(),
			Snippet:  results[i].Snippet,
			Score:    results[i].Score,
			Semantic: results[i].Semantic,
			Lexical:  results[i].Lexical,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// highlightTags strips the match markers the store puts in snippets.
var highlightTags = strings.NewReplacer("<b>", "", "</b>", "")

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %.3f  %s\n", i+1, results[i].Score, results[i].Location)
		if snippet := oneLine(highlightTags.Replace(results[i].Snippet)); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

// oneLine collapses runs of whitespace so a snippet prints on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
