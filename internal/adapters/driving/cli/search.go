package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	searchLimit int
	searchMin   float64
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search articles by meaning",
	Long: `Performs semantic search across all indexed articles.
The query is embedded with the selected model and compared with every
stored chunk. Each article appears at most once, with its best chunk.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMin, "min", domain.DefaultMinSimilarity, "minimum similarity (-1 to 1)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is a hit with its article title for display.
type searchResult struct {
	ArticleID   int64   `json:"article_id"`
	Title       string  `json:"title"`
	Similarity  float64 `json:"similarity"`
	MatchedText string  `json:"matched_text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if indexService == nil {
		return errors.New("search service not configured")
	}

	hits, err := indexService.Search(commandContext(cmd), query, domain.SearchOptions{
		Limit:         searchLimit,
		MinSimilarity: domain.Similarity(searchMin),
	})
	if err != nil {
		err = fmt.Errorf("search failed: %w", err)
		if searchJSON {
			return outputJSON(cmd, nil, err)
		}
		return err
	}

	results := make([]searchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, searchResult{
			ArticleID:   h.ArticleID,
			Title:       articleTitle(cmd, h.ArticleID),
			Similarity:  h.Similarity,
			MatchedText: h.MatchedText,
		})
	}

	if searchJSON {
		return outputJSON(cmd, results, nil)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []searchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		// Format: [N] Title (#id, similarity)
		cmd.Printf("  [%d] %s (#%d, %.2f)\n", i+1, r.Title, r.ArticleID, r.Similarity)
		if r.MatchedText != "" {
			cmd.Printf("      %s\n", truncate(r.MatchedText, 160))
		}
		cmd.Println()
	}
	return nil
}
