package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the vector index",
	Long: `Inspect and maintain the vector index of article chunks.

The index records which embedding model and chunking configuration built it.
After changing either, run 'recall index rebuild'.`,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index contents and freshness",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexArticleCmd = &cobra.Command{
	Use:   "article [id]",
	Short: "Re-index one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexArticle,
}

var indexRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove one article from the index",
	Long:  `Removes the article's chunks from the index. The article itself is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexRemove,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the whole index",
	Long: `Clears the index and indexes every article with the selected embedding
model and the current chunking configuration. Articles that fail are
reported and skipped. Press Ctrl-C to stop after the current article.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

func init() {
	indexCmd.PersistentFlags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexArticleCmd)
	indexCmd.AddCommand(indexRemoveCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	status, err := indexService.Status(commandContext(cmd))
	if err != nil {
		err = fmt.Errorf("failed to get index status: %w", err)
	}
	if indexJSON {
		return outputJSON(cmd, status, err)
	}
	if err != nil {
		return err
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Printf("  Articles indexed: %d of %d\n", status.IndexedArticles, status.TotalArticles)
	cmd.Printf("  Chunks:           %d\n", status.TotalChunks)
	cmd.Printf("  Model:            %s\n", describeIndexed(status.CurrentModel, status.IndexedModel))
	cmd.Printf("  Chunking:         %s\n",
		describeIndexed(status.CurrentChunkingVersion, status.IndexedChunkingVersion))
	if status.DimensionMismatch {
		cmd.Printf("  Dimensions:       %d (index built with %d)\n", status.CurrentDimensions, status.Dimensions)
	}
	if !status.BuiltAt.IsZero() {
		cmd.Printf("  Last rebuild:     %s\n", status.BuiltAt.Local().Format(time.DateTime))
	}
	if status.RequiresReindex {
		cmd.Println()
		cmd.Println("The index is stale. Run 'recall index rebuild'.")
	}
	return nil
}

// describeIndexed shows the current value and, if different, the indexed one.
func describeIndexed(current, indexed string) string {
	switch indexed {
	case current:
		return current
	case "":
		return current + " (never built)"
	default:
		return fmt.Sprintf("%s (index built with %s)", current, indexed)
	}
}

func runIndexArticle(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	id, err := parseArticleID(args[0])
	if err != nil {
		return err
	}

	n, err := indexService.IndexArticle(commandContext(cmd), id)
	if err != nil {
		err = fmt.Errorf("failed to index article %d: %w", id, err)
	}
	if indexJSON {
		return outputJSON(cmd, map[string]any{"article_id": id, "chunks": n}, err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Article %d indexed: %d chunks.\n", id, n)
	return nil
}

func runIndexRemove(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	id, err := parseArticleID(args[0])
	if err != nil {
		return err
	}

	err = indexService.RemoveArticle(commandContext(cmd), id)
	if err != nil {
		err = fmt.Errorf("failed to remove article %d: %w", id, err)
	}
	if indexJSON {
		return outputJSON(cmd, map[string]any{"article_id": id}, err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Article %d removed from the index.\n", id)
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	opts := driving.RebuildOptions{}
	if !indexJSON {
		opts.Progress = func(p domain.RebuildProgress) {
			if p.Err != nil {
				cmd.PrintErrf("  article %d failed: %v\n", p.ArticleID, p.Err)
			}
			cmd.Printf("\rIndexed %d/%d", p.Done, p.Total)
		}
		cmd.Println("Rebuilding index...")
	}

	result, err := indexService.RebuildIndex(ctx, opts)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("rebuild cancelled after %d of %d articles: %w", result.Indexed+result.Failed, result.Total, err)
		} else {
			err = fmt.Errorf("rebuild failed: %w", err)
		}
	}
	if indexJSON {
		if err != nil {
			return outputJSON(cmd, nil, err)
		}
		return outputJSON(cmd, result, nil)
	}
	if result.Total > 0 {
		cmd.Println()
	}
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %d of %d articles (%d chunks) in %s.\n",
		result.Indexed, result.Total, result.Chunks, result.Duration.Round(time.Millisecond))
	if result.Failed > 0 {
		cmd.Printf("%d articles failed: %v\n", result.Failed, result.FailedIDs)
	}
	return nil
}
