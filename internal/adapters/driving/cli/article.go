package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	articleJSON    bool
	addTitle       string
	addText        string
	addFile        string
	addExplanation string
	addDate        string
)

var articleCmd = &cobra.Command{
	Use:   "article",
	Short: "Manage archived articles",
	Long:  `Add, list, show and delete articles. Every change is re-indexed immediately.`,
}

var articleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an article",
	Long: `Adds an article and indexes it.

The text comes from --text, from --file, or from stdin when --file is "-".`,
	Args: cobra.NoArgs,
	RunE: runArticleAdd,
}

var articleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles",
	Args:  cobra.NoArgs,
	RunE:  runArticleList,
}

var articleShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an article with its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticleShow,
}

var articleDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an article and remove it from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticleDelete,
}

var articleCommentCmd = &cobra.Command{
	Use:   "comment [id] [text]",
	Short: "Add a comment to an article",
	Args:  cobra.ExactArgs(2),
	RunE:  runArticleComment,
}

func init() {
	articleCmd.PersistentFlags().BoolVar(&articleJSON, "json", false, "output as JSON")
	articleAddCmd.Flags().StringVarP(&addTitle, "title", "t", "", "article title (required)")
	articleAddCmd.Flags().StringVar(&addText, "text", "", "article text")
	articleAddCmd.Flags().StringVarP(&addFile, "file", "f", "", `read the text from a file ("-" for stdin)`)
	articleAddCmd.Flags().StringVarP(&addExplanation, "explanation", "e", "", "your own annotation")
	articleAddCmd.Flags().StringVar(&addDate, "date", "", "article date (YYYY-MM-DD, default today)")
	articleCmd.AddCommand(articleAddCmd)
	articleCmd.AddCommand(articleListCmd)
	articleCmd.AddCommand(articleShowCmd)
	articleCmd.AddCommand(articleDeleteCmd)
	articleCmd.AddCommand(articleCommentCmd)
	rootCmd.AddCommand(articleCmd)
}

func runArticleAdd(cmd *cobra.Command, _ []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}

	text := addText
	if addFile != "" {
		var data []byte
		var err error
		if addFile == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(addFile)
		}
		if err != nil {
			return fmt.Errorf("failed to read article text: %w", err)
		}
		text = string(data)
	}

	article := &domain.Article{
		Title:       strings.TrimSpace(addTitle),
		Text:        text,
		Explanation: addExplanation,
	}
	if addDate != "" {
		date, err := time.Parse("2006-01-02", addDate)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", addDate, domain.ErrInvalidInput)
		}
		article.Date = date
	}

	err := articleService.Save(commandContext(cmd), article)
	if err != nil {
		err = fmt.Errorf("failed to add article: %w", err)
	}
	if articleJSON {
		return outputJSON(cmd, map[string]any{"id": article.ID}, err)
	}
	if err != nil {
		if article.ID != 0 {
			cmd.Printf("Article %d saved but not indexed.\n", article.ID)
		}
		return err
	}
	cmd.Printf("Article %d added.\n", article.ID)
	return nil
}

// articleSummary is the list form of an article.
type articleSummary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	SourcePath string `json:"source_path,omitempty"`
}

func runArticleList(cmd *cobra.Command, _ []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}

	articles, err := articleService.List(commandContext(cmd))
	if err != nil {
		err = fmt.Errorf("failed to list articles: %w", err)
		if articleJSON {
			return outputJSON(cmd, nil, err)
		}
		return err
	}

	summaries := make([]articleSummary, 0, len(articles))
	for i := range articles {
		summaries = append(summaries, articleSummary{
			ID:         articles[i].ID,
			Title:      articles[i].Title,
			Date:       formatDate(articles[i].Ref().Date),
			SourcePath: articles[i].SourcePath,
		})
	}

	if articleJSON {
		return outputJSON(cmd, summaries, nil)
	}
	if len(summaries) == 0 {
		cmd.Println("No articles yet. Add one with 'recall article add'.")
		return nil
	}
	for _, s := range summaries {
		cmd.Printf("%6d  %-10s  %s\n", s.ID, s.Date, s.Title)
	}
	return nil
}

func runArticleShow(cmd *cobra.Command, args []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}
	id, err := parseArticleID(args[0])
	if err != nil {
		return err
	}

	article, err := articleService.Get(commandContext(cmd), id)
	if err != nil {
		err = fmt.Errorf("failed to get article %d: %w", id, err)
	}
	if articleJSON {
		return outputJSON(cmd, article, err)
	}
	if err != nil {
		return err
	}

	cmd.Printf("%s\n", article.Title)
	cmd.Printf("%s\n", strings.Repeat("=", len([]rune(article.Title))))
	cmd.Printf("Date: %s\n", formatDate(article.Ref().Date))
	if article.SourcePath != "" {
		cmd.Printf("File: %s\n", article.SourcePath)
	}
	if indexService != nil {
		if st, err := indexService.ArticleStatus(commandContext(cmd), id); err == nil && st != nil {
			cmd.Printf("Indexed: %d chunks at %s\n", st.ChunkCount, st.IndexedAt.Local().Format(time.DateTime))
		} else {
			cmd.Println("Indexed: no")
		}
	}
	if article.Text != "" {
		cmd.Println()
		cmd.Println(article.Text)
	}
	if article.Explanation != "" {
		cmd.Println()
		cmd.Println("Explanation:")
		cmd.Println(article.Explanation)
	}
	if len(article.Comments) > 0 {
		cmd.Println()
		cmd.Println("Comments:")
		for _, c := range article.Comments {
			cmd.Printf("  - %s (%s)\n", c.Text, formatDate(c.CreatedAt))
		}
	}
	return nil
}

func runArticleDelete(cmd *cobra.Command, args []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}
	id, err := parseArticleID(args[0])
	if err != nil {
		return err
	}

	err = articleService.Delete(commandContext(cmd), id)
	if err != nil {
		err = fmt.Errorf("failed to delete article %d: %w", id, err)
	}
	if articleJSON {
		return outputJSON(cmd, map[string]any{"id": id}, err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Article %d deleted.\n", id)
	return nil
}

func runArticleComment(cmd *cobra.Command, args []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}
	id, err := parseArticleID(args[0])
	if err != nil {
		return err
	}

	comment, err := articleService.AddComment(commandContext(cmd), id, args[1])
	if err != nil {
		err = fmt.Errorf("failed to add comment: %w", err)
	}
	if articleJSON {
		return outputJSON(cmd, comment, err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Comment added to article %d.\n", id)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02")
}
