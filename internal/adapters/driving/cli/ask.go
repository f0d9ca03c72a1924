package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	askMaxChunks  int
	askMin        float64
	askMaxContext int
	askLoad       bool
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your articles",
	Long: `Retrieves the chunks most relevant to the question and asks the local
language model to answer from them only. The answer lists its sources.

By default the configured language model is loaded first (downloading it
if needed). Use --load=false to require an already loaded model.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askMaxChunks, "max-chunks", 0, "maximum context chunks (default from settings)")
	askCmd.Flags().Float64Var(&askMin, "min", domain.DefaultAnswerMinSimilarity, "minimum chunk similarity, -1 to 1 (default from settings)")
	askCmd.Flags().IntVar(&askMaxContext, "max-context", 0, "maximum context characters (default from settings)")
	askCmd.Flags().BoolVar(&askLoad, "load", true, "load the language model before asking")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON form of an answer.
type askOutput struct {
	Answer    string         `json:"answer"`
	NoContext bool           `json:"no_context"`
	Sources   []sourceOutput `json:"sources"`
}

type sourceOutput struct {
	ArticleID  int64   `json:"article_id"`
	Title      string  `json:"title"`
	Date       string  `json:"date,omitempty"`
	Similarity float64 `json:"similarity"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	if askLoad && generationModel != nil && !generationModel.Status().Loaded {
		var progress func(domain.PullProgress)
		if !askJSON {
			progress = NewProgressReporter(cmd.ErrOrStderr())
		}
		if err := generationModel.Load(ctx, "", progress); err != nil {
			return finishAsk(cmd, nil, fmt.Errorf("failed to load language model: %w", err))
		}
	}

	result, err := questionService.Ask(ctx, args[0], askOptions(cmd))
	if err != nil {
		err = fmt.Errorf("ask failed: %w", err)
	}
	return finishAsk(cmd, result, err)
}

// askOptions merges flags over the configured defaults.
func askOptions(cmd *cobra.Command) domain.AskOptions {
	opts := domain.AskOptions{}
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			opts = s.Answer
		}
	}
	if askMaxChunks > 0 {
		opts.MaxChunks = askMaxChunks
	}
	if cmd.Flags().Changed("min") {
		opts.MinSimilarity = domain.Similarity(askMin)
	}
	if askMaxContext > 0 {
		opts.MaxContextChars = askMaxContext
	}
	return opts
}

func finishAsk(cmd *cobra.Command, result *domain.AskResult, err error) error {
	if askJSON {
		if err != nil {
			return outputJSON(cmd, nil, err)
		}
		out := askOutput{Answer: result.Answer, NoContext: result.NoContext, Sources: []sourceOutput{}}
		for _, s := range result.Sources {
			src := sourceOutput{ArticleID: s.Article.ID, Title: s.Article.Title, Similarity: s.Similarity}
			if !s.Article.Date.IsZero() {
				src.Date = s.Article.Date.Format("2006-01-02")
			}
			out.Sources = append(out.Sources, src)
		}
		return outputJSON(cmd, out, nil)
	}
	if err != nil {
		return err
	}

	cmd.Println(result.Answer)
	if len(result.Sources) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range result.Sources {
		date := ""
		if !s.Article.Date.IsZero() {
			date = ", " + s.Article.Date.Format("2006-01-02")
		}
		cmd.Printf("  [%d] %s (#%d%s)\n", i+1, s.Article.Title, s.Article.ID, date)
	}
	return nil
}
