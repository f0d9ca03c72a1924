// Package cli implements the recall command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
)

// version is set at build time with -ldflags "-X ...cli.version=1.2.3".
var version = "dev"

var verbose bool

// Services used by the commands. Set once by the composition root.
var (
	indexService      driving.IndexService
	questionService   driving.QuestionService
	embeddingProvider driving.EmbeddingProvider
	generationModel   driving.GenerationModel
	articleService    driving.ArticleService
	settingsService   driving.SettingsService
	normaliserReg     *normalisers.Registry
)

// Services groups the ports the CLI drives.
type Services struct {
	Index       driving.IndexService
	Question    driving.QuestionService
	Embedding   driving.EmbeddingProvider
	Generation  driving.GenerationModel
	Articles    driving.ArticleService
	Settings    driving.SettingsService
	Normalisers *normalisers.Registry

	// ValidateOllamaURL checks a runtime endpoint before it is saved.
	ValidateOllamaURL func(ctx context.Context, baseURL string) error
}

// SetServices wires the command tree to the core services.
func SetServices(s *Services) {
	indexService = s.Index
	questionService = s.Question
	embeddingProvider = s.Embedding
	generationModel = s.Generation
	articleService = s.Articles
	settingsService = s.Settings
	normaliserReg = s.Normalisers
	validateOllamaURL = s.ValidateOllamaURL
}

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Semantic search and question answering over your article archive",
	Long: `Recall keeps an archive of articles and notes, indexes them with a local
embedding model and answers questions from them with a local language model.

Models run on your machine through Ollama. Nothing leaves it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// reportedError is an error already written to the output, e.g. as a JSON
// envelope. Execute does not print it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command and prints any unreported error.
// Command output goes to stdout so --json can be piped.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	var reported *reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
