package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var llmJSON bool

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Manage the language model used for answers",
	Long: `Manage the local language model that answers questions.

Loading downloads the model through Ollama if needed and keeps it warm.
The chosen model is remembered for later sessions.`,
}

var llmLoadCmd = &cobra.Command{
	Use:   "load [model]",
	Short: "Download and load a language model",
	Long: `Loads the given model, or the configured one when omitted.
A different model that is already loaded is released first.
Press Ctrl-C to cancel a download.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLLMLoad,
}

var llmUnloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Release the language model",
	Args:  cobra.NoArgs,
	RunE:  runLLMUnload,
}

var llmStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the language model state",
	Args:  cobra.NoArgs,
	RunE:  runLLMStatus,
}

func init() {
	llmCmd.PersistentFlags().BoolVar(&llmJSON, "json", false, "output as JSON")
	llmCmd.AddCommand(llmLoadCmd)
	llmCmd.AddCommand(llmUnloadCmd)
	llmCmd.AddCommand(llmStatusCmd)
	rootCmd.AddCommand(llmCmd)
}

func runLLMLoad(cmd *cobra.Command, args []string) error {
	if generationModel == nil {
		return errors.New("language model not configured")
	}

	model := ""
	if len(args) == 1 {
		model = args[0]
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	var progress func(domain.PullProgress)
	if !llmJSON {
		progress = NewProgressReporter(cmd.ErrOrStderr())
	}

	err := generationModel.Load(ctx, model, progress)
	if err != nil {
		err = fmt.Errorf("failed to load language model: %w", err)
	}
	if llmJSON {
		return outputJSON(cmd, generationModel.Status(), err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Language model %s loaded.\n", generationModel.Status().Model)
	return nil
}

func runLLMUnload(cmd *cobra.Command, _ []string) error {
	if generationModel == nil {
		return errors.New("language model not configured")
	}

	err := generationModel.Unload(commandContext(cmd))
	if err != nil {
		err = fmt.Errorf("failed to unload language model: %w", err)
	}
	if llmJSON {
		return outputJSON(cmd, generationModel.Status(), err)
	}
	if err != nil {
		return err
	}
	cmd.Println("Language model unloaded.")
	return nil
}

func runLLMStatus(cmd *cobra.Command, _ []string) error {
	if generationModel == nil {
		return errors.New("language model not configured")
	}

	status := generationModel.Status()
	if llmJSON {
		return outputJSON(cmd, status, nil)
	}

	switch {
	case status.Loading:
		cmd.Printf("Loading %s", status.Model)
		if f := status.Progress.Fraction(); f > 0 {
			cmd.Printf(" (%.0f%%)", f*100)
		}
		cmd.Println()
	case status.Loaded:
		cmd.Printf("Loaded: %s\n", status.Model)
	default:
		cmd.Println("No language model loaded.")
	}
	if status.Error != "" {
		cmd.Printf("Last error: %s\n", status.Error)
	}
	return nil
}
