package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var modelJSON bool

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the embedding model",
	Long: `Manage the on-device embedding model used for indexing and search.

Only one embedding model is resident at a time. Vectors from different
models are never compared, so switching models requires an index rebuild.`,
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available embedding models",
	Args:  cobra.NoArgs,
	RunE:  runModelList,
}

var modelSelectCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Select the embedding model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelSelect,
}

var modelLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Download and load the selected embedding model",
	Args:  cobra.NoArgs,
	RunE:  runModelLoad,
}

var modelUnloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Release the embedding model",
	Args:  cobra.NoArgs,
	RunE:  runModelUnload,
}

var modelStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the embedding model state",
	Args:  cobra.NoArgs,
	RunE:  runModelStatus,
}

func init() {
	modelCmd.PersistentFlags().BoolVar(&modelJSON, "json", false, "output as JSON")
	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelSelectCmd)
	modelCmd.AddCommand(modelLoadCmd)
	modelCmd.AddCommand(modelUnloadCmd)
	modelCmd.AddCommand(modelStatusCmd)
	rootCmd.AddCommand(modelCmd)
}

func runModelList(cmd *cobra.Command, _ []string) error {
	if embeddingProvider == nil {
		return errors.New("embedding provider not configured")
	}

	models := embeddingProvider.Models()
	selected, _ := embeddingProvider.SelectedModel()
	if modelJSON {
		return outputJSON(cmd, map[string]any{"selected": selected.ID, "models": models}, nil)
	}

	cmd.Println("Embedding Models")
	cmd.Println("================")
	for _, m := range models {
		marker := " "
		if m.ID == selected.ID {
			marker = "*"
		}
		cmd.Printf(" %s %-20s %-28s %5d dims  ~%d MB\n", marker, m.ID, m.Name, m.Dimensions, m.ApproxSizeMB)
	}
	return nil
}

func runModelSelect(cmd *cobra.Command, args []string) error {
	if embeddingProvider == nil {
		return errors.New("embedding provider not configured")
	}

	err := embeddingProvider.SelectModel(args[0])
	if err != nil {
		err = fmt.Errorf("failed to select model: %w", err)
	}

	requiresReindex := false
	if err == nil && indexService != nil {
		if status, statusErr := indexService.Status(commandContext(cmd)); statusErr == nil {
			requiresReindex = status.RequiresReindex
		}
	}

	if modelJSON {
		return outputJSON(cmd, map[string]any{"selected": args[0], "requires_reindex": requiresReindex}, err)
	}
	if err != nil {
		return err
	}
	cmd.Printf("Embedding model set to %s.\n", args[0])
	if requiresReindex {
		cmd.Println("The index was built with a different model. Run 'recall index rebuild'.")
	}
	return nil
}

func runModelLoad(cmd *cobra.Command, _ []string) error {
	if embeddingProvider == nil {
		return errors.New("embedding provider not configured")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	err := embeddingProvider.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load embedding model: %w", err)
	}
	if modelJSON {
		return outputJSON(cmd, embeddingProvider.Status(), err)
	}
	if err != nil {
		return err
	}
	status := embeddingProvider.Status()
	cmd.Printf("Embedding model %s loaded (%d dimensions).\n", status.ModelID, status.Dimensions)
	return nil
}

func runModelUnload(cmd *cobra.Command, _ []string) error {
	if embeddingProvider == nil {
		return errors.New("embedding provider not configured")
	}

	err := embeddingProvider.Unload(commandContext(cmd))
	if err != nil {
		err = fmt.Errorf("failed to unload embedding model: %w", err)
	}
	if modelJSON {
		return outputJSON(cmd, embeddingProvider.Status(), err)
	}
	if err != nil {
		return err
	}
	cmd.Println("Embedding model unloaded.")
	return nil
}

func runModelStatus(cmd *cobra.Command, _ []string) error {
	if embeddingProvider == nil {
		return errors.New("embedding provider not configured")
	}

	status := embeddingProvider.Status()
	if modelJSON {
		return outputJSON(cmd, status, nil)
	}

	cmd.Printf("Selected: %s\n", status.SelectedID)
	cmd.Printf("State:    %s\n", status.State)
	if status.ModelID != "" {
		cmd.Printf("Resident: %s (%d dimensions)\n", status.ModelID, status.Dimensions)
	}
	if status.Error != "" {
		cmd.Printf("Error:    %s\n", status.Error)
	}
	return nil
}
