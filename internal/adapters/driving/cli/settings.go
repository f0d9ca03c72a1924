package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// validateOllamaURL checks that a runtime answers at a base URL.
// Set by the composition root; nil skips the check.
var validateOllamaURL func(ctx context.Context, baseURL string) error

var (
	chunkSize       int
	chunkOverlap    int
	answerMaxChunks int
	answerMin       float64
	answerMaxCtx    int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure models, chunking and answering defaults.

Use subcommands to change a single setting or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Set chunk size and overlap",
	Long: `Set the chunk window size and overlap, in words.
The overlap must be smaller than the size. Changing either makes the index
stale until it is rebuilt.`,
	Args: cobra.NoArgs,
	RunE: runSettingsChunking,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm [model]",
	Short: "Set the language model used for answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsLLM,
}

var settingsOllamaCmd = &cobra.Command{
	Use:   "ollama [url]",
	Short: "Set the Ollama endpoint",
	Long: `Set the base URL of the local Ollama runtime.
The RECALL_OLLAMA_URL environment variable takes precedence.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsOllama,
}

var settingsAnswerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Set question answering defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsAnswer,
}

func init() {
	settingsChunkingCmd.Flags().IntVar(&chunkSize, "size", domain.DefaultChunkSize, "chunk size in words")
	settingsChunkingCmd.Flags().IntVar(&chunkOverlap, "overlap", domain.DefaultChunkOverlap, "overlap in words")
	settingsAnswerCmd.Flags().IntVar(&answerMaxChunks, "max-chunks", 0, "context chunks per answer")
	settingsAnswerCmd.Flags().Float64Var(&answerMin, "min", domain.DefaultAnswerMinSimilarity, "minimum chunk similarity, -1 to 1")
	settingsAnswerCmd.Flags().IntVar(&answerMaxCtx, "max-context", 0, "maximum context characters")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsChunkingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsOllamaCmd)
	settingsCmd.AddCommand(settingsAnswerCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Models]")
	cmd.Printf("  Embedding model: %s\n", settings.EmbeddingModel)
	if settings.EmbeddingRateLimit > 0 {
		cmd.Printf("  Embedding rate:  %.1f requests/s\n", settings.EmbeddingRateLimit)
	}
	cmd.Printf("  Language model:  %s\n", settings.GenerationModel)
	cmd.Printf("  Ollama URL:      %s\n", settings.OllamaBaseURL)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size:    %d words\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d words\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Answers]")
	cmd.Printf("  Max chunks:     %d\n", settings.Answer.MaxChunks)
	cmd.Printf("  Min similarity: %.2f\n", settings.Answer.Threshold())
	cmd.Printf("  Max context:    %d chars\n", settings.Answer.MaxContextChars)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Configuration issue: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Recall Settings Wizard")
	cmd.Println("======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Embedding model
	cmd.Println("Step 1: Select Embedding Model")
	cmd.Println("------------------------------")
	var catalog []domain.EmbeddingModelDescriptor
	if embeddingProvider != nil {
		catalog = embeddingProvider.Models()
	} else {
		catalog = domain.EmbeddingModelCatalog()
	}
	current := 1
	for i, m := range catalog {
		cmd.Printf("  %d. %s (%d dims, ~%d MB)\n", i+1, m.Name, m.Dimensions, m.ApproxSizeMB)
		if m.ID == settings.EmbeddingModel {
			current = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	idx := parseChoice(readLine(reader), len(catalog), current)
	settings.EmbeddingModel = catalog[idx-1].ID
	cmd.Printf("Embedding model: %s\n\n", settings.EmbeddingModel)

	// Step 2: Language model
	cmd.Println("Step 2: Language Model")
	cmd.Println("----------------------")
	cmd.Printf("Enter model name [%s]: ", settings.GenerationModel)
	if model := readLine(reader); model != "" {
		settings.GenerationModel = model
	}
	cmd.Println()

	// Step 3: Ollama endpoint
	cmd.Println("Step 3: Ollama Endpoint")
	cmd.Println("-----------------------")
	cmd.Printf("Enter base URL [%s]: ", settings.OllamaBaseURL)
	if url := readLine(reader); url != "" {
		settings.OllamaBaseURL = url
	}
	cmd.Println()

	// Step 4: Chunking
	cmd.Println("Step 4: Chunking")
	cmd.Println("----------------")
	cmd.Printf("Chunk size in words [%d]: ", settings.Chunking.Size)
	settings.Chunking.Size = parseNumber(readLine(reader), settings.Chunking.Size)
	cmd.Printf("Overlap in words [%d]: ", settings.Chunking.Overlap)
	settings.Chunking.Overlap = parseNumber(readLine(reader), settings.Chunking.Overlap)
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := checkOllama(cmd, settings.OllamaBaseURL); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	printReindexHint(cmd)

	return nil
}

func runSettingsChunking(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg := domain.ChunkingConfig{Size: chunkSize, Overlap: chunkOverlap}
	if err := settingsService.SetChunking(cfg); err != nil {
		return fmt.Errorf("failed to set chunking: %w", err)
	}
	cmd.Printf("Chunking set to %d words with %d overlap.\n", cfg.Size, cfg.Overlap)
	printReindexHint(cmd)
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetGenerationModel(args[0]); err != nil {
		return fmt.Errorf("failed to set language model: %w", err)
	}
	cmd.Printf("Language model set to %s. Load it with 'recall llm load'.\n", args[0])
	return nil
}

func runSettingsOllama(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.OllamaBaseURL = strings.TrimRight(args[0], "/")
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to set Ollama URL: %w", err)
	}
	cmd.Printf("Ollama URL set to %s.\n", settings.OllamaBaseURL)

	cmd.Print("Validating connection... ")
	if err := checkOllama(cmd, settings.OllamaBaseURL); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return nil
	}
	cmd.Println("OK")
	return nil
}

func runSettingsAnswer(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if answerMaxChunks > 0 {
		settings.Answer.MaxChunks = answerMaxChunks
	}
	if cmd.Flags().Changed("min") {
		settings.Answer.MinSimilarity = domain.Similarity(answerMin)
	}
	if answerMaxCtx > 0 {
		settings.Answer.MaxContextChars = answerMaxCtx
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save answer settings: %w", err)
	}
	cmd.Printf("Answers use up to %d chunks above %.2f similarity, %d characters of context.\n",
		settings.Answer.MaxChunks, settings.Answer.Threshold(), settings.Answer.MaxContextChars)
	return nil
}

func checkOllama(cmd *cobra.Command, url string) error {
	if validateOllamaURL == nil {
		return nil
	}
	return validateOllamaURL(commandContext(cmd), url)
}

// printReindexHint tells the user when the index no longer matches settings.
func printReindexHint(cmd *cobra.Command) {
	if indexService == nil {
		return
	}
	status, err := indexService.Status(commandContext(cmd))
	if err == nil && status.RequiresReindex && status.TotalChunks > 0 {
		cmd.Println("The index no longer matches these settings. Run 'recall index rebuild'.")
	}
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseNumber(input string, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil {
		return defaultVal
	}
	return val
}
