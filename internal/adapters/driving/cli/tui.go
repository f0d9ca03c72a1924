package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// TUIConfig holds configuration for the TUI command.
type TUIConfig struct {
	IndexService    driving.IndexService
	QuestionService driving.QuestionService
	ArticleService  driving.ArticleService
	SettingsService driving.SettingsService
}

// tuiConfig holds the current TUI configuration.
var tuiConfig *TUIConfig

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Recall.

The TUI lets you search the archive, ask questions answered from your
articles, browse and read articles, and check the index status.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Submit / Open
  n        - New query
  Esc      - Back
  ctrl+c   - Quit`,
	RunE: runTUI,
}

// SetTUIConfig sets the configuration for the TUI command.
func SetTUIConfig(config *TUIConfig) {
	tuiConfig = config
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	// Build ports from configuration
	ports := &tui.Ports{}
	var opts []tui.Option

	if tuiConfig != nil {
		ports.Index = tuiConfig.IndexService
		ports.Question = tuiConfig.QuestionService
		ports.Articles = tuiConfig.ArticleService
		if tuiConfig.SettingsService != nil {
			if settings, err := tuiConfig.SettingsService.Get(); err == nil {
				opts = append(opts, tui.WithAskOptions(settings.Answer))
			}
		}
	}

	app, err := tui.NewApp(ports, opts...)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
