package driving

import "github.com/custodia-labs/recall/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetChunking validates and persists the chunking configuration.
	SetChunking(cfg domain.ChunkingConfig) error

	// SetGenerationModel persists the language model used for answering.
	SetGenerationModel(model string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Validate checks the current settings.
	Validate() error
}
