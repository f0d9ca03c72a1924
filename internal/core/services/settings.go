package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbeddingModel     = "embedding.model"
	keyEmbeddingRateLimit = "embedding.rate_limit"
	keyLLMModel           = "llm.model"
	keyOllamaBaseURL      = "ollama.base_url"
	keyChunkSize          = "chunking.size"
	keyChunkOverlap       = "chunking.overlap"
	keyAnswerMaxChunks    = "answer.max_chunks"
	keyAnswerMinSimilar   = "answer.min_similarity"
	keyAnswerMaxContext   = "answer.max_context_chars"
)

// Exported config keys for adapters that bind environment overrides.
const (
	ConfigKeyOllamaBaseURL = keyOllamaBaseURL
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	catalog     []domain.EmbeddingModelDescriptor
}

// NewSettingsService creates a new settings service.
// The catalog validates the embedding model selection.
func NewSettingsService(configStore driven.ConfigStore, catalog []domain.EmbeddingModelDescriptor) *SettingsService {
	if len(catalog) == 0 {
		catalog = domain.EmbeddingModelCatalog()
	}
	return &SettingsService{
		configStore: configStore,
		catalog:     catalog,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.AppSettings{
		EmbeddingModel:     getString(s.configStore, keyEmbeddingModel, defaults.EmbeddingModel),
		EmbeddingRateLimit: s.configStore.GetFloat(keyEmbeddingRateLimit),
		GenerationModel:    getString(s.configStore, keyLLMModel, defaults.GenerationModel),
		OllamaBaseURL:      getString(s.configStore, keyOllamaBaseURL, defaults.OllamaBaseURL),
		Chunking:           chunkingConfig(s.configStore),
		Answer: domain.AskOptions{
			MaxChunks:       s.configStore.GetInt(keyAnswerMaxChunks),
			MaxContextChars: s.configStore.GetInt(keyAnswerMaxContext),
		},
	}
	if _, ok := s.configStore.Get(keyAnswerMinSimilar); ok {
		settings.Answer.MinSimilarity = domain.Similarity(s.configStore.GetFloat(keyAnswerMinSimilar))
	}
	settings.Answer = settings.Answer.WithDefaults()

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.ErrInvalidInput
	}
	if err := s.validate(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEmbeddingModel, settings.EmbeddingModel},
		{keyEmbeddingRateLimit, settings.EmbeddingRateLimit},
		{keyLLMModel, settings.GenerationModel},
		{keyOllamaBaseURL, settings.OllamaBaseURL},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyAnswerMaxChunks, settings.Answer.MaxChunks},
		{keyAnswerMinSimilar, settings.Answer.Threshold()},
		{keyAnswerMaxContext, settings.Answer.MaxContextChars},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetChunking validates and persists the chunking configuration.
// The index reports ChunkingMismatch until it is rebuilt.
func (s *SettingsService) SetChunking(cfg domain.ChunkingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(keyChunkSize, cfg.Size); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, cfg.Overlap); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	return nil
}

// SetGenerationModel persists the language model used for answering.
func (s *SettingsService) SetGenerationModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("generation model: %w", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyLLMModel, model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultSettings()
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validate(settings)
}

func (s *SettingsService) validate(settings *domain.AppSettings) error {
	if _, ok := domain.FindEmbeddingModel(s.catalog, settings.EmbeddingModel); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModel, settings.EmbeddingModel)
	}
	if err := settings.Chunking.Validate(); err != nil {
		return err
	}
	if settings.EmbeddingRateLimit < 0 {
		return fmt.Errorf("embedding rate limit must not be negative: %w", domain.ErrInvalidInput)
	}
	if minSim := settings.Answer.Threshold(); minSim < -1 || minSim > 1 {
		return fmt.Errorf("minimum similarity must be within [-1, 1]: %w", domain.ErrInvalidInput)
	}
	if settings.OllamaBaseURL == "" {
		return fmt.Errorf("ollama base url: %w", domain.ErrInvalidInput)
	}
	return nil
}

// Helper functions for reading config with defaults.

func getString(store driven.ConfigStore, key, defaultVal string) string {
	val := store.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getInt(store driven.ConfigStore, key string, defaultVal int) int {
	if _, exists := store.Get(key); !exists {
		return defaultVal
	}
	return store.GetInt(key)
}

// chunkingConfig reads the configured chunking, falling back to defaults for unset keys.
func chunkingConfig(store driven.ConfigStore) domain.ChunkingConfig {
	defaults := domain.DefaultChunkingConfig()
	return domain.ChunkingConfig{
		Size:    getInt(store, keyChunkSize, defaults.Size),
		Overlap: getInt(store, keyChunkOverlap, defaults.Overlap),
	}
}
