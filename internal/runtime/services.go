// Package runtime wires the adapters and core services into one process-wide
// set. The driving surfaces (CLI, TUI, MCP, watcher) share it.
package runtime

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/recall/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
	"github.com/custodia-labs/recall/internal/postprocessors"
)

// EnvOllamaURL overrides ollama.base_url.
const EnvOllamaURL = "RECALL_OLLAMA_URL"

// Options locates the on-disk state. Empty fields use ~/.recall.
type Options struct {
	// ConfigDir holds config.toml, models.yaml and prompts/.
	ConfigDir string

	// DataDir holds the SQLite database.
	DataDir string
}

// Services holds the model slots, stores and services of one process.
// Model instances live here rather than in package globals.
type Services struct {
	Config      *file.ConfigStore
	Prompts     *file.PromptStore
	Store       *sqlite.Store
	Runtimes    *ai.Runtimes
	Catalog     []domain.EmbeddingModelDescriptor
	Normalisers *normalisers.Registry

	Settings   *services.SettingsService
	Embedding  *services.EmbeddingProvider
	Generation *services.GenerationModel
	Index      *services.IndexService
	Answer     *services.AnswerService
	Articles   *services.ArticleService
}

// New opens the stores and builds the services. No model runtime is
// contacted until a model is loaded.
func New(opts Options) (*Services, error) {
	config, err := file.NewConfigStore(opts.ConfigDir,
		file.WithEnvOverride(services.ConfigKeyOllamaBaseURL, EnvOllamaURL))
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	catalogStore, err := file.NewCatalogStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open model catalog: %w", err)
	}
	custom, err := catalogStore.Load()
	if err != nil {
		return nil, err
	}
	catalog := domain.MergeEmbeddingCatalog(custom)
	if len(custom) > 0 {
		logger.Debug("Loaded %d custom embedding models from %s", len(custom), catalogStore.Path())
	}

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	settingsSvc := services.NewSettingsService(config, catalog)
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("Store opened at %s", store.Path())

	runtimes := ai.NewRuntimes(settings)

	embedding := services.NewEmbeddingProvider(runtimes.Embedding, config, catalog)
	generation := services.NewGenerationModel(runtimes.Generation, config)
	index := services.NewIndexService(
		store.ArticleStore(),
		store.ChunkStore(),
		embedding,
		postprocessors.NewDefaultRegistry(),
		config,
	)

	return &Services{
		Config:      config,
		Prompts:     prompts,
		Store:       store,
		Runtimes:    runtimes,
		Catalog:     catalog,
		Normalisers: normalisers.Default(),
		Settings:    settingsSvc,
		Embedding:   embedding,
		Generation:  generation,
		Index:       index,
		Answer:      services.NewAnswerService(index, generation, store.ArticleStore(), prompts),
		Articles:    services.NewArticleService(store.ArticleStore(), index),
	}, nil
}

// Close releases the runtimes and the store.
func (s *Services) Close() error {
	var errs []error
	if s.Runtimes != nil {
		s.Runtimes.Close()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
