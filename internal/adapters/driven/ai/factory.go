// Package ai provides factory functions for creating the local model runtimes.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/recall/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/custodia-labs/recall/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/recall/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for runtime connectivity validation.
const pingTimeout = 5 * time.Second

// Runtimes holds the model runtimes built from settings.
type Runtimes struct {
	Embedding  driven.EmbeddingRuntime
	Generation driven.GenerationRuntime
}

// Close releases all resources held by Runtimes.
func (r *Runtimes) Close() {
	if r.Embedding != nil {
		r.Embedding.Close()
	}
	if r.Generation != nil {
		r.Generation.Close()
	}
}

// NewRuntimes creates the Ollama embedding and generation runtimes.
// Nothing is contacted until a model is loaded.
func NewRuntimes(settings *domain.AppSettings) *Runtimes {
	if settings == nil {
		defaults := domain.DefaultSettings()
		settings = &defaults
	}
	cfg := ollamaapi.Config{BaseURL: settings.OllamaBaseURL}

	return &Runtimes{
		Embedding: ollamaembed.NewEmbeddingRuntime(ollamaembed.Config{
			Config:    cfg,
			RateLimit: settings.EmbeddingRateLimit,
		}),
		Generation: ollamallm.NewGenerationRuntime(cfg),
	}
}

// pinger is satisfied by both runtimes.
type pinger interface {
	Ping(ctx context.Context) error
}

// Check validates that the runtime answers within pingTimeout.
// The error carries guidance for the user.
func Check(ctx context.Context, runtime pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := runtime.Ping(ctx); err != nil {
		return fmt.Errorf("%w. Is Ollama running? Start it with 'ollama serve'", err)
	}
	return nil
}
