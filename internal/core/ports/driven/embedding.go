// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ProgressFunc receives model download progress. It may be nil.
type ProgressFunc func(domain.PullProgress)

// EmbeddingRuntime runs embedding models on the local machine.
//
// Note: the runtime is stateless from the core's point of view. Which model
// is resident, and when it is swapped, is decided by the EmbeddingProvider
// service.
//
// Implementations may include:
//   - Ollama (all-minilm, nomic-embed-text, mxbai-embed-large)
type EmbeddingRuntime interface {
	// Load makes the model resident, downloading it first if it is missing.
	Load(ctx context.Context, ref string, progress ProgressFunc) error

	// Embed generates a vector for text with a loaded model.
	Embed(ctx context.Context, ref, text string) ([]float32, error)

	// Unload releases the model's memory.
	Unload(ctx context.Context, ref string) error

	// Ping validates the runtime is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
