// Package ollama provides an embedding runtime adapter using Ollama.
package ollama

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/recall/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure EmbeddingRuntime implements the interface.
var _ driven.EmbeddingRuntime = (*EmbeddingRuntime)(nil)

// Config holds configuration for the Ollama embedding runtime.
type Config struct {
	ollamaapi.Config

	// RateLimit caps embedding requests per second. Zero means unlimited.
	RateLimit float64
}

// EmbeddingRuntime generates embeddings using Ollama.
type EmbeddingRuntime struct {
	client  *ollamaapi.Client
	limiter *rate.Limiter
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model     string `json:"model"`
	Input     any    `json:"input"`
	Truncate  bool   `json:"truncate"`
	KeepAlive any    `json:"keep_alive,omitempty"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewEmbeddingRuntime creates a new Ollama embedding runtime.
func NewEmbeddingRuntime(cfg Config) *EmbeddingRuntime {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &EmbeddingRuntime{
		client:  ollamaapi.NewClient(cfg.Config),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Load downloads the model if needed and warms it with a single embedding.
func (r *EmbeddingRuntime) Load(ctx context.Context, ref string, progress driven.ProgressFunc) error {
	if err := r.client.Ensure(ctx, ref, progress); err != nil {
		return err
	}
	if _, err := r.embed(ctx, ref, "warm up"); err != nil {
		return fmt.Errorf("warm up %s: %w", ref, err)
	}
	return nil
}

// Embed generates a vector embedding for the given text.
func (r *EmbeddingRuntime) Embed(ctx context.Context, ref, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.embed(ctx, ref, text)
}

func (r *EmbeddingRuntime) embed(ctx context.Context, ref, text string) ([]float32, error) {
	var resp embedResponse
	err := r.client.Call(ctx, "/api/embed", embedRequest{
		Model:     ref,
		Input:     text,
		Truncate:  true,
		KeepAlive: r.client.KeepAlive(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("ollama: %s returned no embedding", ref)
	}

	// Convert float64 to float32
	embedding := make([]float32, len(resp.Embeddings[0]))
	for i, v := range resp.Embeddings[0] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("ollama: %s returned a non-finite value", ref)
		}
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Unload asks Ollama to evict the model immediately.
func (r *EmbeddingRuntime) Unload(ctx context.Context, ref string) error {
	return r.client.Call(ctx, "/api/embed", embedRequest{
		Model:     ref,
		Input:     []string{},
		KeepAlive: 0,
	}, nil)
}

// Ping validates the runtime is reachable.
func (r *EmbeddingRuntime) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// Close releases resources.
func (r *EmbeddingRuntime) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
