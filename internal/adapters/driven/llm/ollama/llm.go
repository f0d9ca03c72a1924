// Package ollama provides a generation runtime adapter using Ollama.
package ollama

import (
	"context"
	"fmt"

	"github.com/custodia-labs/recall/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure GenerationRuntime implements the interface.
var _ driven.GenerationRuntime = (*GenerationRuntime)(nil)

// GenerationRuntime runs language models through Ollama.
type GenerationRuntime struct {
	client *ollamaapi.Client
}

// generateRequest is the Ollama /api/generate request format.
// Without a prompt it only loads or unloads the model.
type generateRequest struct {
	Model     string `json:"model"`
	Stream    bool   `json:"stream"`
	KeepAlive any    `json:"keep_alive,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewGenerationRuntime creates a new Ollama generation runtime.
func NewGenerationRuntime(cfg ollamaapi.Config) *GenerationRuntime {
	return &GenerationRuntime{client: ollamaapi.NewClient(cfg)}
}

// Load downloads the model if needed and makes it resident.
func (r *GenerationRuntime) Load(ctx context.Context, model string, progress driven.ProgressFunc) error {
	if err := r.client.Ensure(ctx, model, progress); err != nil {
		return err
	}
	if err := r.client.Call(ctx, "/api/generate", generateRequest{
		Model:     model,
		KeepAlive: r.client.KeepAlive(),
	}, nil); err != nil {
		return fmt.Errorf("load %s: %w", model, err)
	}
	return nil
}

// Chat conducts a single non-streaming exchange.
func (r *GenerationRuntime) Chat(
	ctx context.Context, model string, messages []driven.ChatMessage, opts driven.ChatOptions,
) (string, error) {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqBody := chatRequest{
		Model:     model,
		Messages:  chatMessages,
		Stream:    false,
		KeepAlive: r.client.KeepAlive(),
		Options: &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}

	var resp chatResponse
	if err := r.client.Call(ctx, "/api/chat", reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Unload asks Ollama to evict the model immediately.
func (r *GenerationRuntime) Unload(ctx context.Context, model string) error {
	return r.client.Call(ctx, "/api/generate", generateRequest{Model: model, KeepAlive: 0}, nil)
}

// Ping validates the runtime is reachable.
func (r *GenerationRuntime) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// Close releases resources.
func (r *GenerationRuntime) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
