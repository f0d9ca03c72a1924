// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"
)

// GenerationRuntime runs language models on the local machine.
//
// Implementations may include:
//   - Ollama (llama3.2, qwen2.5, mistral)
type GenerationRuntime interface {
	// Load makes the model resident, downloading it first if it is missing.
	Load(ctx context.Context, model string, progress ProgressFunc) error

	// Chat conducts a single exchange with a system and user message.
	Chat(ctx context.Context, model string, messages []ChatMessage, opts ChatOptions) (string, error)

	// Unload releases the model's memory.
	Unload(ctx context.Context, model string) error

	// Ping validates the runtime is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
