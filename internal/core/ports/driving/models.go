package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// EmbeddingProvider turns text into unit-length vectors with the selected model.
type EmbeddingProvider interface {
	// Load makes the selected model resident. Idempotent.
	Load(ctx context.Context) error

	// Unload releases the resident model.
	Unload(ctx context.Context) error

	// Embed returns the L2-normalised embedding of text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// SelectModel persists a new model selection. The model is swapped on next use.
	SelectModel(id string) error

	// SelectedModel returns the descriptor of the persisted selection.
	SelectedModel() (domain.EmbeddingModelDescriptor, error)

	// Models lists the catalog.
	Models() []domain.EmbeddingModelDescriptor

	// Status reports the model slot state.
	Status() domain.ModelStatus
}

// GenerationModel is the language model used to answer questions.
type GenerationModel interface {
	// Load makes model resident, downloading it if needed. An empty model
	// loads the persisted selection. Loading a different model disposes the old one.
	Load(ctx context.Context, model string, progress func(domain.PullProgress)) error

	// Cancel aborts an in-flight load.
	Cancel()

	// Unload releases the resident model.
	Unload(ctx context.Context) error

	// Status reports whether a model is loaded.
	Status() domain.GenerationStatus

	// Generate produces a completion for prompt under systemPrompt.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}
