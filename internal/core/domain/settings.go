package domain

// DefaultOllamaBaseURL is the local Ollama endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434"

// AppSettings holds the user-configurable settings.
type AppSettings struct {
	// EmbeddingModel is the selected embedding model id.
	EmbeddingModel string

	// EmbeddingRateLimit caps embedding requests per second. Zero means unlimited.
	EmbeddingRateLimit float64

	// GenerationModel is the language model used to answer questions.
	GenerationModel string

	// OllamaBaseURL is the local runtime endpoint.
	OllamaBaseURL string

	// Chunking controls how articles are split.
	Chunking ChunkingConfig

	// Answer holds the question answering defaults.
	Answer AskOptions
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() AppSettings {
	return AppSettings{
		EmbeddingModel:  DefaultEmbeddingModelID,
		GenerationModel: DefaultGenerationModel,
		OllamaBaseURL:   DefaultOllamaBaseURL,
		Chunking:        DefaultChunkingConfig(),
		Answer:          AskOptions{}.WithDefaults(),
	}
}
