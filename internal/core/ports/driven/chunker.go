package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Chunker splits article text into the units that get embedded.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits cleaned text into windows.
	Chunk(text string) []string

	// Process builds the chunks of an article. Embeddings are left empty.
	Process(ctx context.Context, article *domain.Article) ([]domain.Chunk, error)
}

// ChunkerFactory builds a chunker for a chunking configuration.
// Invalid configurations fail here.
type ChunkerFactory interface {
	NewChunker(cfg domain.ChunkingConfig) (Chunker, error)
}
