package domain

import (
	"fmt"
	"time"
)

// Default chunking parameters, in words.
const (
	DefaultChunkSize    = 100
	DefaultChunkOverlap = 25
)

// Chunk is a contiguous word window of one article's combined text.
// Indexes are contiguous from 0 per article.
type Chunk struct {
	// ID is the unique row identifier.
	ID string

	// ArticleID links to the owning Article.
	ArticleID int64

	// Index is the zero-based position within the article.
	Index int

	// Content is the plain text of the window.
	Content string

	// Embedding is the unit-length vector for semantic search.
	Embedding []float32

	// ModelID is the embedding model that produced Embedding.
	ModelID string

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}

// ChunkingConfig controls how article text is split.
type ChunkingConfig struct {
	// Size is the window length in words.
	Size int

	// Overlap is the number of words shared by consecutive windows.
	Overlap int
}

// DefaultChunkingConfig returns the default chunking parameters.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Validate reports whether the window can advance.
func (c ChunkingConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkingConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidChunkingConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidChunkingConfig, c.Overlap, c.Size)
	}
	return nil
}

// Version identifies the configuration in index metadata, e.g. "100-25".
func (c ChunkingConfig) Version() string {
	return fmt.Sprintf("%d-%d", c.Size, c.Overlap)
}
