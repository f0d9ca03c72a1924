package postprocessors

import (
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/postprocessors/chunker"
)

// WordChunker is the name of the overlapping word window chunker.
const WordChunker = "words"

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(WordChunker, buildWordChunker)
}

// NewDefaultRegistry returns a registry with the built-in chunkers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

func buildWordChunker(cfg domain.ChunkingConfig) (driven.Chunker, error) {
	p, err := chunker.New(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
