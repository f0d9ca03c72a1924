// Package postprocessors turns article text into chunks ready for embedding.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ChunkerFactory = (*Registry)(nil)

// BuilderFunc creates a Chunker for a chunking configuration.
type BuilderFunc func(cfg domain.ChunkingConfig) (driven.Chunker, error)

// Registry maps chunker names to their builders.
// NewChunker uses the builder selected with Use.
type Registry struct {
	builders map[string]BuilderFunc
	active   string
}

// NewRegistry creates a new chunker registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a chunker builder to the registry.
// The first registered builder becomes the active one.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
	if r.active == "" {
		r.active = name
	}
}

// Use selects the builder NewChunker calls.
func (r *Registry) Use(name string) error {
	if !r.Has(name) {
		return fmt.Errorf("unknown chunker: %s", name)
	}
	r.active = name
	return nil
}

// Build creates a chunker by name with the given config.
// Returns error if the chunker name is not registered.
func (r *Registry) Build(name string, cfg domain.ChunkingConfig) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown chunker: %s", name)
	}
	return builder(cfg)
}

// NewChunker builds the active chunker.
func (r *Registry) NewChunker(cfg domain.ChunkingConfig) (driven.Chunker, error) {
	if r.active == "" {
		return nil, fmt.Errorf("no chunker registered")
	}
	return r.Build(r.active, cfg)
}

// Has returns true if a chunker with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered chunker names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
