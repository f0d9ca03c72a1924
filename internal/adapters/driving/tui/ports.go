// Package tui provides an interactive terminal user interface for recall.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index provides semantic search and index status.
	Index driving.IndexService

	// Question answers questions from the archive. Optional.
	Question driving.QuestionService

	// Articles lists and loads archived articles. Optional.
	Articles driving.ArticleService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	index driving.IndexService,
	question driving.QuestionService,
	articles driving.ArticleService,
) *Ports {
	return &Ports{
		Index:    index,
		Question: question,
		Articles: articles,
	}
}

// Validate ensures all required ports are set.
// Returns an error if a required port is nil.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
