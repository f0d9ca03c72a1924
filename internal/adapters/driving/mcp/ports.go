package mcp

import (
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Index provides search, status and rebuild.
	Index driving.IndexService

	// Question answers questions. Optional; the ask tool reports an error without it.
	Question driving.QuestionService

	// Articles resolves titles and serves article resources. Optional.
	Articles driving.ArticleService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Index == nil {
		return ErrMissingIndexService
	}
	return nil
}
