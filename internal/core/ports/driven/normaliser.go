package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Normaliser turns an imported file into article fields.
// The returned article has Title and Text set; the importer fills the rest.
//
// Implementations include:
//   - HTML (title from <title>, tags stripped)
//   - Markdown (title from the first "# " heading)
//   - Plain text (title from the filename)
type Normaliser interface {
	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Normalise extracts the article from file content.
	Normalise(ctx context.Context, path string, content []byte) (*domain.Article, error)
}
