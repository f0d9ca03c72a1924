package driven

import "github.com/custodia-labs/recall/internal/core/domain"

// CatalogStore loads user-defined embedding model descriptors.
// The built-in catalog is always available; these entries extend it.
type CatalogStore interface {
	// Load returns the custom descriptors. A missing file yields none.
	Load() ([]domain.EmbeddingModelDescriptor, error)
}
