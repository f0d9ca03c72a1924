package file

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure CatalogStore implements the interface.
var _ driven.CatalogStore = (*CatalogStore)(nil)

// CatalogStore reads custom embedding models from models.yaml:
//
//	models:
//	  - id: e5-small
//	    name: E5 Small v2
//	    ref: jeffh/intfloat-e5-small-v2:f16
//	    dimensions: 384
//	    approx_size_mb: 67
type CatalogStore struct {
	path string
}

type catalogFile struct {
	Models []domain.EmbeddingModelDescriptor `yaml:"models"`
}

// NewCatalogStore creates a catalog store for models.yaml in configDir.
// If configDir is empty, defaults to ~/.recall.
func NewCatalogStore(configDir string) (*CatalogStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".recall")
	}
	return &CatalogStore{path: filepath.Join(configDir, "models.yaml")}, nil
}

// Path returns the catalog file path.
func (s *CatalogStore) Path() string {
	return s.path
}

// Load returns the custom descriptors. A missing file yields none.
func (s *CatalogStore) Load() ([]domain.EmbeddingModelDescriptor, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read model catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model catalog: %w", err)
	}

	for i, m := range f.Models {
		if m.ID == "" || m.Ref == "" || m.Dimensions <= 0 {
			return nil, fmt.Errorf("model catalog entry %d: id, ref and dimensions are required: %w", i, domain.ErrInvalidInput)
		}
		if m.Name == "" {
			f.Models[i].Name = m.ID
		}
	}

	return f.Models, nil
}
