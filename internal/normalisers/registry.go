package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/normalisers/html"
	"github.com/custodia-labs/recall/internal/normalisers/markdown"
	"github.com/custodia-labs/recall/internal/normalisers/plaintext"
)

// Registry selects a normaliser by file extension.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates a registry. Later normalisers win on shared extensions.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byExt: make(map[string]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Default returns a registry with the HTML, Markdown and plain text normalisers.
func Default() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), html.New())
}

// Register adds a normaliser for all of its extensions.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// For returns the normaliser for path.
func (r *Registry) For(path string) (driven.Normaliser, bool) {
	n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return n, ok
}

// Extensions returns the supported extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
