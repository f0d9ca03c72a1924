// Package plaintext provides a normaliser for plain text notes.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text files.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt"}
}

// Normalise turns a text file into an article titled after the file name.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Article, error) {
	if content == nil {
		return nil, domain.ErrInvalidInput
	}

	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &domain.Article{
		Title:      strings.NewReplacer("_", " ", "-", " ").Replace(name),
		Text:       strings.TrimSpace(strings.ReplaceAll(string(content), "\r\n", "\n")),
		SourcePath: path,
	}, nil
}
