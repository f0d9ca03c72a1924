package ai

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/recall/internal/adapters/driven/ollamaapi"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// ValidateBaseURL checks that baseURL is well formed and that an Ollama
// server answers there. Used before persisting a new runtime address.
func ValidateBaseURL(ctx context.Context, baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: ollama url must be http(s)://host[:port], got %q", domain.ErrInvalidInput, baseURL)
	}
	return Check(ctx, ollamaapi.NewClient(ollamaapi.Config{BaseURL: baseURL}))
}
