package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Recall resources.
	uriScheme = "recall://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing articles.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "articles",
		Name:        "articles",
		Description: "List of all archived articles",
		MIMEType:    "application/json",
	}, s.handleArticlesResource)

	// Template for article content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "articles/{articleId}",
		Name:        "article-content",
		Description: "Full text of an article with its explanation and comments",
		MIMEType:    "text/plain",
	}, s.handleArticleResource)
}

// handleArticlesResource returns a list of all articles.
func (s *Server) handleArticlesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Articles == nil {
		return textResource(req.Params.URI, "application/json", "[]"), nil
	}

	articles, err := s.ports.Articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	// Build simplified article list.
	type articleInfo struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date,omitempty"`
		URI   string `json:"uri"`
	}

	infos := make([]articleInfo, len(articles))
	for i := range articles {
		ref := articles[i].Ref()
		infos[i] = articleInfo{
			ID:    ref.ID,
			Title: ref.Title,
			URI:   fmt.Sprintf("%sarticles/%d", uriScheme, ref.ID),
		}
		if !ref.Date.IsZero() {
			infos[i].Date = ref.Date.Format("2006-01-02")
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling articles: %w", err)
	}

	return textResource(req.Params.URI, "application/json", string(data)), nil
}

// handleArticleResource returns the text of a specific article.
func (s *Server) handleArticleResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Articles == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract articleId from URI: recall://articles/{articleId}
	id := extractArticleID(req.Params.URI)
	if id == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	article, err := s.ports.Articles.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting article: %w", err)
	}

	return textResource(req.Params.URI, "text/plain", renderArticle(article)), nil
}

// renderArticle formats an article as plain text.
func renderArticle(a *domain.Article) string {
	var b strings.Builder
	b.WriteString("# " + a.Title + "\n")
	if date := a.Ref().Date; !date.IsZero() {
		b.WriteString("Date: " + date.Format("2006-01-02") + "\n")
	}
	if a.Text != "" {
		b.WriteString("\n" + a.Text + "\n")
	}
	if a.Explanation != "" {
		b.WriteString("\nExplanation:\n" + a.Explanation + "\n")
	}
	if len(a.Comments) > 0 {
		b.WriteString("\nComments:\n")
		for _, c := range a.Comments {
			b.WriteString("- " + c.Text + "\n")
		}
	}
	return b.String()
}

func textResource(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		}},
	}
}

// extractArticleID extracts the article ID from a URI like recall://articles/{articleId}.
// Returns 0 when the URI does not name a valid article.
func extractArticleID(uri string) int64 {
	const prefix = uriScheme + "articles/"

	if !strings.HasPrefix(uri, prefix) {
		return 0
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
