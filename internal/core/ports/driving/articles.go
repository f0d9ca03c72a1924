package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ArticleService manages the article archive and keeps the index in step with it.
type ArticleService interface {
	// Save creates or updates an article and re-indexes it.
	Save(ctx context.Context, article *domain.Article) error

	// Get retrieves an article with its comments.
	Get(ctx context.Context, id int64) (*domain.Article, error)

	// List returns all articles.
	List(ctx context.Context) ([]domain.Article, error)

	// Delete removes an article and its chunks.
	Delete(ctx context.Context, id int64) error

	// FindBySourcePath returns the article imported from path.
	// Returns domain.ErrNotFound if none.
	FindBySourcePath(ctx context.Context, path string) (*domain.Article, error)

	// AddComment appends a comment and re-indexes the article.
	AddComment(ctx context.Context, articleID int64, text string) (*domain.Comment, error)
}
