package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ArticleProvider supplies article text to the index.
// The index only reads; the archive owns the data.
type ArticleProvider interface {
	// GetArticle retrieves an article with its comments.
	// Returns domain.ErrNotFound if it does not exist.
	GetArticle(ctx context.Context, id int64) (*domain.Article, error)

	// ListArticles returns every article in listing order (ascending id).
	ListArticles(ctx context.Context) ([]domain.Article, error)
}

// ArticleStore persists the article archive.
// Backed by SQLite.
type ArticleStore interface {
	ArticleProvider

	// SaveArticle inserts (ID == 0) or updates an article and assigns its ID.
	// Comments are not written; use AddComment.
	SaveArticle(ctx context.Context, article *domain.Article) error

	// AddComment appends a comment to an article.
	AddComment(ctx context.Context, comment *domain.Comment) error

	// DeleteArticle removes an article and its comments.
	DeleteArticle(ctx context.Context, id int64) error

	// FindBySourcePath returns the article imported from path.
	// Returns domain.ErrNotFound if none.
	FindBySourcePath(ctx context.Context, path string) (*domain.Article, error)
}
