package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// RebuildOptions configures a full index rebuild.
type RebuildOptions struct {
	// Progress is called after each article. It may be nil.
	Progress func(domain.RebuildProgress)
}

// IndexService maintains the vector index and answers semantic searches.
type IndexService interface {
	// IndexArticle (re)generates all chunks of one article.
	// Returns the number of chunks written.
	IndexArticle(ctx context.Context, articleID int64) (int, error)

	// RemoveArticle deletes every chunk of the article from the index.
	RemoveArticle(ctx context.Context, articleID int64) error

	// RebuildIndex clears the index and indexes every article in listing order.
	// On cancellation the partial result is returned together with ctx.Err().
	RebuildIndex(ctx context.Context, opts RebuildOptions) (domain.RebuildResult, error)

	// Search returns the best matching chunk per article, highest similarity first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error)

	// Status reports index contents and whether a rebuild is required.
	Status(ctx context.Context) (domain.IndexStatus, error)

	// IsIndexed reports whether the article has been indexed.
	IsIndexed(ctx context.Context, articleID int64) (bool, error)

	// ArticleStatus returns the indexing record of an article.
	ArticleStatus(ctx context.Context, articleID int64) (*domain.ArticleIndexStatus, error)
}
