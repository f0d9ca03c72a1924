package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// ChunkStore persists chunk text with embeddings, per-article indexing
// status and the index metadata record.
// Backed by SQLite.
type ChunkStore interface {
	// ReplaceArticleChunks deletes the article's chunks and status and writes
	// the new ones in a single transaction.
	ReplaceArticleChunks(ctx context.Context, articleID int64, chunks []domain.Chunk, status domain.ArticleIndexStatus) error

	// DeleteArticle removes all chunks and the status row of an article.
	DeleteArticle(ctx context.Context, articleID int64) error

	// Clear removes every chunk and status row.
	Clear(ctx context.Context) error

	// ScanChunks calls fn for every chunk produced by modelID, in storage order.
	// Returning an error from fn stops the scan and returns that error.
	ScanChunks(ctx context.Context, modelID string, fn func(chunk domain.Chunk) error) error

	// GetChunks returns the chunks of one article ordered by index.
	GetChunks(ctx context.Context, articleID int64) ([]domain.Chunk, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// CountIndexedArticles returns the number of status rows.
	CountIndexedArticles(ctx context.Context) (int, error)

	// GetArticleStatus returns the status row of an article.
	// Returns domain.ErrNotFound if the article is not indexed.
	GetArticleStatus(ctx context.Context, articleID int64) (*domain.ArticleIndexStatus, error)

	// GetMetadata returns the index metadata record.
	// Returns domain.ErrNotFound if the index was never built.
	GetMetadata(ctx context.Context) (*domain.IndexMetadata, error)

	// SaveMetadata overwrites the index metadata record.
	SaveMetadata(ctx context.Context, meta domain.IndexMetadata) error
}
