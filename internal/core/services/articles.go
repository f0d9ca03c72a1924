package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure ArticleService implements the interface.
var _ driving.ArticleService = (*ArticleService)(nil)

// ArticleService writes to the archive and keeps the index in step.
// Writes re-index the article; deletes remove it from the index first.
type ArticleService struct {
	store driven.ArticleStore
	index driving.IndexService
}

// NewArticleService creates a new article service.
func NewArticleService(store driven.ArticleStore, index driving.IndexService) *ArticleService {
	return &ArticleService{store: store, index: index}
}

// Save creates or updates an article and re-indexes it. The article stays
// saved when indexing fails; the error reports the indexing failure.
func (s *ArticleService) Save(ctx context.Context, article *domain.Article) error {
	if article == nil || strings.TrimSpace(article.Title) == "" {
		return fmt.Errorf("article title: %w", domain.ErrInvalidInput)
	}
	if article.Date.IsZero() {
		article.Date = time.Now()
	}
	if err := s.store.SaveArticle(ctx, article); err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return s.reindex(ctx, article.ID)
}

// Get retrieves an article with its comments.
func (s *ArticleService) Get(ctx context.Context, id int64) (*domain.Article, error) {
	return s.store.GetArticle(ctx, id)
}

// List returns all articles.
func (s *ArticleService) List(ctx context.Context) ([]domain.Article, error) {
	return s.store.ListArticles(ctx)
}

// FindBySourcePath returns the article imported from path.
func (s *ArticleService) FindBySourcePath(ctx context.Context, path string) (*domain.Article, error) {
	return s.store.FindBySourcePath(ctx, path)
}

// Delete removes an article and its chunks.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	if err := s.index.RemoveArticle(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	return nil
}

// AddComment appends a comment and re-indexes the article.
func (s *ArticleService) AddComment(ctx context.Context, articleID int64, text string) (*domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("comment text: %w", domain.ErrInvalidInput)
	}
	comment := &domain.Comment{ArticleID: articleID, Text: text, CreatedAt: time.Now()}
	if err := s.store.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return comment, s.reindex(ctx, articleID)
}

func (s *ArticleService) reindex(ctx context.Context, id int64) error {
	n, err := s.index.IndexArticle(ctx, id)
	if err != nil {
		logger.Warn("Index article %d: %v", id, err)
		return fmt.Errorf("index article %d: %w", id, err)
	}
	logger.Debug("Article %d re-indexed with %d chunks", id, n)
	return nil
}
