package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure ArticleStore implements the interface.
var _ driven.ArticleStore = (*ArticleStore)(nil)

// ArticleStore is an in-memory implementation of driven.ArticleStore.
type ArticleStore struct {
	mu            sync.RWMutex
	articles      map[int64]domain.Article
	nextArticleID int64
	nextCommentID int64
}

// NewArticleStore creates a new in-memory article store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		articles: make(map[int64]domain.Article),
	}
}

// SaveArticle inserts (ID == 0) or updates an article. Existing comments are kept.
func (s *ArticleStore) SaveArticle(_ context.Context, article *domain.Article) error {
	if article == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if article.ID == 0 {
		s.nextArticleID++
		article.ID = s.nextArticleID
		article.CreatedAt = now
	} else if existing, ok := s.articles[article.ID]; ok {
		article.CreatedAt = existing.CreatedAt
		article.Comments = existing.Comments
	} else if article.ID > s.nextArticleID {
		s.nextArticleID = article.ID
	}
	article.UpdatedAt = now

	stored := *article
	stored.Comments = append([]domain.Comment(nil), article.Comments...)
	s.articles[article.ID] = stored
	return nil
}

// AddComment appends a comment to an article.
func (s *ArticleStore) AddComment(_ context.Context, comment *domain.Comment) error {
	if comment == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[comment.ArticleID]
	if !ok {
		return domain.ErrNotFound
	}
	s.nextCommentID++
	comment.ID = s.nextCommentID
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	article.Comments = append(article.Comments, *comment)
	s.articles[article.ID] = article
	return nil
}

// GetArticle retrieves an article by ID.
func (s *ArticleStore) GetArticle(_ context.Context, id int64) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.articles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	article.Comments = append([]domain.Comment(nil), article.Comments...)
	return &article, nil
}

// ListArticles returns all articles ordered by ID.
func (s *ArticleStore) ListArticles(_ context.Context) ([]domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Article, 0, len(s.articles))
	for _, a := range s.articles {
		a.Comments = append([]domain.Comment(nil), a.Comments...)
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteArticle removes an article and its comments.
func (s *ArticleStore) DeleteArticle(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.articles, id)
	return nil
}

// FindBySourcePath returns the article imported from path.
func (s *ArticleStore) FindBySourcePath(_ context.Context, path string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if path != "" && a.SourcePath == path {
			a.Comments = append([]domain.Comment(nil), a.Comments...)
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}
