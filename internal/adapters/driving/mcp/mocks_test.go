package mcp

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	hits    []domain.SearchHit
	status  domain.IndexStatus
	rebuild domain.RebuildResult
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockIndexService) IndexArticle(_ context.Context, _ int64) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) RemoveArticle(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockIndexService) RebuildIndex(_ context.Context, _ driving.RebuildOptions) (domain.RebuildResult, error) {
	return m.rebuild, m.err
}

func (m *mockIndexService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

func (m *mockIndexService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockIndexService) IsIndexed(_ context.Context, _ int64) (bool, error) {
	return false, m.err
}

func (m *mockIndexService) ArticleStatus(_ context.Context, _ int64) (*domain.ArticleIndexStatus, error) {
	return nil, m.err
}

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	result *domain.AskResult
	err    error

	lastOpts domain.AskOptions
}

func (m *mockQuestionService) Ask(_ context.Context, _ string, opts domain.AskOptions) (*domain.AskResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

// mockArticleService is a mock implementation of driving.ArticleService.
type mockArticleService struct {
	articles map[int64]*domain.Article
	err      error
}

func (m *mockArticleService) Save(_ context.Context, _ *domain.Article) error {
	return m.err
}

func (m *mockArticleService) Get(_ context.Context, id int64) (*domain.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.articles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (m *mockArticleService) List(_ context.Context) ([]domain.Article, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Article, 0, len(m.articles))
	for id := int64(1); len(out) < len(m.articles); id++ {
		if a, ok := m.articles[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockArticleService) FindBySourcePath(_ context.Context, _ string) (*domain.Article, error) {
	return nil, domain.ErrNotFound
}

func (m *mockArticleService) Delete(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockArticleService) AddComment(_ context.Context, _ int64, _ string) (*domain.Comment, error) {
	return nil, m.err
}
