package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

func TestArticleService_SaveIndexes(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	svc := NewArticleService(f.articles, f.svc)

	a := &domain.Article{Title: "Cats", Text: "Cats are small domesticated felines."}
	require.NoError(t, svc.Save(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.Date.IsZero())

	indexed, err := f.svc.IsIndexed(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, indexed)

	hits, err := f.svc.Search(ctx, "feline", domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID, hits[0].ArticleID)
}

func TestArticleService_SaveRequiresTitle(t *testing.T) {
	idx := &countingIndex{}
	svc := NewArticleService(memory.NewArticleStore(), idx)

	assert.ErrorIs(t, svc.Save(context.Background(), &domain.Article{Text: "body"}), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Save(context.Background(), nil), domain.ErrInvalidInput)
	assert.Zero(t, idx.calls)
}

func TestArticleService_SaveKeepsArticleWhenIndexingFails(t *testing.T) {
	store := memory.NewArticleStore()
	indexErr := errors.New("runtime down")
	svc := NewArticleService(store, &countingIndex{err: indexErr})

	a := &domain.Article{Title: "Cats"}
	err := svc.Save(context.Background(), a)
	assert.ErrorIs(t, err, indexErr)

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cats", got.Title)
}

func TestArticleService_AddCommentReindexes(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	svc := NewArticleService(f.articles, f.svc)

	a := &domain.Article{Title: "Note", Text: "nothing much"}
	require.NoError(t, svc.Save(ctx, a))

	c, err := svc.AddComment(ctx, a.ID, "my kitten purrs")
	require.NoError(t, err)
	assert.Equal(t, a.ID, c.ArticleID)

	chunks, err := f.chunks.GetChunks(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "kitten purrs")

	_, err = svc.AddComment(ctx, a.ID, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestArticleService_DeleteRemovesChunks(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	svc := NewArticleService(f.articles, f.svc)

	cats := &domain.Article{Title: "Cats", Text: "felines"}
	dogs := &domain.Article{Title: "Dogs", Text: "canines"}
	require.NoError(t, svc.Save(ctx, cats))
	require.NoError(t, svc.Save(ctx, dogs))

	require.NoError(t, svc.Delete(ctx, cats.ID))

	_, err := svc.Get(ctx, cats.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, dogs.ID, list[0].ID)

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.IndexedArticles)
	assert.Equal(t, 1, status.TotalChunks)
}

func TestArticleService_DeleteStopsWhenIndexFails(t *testing.T) {
	store := memory.NewArticleStore()
	ctx := context.Background()
	a := &domain.Article{Title: "Cats"}
	require.NoError(t, store.SaveArticle(ctx, a))

	indexErr := errors.New("locked")
	var idx driving.IndexService = &countingIndex{err: indexErr}
	svc := NewArticleService(store, idx)

	assert.ErrorIs(t, svc.Delete(ctx, a.ID), indexErr)
	_, err := store.GetArticle(ctx, a.ID)
	assert.NoError(t, err)
}
