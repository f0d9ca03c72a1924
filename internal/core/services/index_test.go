package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/postprocessors"
)

type indexFixture struct {
	svc      *IndexService
	articles *memory.ArticleStore
	chunks   *memory.ChunkStore
	runtime  *fakeEmbeddingRuntime
	embedder *EmbeddingProvider
	config   *memory.ConfigStore
}

func newIndexFixture(t *testing.T) *indexFixture {
	t.Helper()
	f := &indexFixture{
		articles: memory.NewArticleStore(),
		chunks:   memory.NewChunkStore(),
		runtime:  newFakeEmbeddingRuntime(),
		config:   memory.NewConfigStore(),
	}
	require.NoError(t, f.config.Set(keyEmbeddingModel, "concepts"))
	f.embedder = NewEmbeddingProvider(f.runtime, f.config, testCatalog)
	f.svc = NewIndexService(f.articles, f.chunks, f.embedder, postprocessors.NewDefaultRegistry(), f.config)
	return f
}

func (f *indexFixture) add(t *testing.T, title, text string) int64 {
	t.Helper()
	a := &domain.Article{Title: title, Text: text}
	require.NoError(t, f.articles.SaveArticle(context.Background(), a))
	return a.ID
}

func (f *indexFixture) addCatsAndDogs(t *testing.T) (cats, dogs int64) {
	t.Helper()
	cats = f.add(t, "Cats", "Cats are small domesticated felines.")
	dogs = f.add(t, "Dogs", "Dogs are loyal domesticated canines.")
	return cats, dogs
}

func words(n int, word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestIndexService_IndexArticle(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	id := f.add(t, "Cats", words(249, "purr"))

	n, err := f.svc.IndexArticle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	chunks, err := f.chunks.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "concepts", c.ModelID)
		assert.Len(t, c.Embedding, 4)
	}

	status, err := f.svc.ArticleStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, status.ChunkCount)
	assert.False(t, status.IndexedAt.IsZero())

	indexed, err := f.svc.IsIndexed(ctx, id)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestIndexService_IndexArticle_ReplacesChunks(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	id := f.add(t, "Long", words(300, "cat"))

	_, err := f.svc.IndexArticle(ctx, id)
	require.NoError(t, err)

	require.NoError(t, f.articles.SaveArticle(ctx, &domain.Article{ID: id, Title: "Short", Text: "dogs bark"}))
	n, err := f.svc.IndexArticle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	chunks, err := f.chunks.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short dogs bark", chunks[0].Content)
}

func TestIndexService_IndexArticle_NoText(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	a := &domain.Article{Title: "   "}
	require.NoError(t, f.articles.SaveArticle(ctx, a))

	n, err := f.svc.IndexArticle(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.runtime.loadCount())

	indexed, err := f.svc.IsIndexed(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestIndexService_IndexArticle_NotFound(t *testing.T) {
	f := newIndexFixture(t)

	_, err := f.svc.IndexArticle(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexService_IndexArticle_InvalidChunking(t *testing.T) {
	f := newIndexFixture(t)
	id := f.add(t, "Cats", "purr")
	require.NoError(t, f.config.Set(keyChunkSize, 10))
	require.NoError(t, f.config.Set(keyChunkOverlap, 10))

	_, err := f.svc.IndexArticle(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrInvalidChunkingConfig)
}

func TestIndexService_IndexThenRemove(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	cats, dogs := f.addCatsAndDogs(t)

	_, err := f.svc.IndexArticle(ctx, cats)
	require.NoError(t, err)
	_, err = f.svc.IndexArticle(ctx, dogs)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveArticle(ctx, cats))

	hits, err := f.svc.Search(ctx, "feline pets", domain.SearchOptions{Limit: 10, MinSimilarity: domain.Similarity(-1)})
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, cats, h.ArticleID)
	}
	assert.Len(t, hits, 1)

	indexed, err := f.svc.IsIndexed(ctx, cats)
	require.NoError(t, err)
	assert.False(t, indexed)
}

func TestIndexService_Search_EmptyIndex(t *testing.T) {
	f := newIndexFixture(t)

	hits, err := f.svc.Search(context.Background(), "anything", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, f.runtime.loadCount())
}

func TestIndexService_Search_BlankQuery(t *testing.T) {
	f := newIndexFixture(t)

	hits, err := f.svc.Search(context.Background(), "  ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexService_CatsAndDogs(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	cats, dogs := f.addCatsAndDogs(t)

	result, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)

	top, err := f.svc.Search(ctx, "feline pets", domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, cats, top[0].ArticleID)

	both, err := f.svc.Search(ctx, "feline pets", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, cats, both[0].ArticleID)
	assert.Equal(t, dogs, both[1].ArticleID)
	assert.Greater(t, both[0].Similarity, both[1].Similarity)
}

func TestIndexService_Search_OneHitPerArticle(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	// Many chunks, all about cats.
	long := f.add(t, "Cats", words(400, "cats"))
	short := f.add(t, "Kitten", "kitten")

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	hits, err := f.svc.Search(ctx, "cats", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	ids := map[int64]bool{}
	for _, h := range hits {
		assert.False(t, ids[h.ArticleID], "duplicate article %d", h.ArticleID)
		ids[h.ArticleID] = true
	}
	assert.True(t, ids[long])
	assert.True(t, ids[short])
}

func TestIndexService_Search_LimitAndThreshold(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.add(t, "A", "cats")
	f.add(t, "B", "cats felines")
	f.add(t, "C", "dogs")

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	hits, err := f.svc.Search(ctx, "cats", domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = f.svc.Search(ctx, "cats", domain.SearchOptions{Limit: 10, MinSimilarity: domain.Similarity(0.5)})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
}

func TestIndexService_Search_UnsetFloorKeepsNegativeScores(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	id := f.add(t, "South", "south")

	_, err := f.svc.IndexArticle(ctx, id)
	require.NoError(t, err)

	hits, err := f.svc.Search(ctx, "north", domain.SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].ArticleID)
	assert.InDelta(t, -1.0, hits[0].Similarity, 1e-6)

	hits, err = f.svc.Search(ctx, "north", domain.SearchOptions{Limit: 5, MinSimilarity: domain.Similarity(0)})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexService_Search_OnlyScansSelectedModel(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.addCatsAndDogs(t)

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	require.NoError(t, f.embedder.SelectModel("wide"))
	f.runtime.dims["wide:1"] = 8

	hits, err := f.svc.Search(ctx, "feline pets", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexService_Status_ModelSwitchRequiresReindex(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.addCatsAndDogs(t)

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.RequiresReindex)
	assert.Equal(t, 2, status.IndexedArticles)
	assert.Equal(t, 2, status.TotalArticles)
	assert.Equal(t, 2, status.TotalChunks)
	assert.Equal(t, "concepts", status.IndexedModel)
	assert.Equal(t, "100-25", status.IndexedChunkingVersion)
	assert.Equal(t, 4, status.Dimensions)
	assert.Equal(t, 4, status.CurrentDimensions)
	assert.False(t, status.DimensionMismatch)

	require.NoError(t, f.embedder.SelectModel("concepts-v2"))

	status, err = f.svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.ModelMismatch)
	assert.False(t, status.ChunkingMismatch)
	assert.True(t, status.RequiresReindex)
	assert.Equal(t, "concepts-v2", status.CurrentModel)
}

func TestIndexService_Status_DimensionChangeRequiresReindex(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.addCatsAndDogs(t)

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	// Same model id, redefined by a catalog override with wider vectors.
	widened := []domain.EmbeddingModelDescriptor{
		{ID: "concepts", Name: "Concepts", Ref: "concepts:1", Dimensions: 8},
	}
	f.runtime.dims["concepts:1"] = 8
	embedder := NewEmbeddingProvider(f.runtime, f.config, widened)
	svc := NewIndexService(f.articles, f.chunks, embedder, postprocessors.NewDefaultRegistry(), f.config)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.ModelMismatch)
	assert.False(t, status.ChunkingMismatch)
	assert.True(t, status.DimensionMismatch)
	assert.True(t, status.RequiresReindex)
	assert.Equal(t, 4, status.Dimensions)
	assert.Equal(t, 8, status.CurrentDimensions)

	_, err = svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.DimensionMismatch)
	assert.False(t, status.RequiresReindex)
	assert.Equal(t, 8, status.Dimensions)
}

func TestIndexService_Status_ChunkingChangeRequiresReindex(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.addCatsAndDogs(t)

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	require.NoError(t, f.config.Set(keyChunkSize, 50))

	status, err := f.svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.ModelMismatch)
	assert.True(t, status.ChunkingMismatch)
	assert.True(t, status.RequiresReindex)
	assert.Equal(t, "50-25", status.CurrentChunkingVersion)
}

func TestIndexService_Status_NeverBuilt(t *testing.T) {
	f := newIndexFixture(t)

	status, err := f.svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.RequiresReindex)
	assert.Empty(t, status.IndexedModel)
}

func TestIndexService_Rebuild_OneFailingArticle(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	ids := []int64{
		f.add(t, "One", "cats"),
		f.add(t, "Two", "dogs"),
		f.add(t, "Three", "pets"),
		f.add(t, "Four", "kitten"),
	}
	failing := ids[2]
	provider := &failingArticleProvider{ArticleProvider: f.articles, failIDs: map[int64]bool{failing: true}}
	svc := NewIndexService(provider, f.chunks, f.embedder, postprocessors.NewDefaultRegistry(), f.config)

	var progress []domain.RebuildProgress
	result, err := svc.RebuildIndex(ctx, driving.RebuildOptions{
		Progress: func(p domain.RebuildProgress) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, []int64{failing}, result.FailedIDs)
	assert.NotEmpty(t, result.RunID)

	chunks, err := f.chunks.GetChunks(ctx, failing)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	var scanned []int64
	require.NoError(t, f.chunks.ScanChunks(ctx, "concepts", func(c domain.Chunk) error {
		scanned = append(scanned, c.ArticleID)
		return nil
	}))
	assert.NotContains(t, scanned, failing)

	require.Len(t, progress, 4)
	assert.Equal(t, 4, progress[3].Done)
	assert.ErrorIs(t, progress[2].Err, errFetch)
}

func TestIndexService_Rebuild_ClearsPreviousContent(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	keep := f.add(t, "Keep", "cats")
	orphan := domain.Chunk{ArticleID: 999, Index: 0, Content: "old", ModelID: "concepts", Embedding: []float32{1, 0, 0, 0}}
	require.NoError(t, f.chunks.ReplaceArticleChunks(ctx, 999, []domain.Chunk{orphan}, domain.ArticleIndexStatus{ChunkCount: 1}))

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	old, err := f.chunks.GetChunks(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, old)
	indexed, err := f.svc.IsIndexed(ctx, keep)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestIndexService_Rebuild_Cancelled(t *testing.T) {
	f := newIndexFixture(t)
	for i := 0; i < 5; i++ {
		f.add(t, fmt.Sprintf("A%d", i), "cats")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{
		Progress: func(p domain.RebuildProgress) {
			if p.Done == 2 {
				cancel()
			}
		},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 5, result.Total)
}

func TestIndexService_Rebuild_ModelUnavailableKeepsIndex(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	f.addCatsAndDogs(t)

	_, err := f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	require.NoError(t, err)

	require.NoError(t, f.embedder.SelectModel("concepts-v2"))
	f.runtime.loadErr["concepts:2"] = domain.ErrRuntimeUnavailable

	_, err = f.svc.RebuildIndex(ctx, driving.RebuildOptions{})
	assert.ErrorIs(t, err, domain.ErrRuntimeUnavailable)

	n, err := f.chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// gatedEmbedder blocks the first Embed call until released.
type gatedEmbedder struct {
	driving.EmbeddingProvider
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return g.EmbeddingProvider.Embed(ctx, text)
}

func TestIndexService_StaleWriteDiscarded(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	id := f.add(t, "Pet", "cats")

	gated := &gatedEmbedder{EmbeddingProvider: f.embedder, started: make(chan struct{}), release: make(chan struct{})}
	svc := NewIndexService(f.articles, f.chunks, gated, postprocessors.NewDefaultRegistry(), f.config)

	done := make(chan error, 1)
	go func() {
		_, err := svc.IndexArticle(ctx, id)
		done <- err
	}()
	<-gated.started

	require.NoError(t, f.articles.SaveArticle(ctx, &domain.Article{ID: id, Title: "Pet", Text: "dogs"}))
	_, err := svc.IndexArticle(ctx, id)
	require.NoError(t, err)

	close(gated.release)
	assert.ErrorIs(t, <-done, domain.ErrStaleIndexWrite)

	chunks, err := f.chunks.GetChunks(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Pet dogs", chunks[0].Content)
}

func TestIndexService_RemoveDuringIndexWins(t *testing.T) {
	f := newIndexFixture(t)
	ctx := context.Background()
	id := f.add(t, "Pet", "cats")

	gated := &gatedEmbedder{EmbeddingProvider: f.embedder, started: make(chan struct{}), release: make(chan struct{})}
	svc := NewIndexService(f.articles, f.chunks, gated, postprocessors.NewDefaultRegistry(), f.config)

	done := make(chan error, 1)
	go func() {
		_, err := svc.IndexArticle(ctx, id)
		done <- err
	}()
	<-gated.started

	require.NoError(t, svc.RemoveArticle(ctx, id))
	close(gated.release)

	err := <-done
	assert.True(t, errors.Is(err, domain.ErrStaleIndexWrite))

	indexed, err := svc.IsIndexed(ctx, id)
	require.NoError(t, err)
	assert.False(t, indexed)
}
