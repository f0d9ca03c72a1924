package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var testCatalog = []domain.EmbeddingModelDescriptor{
	{ID: "concepts", Name: "Concepts", Ref: "concepts:1", Dimensions: 4},
	{ID: "concepts-v2", Name: "Concepts v2", Ref: "concepts:2", Dimensions: 4},
	{ID: "wide", Name: "Wide", Ref: "wide:1", Dimensions: 8},
}

// conceptVector embeds text on four axes: feline, canine, domestic, other.
// Good enough to make "feline pets" closer to cats than to dogs.
// "north" and "south" point in opposite directions on the last axis.
func conceptVector(text string) []float32 {
	v := make([]float32, 4)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		switch w {
		case "cat", "cats", "feline", "felines", "kitten", "purr":
			v[0]++
		case "dog", "dogs", "canine", "canines", "puppy", "bark":
			v[1]++
		case "pet", "pets", "domesticated", "domestic":
			v[2]++
		case "north":
			v[3]++
		case "south":
			v[3]--
		case "":
		default:
			v[3] += 0.1
		}
	}
	return v
}

// fakeEmbeddingRuntime is a hand-written driven.EmbeddingRuntime.
type fakeEmbeddingRuntime struct {
	mu       sync.Mutex
	loads    []string
	unloads  []string
	embeds   []string
	loadErr  map[string]error
	embedErr error
	gate     chan struct{}
	started  chan struct{}
	dims     map[string]int
}

var _ driven.EmbeddingRuntime = (*fakeEmbeddingRuntime)(nil)

func newFakeEmbeddingRuntime() *fakeEmbeddingRuntime {
	return &fakeEmbeddingRuntime{loadErr: make(map[string]error), dims: make(map[string]int)}
}

func (f *fakeEmbeddingRuntime) Load(ctx context.Context, ref string, progress driven.ProgressFunc) error {
	f.mu.Lock()
	f.loads = append(f.loads, ref)
	gate, started, err := f.gate, f.started, f.loadErr[ref]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if progress != nil {
		progress(domain.PullProgress{Status: "success", Completed: 1, Total: 1})
	}
	return err
}

func (f *fakeEmbeddingRuntime) Embed(_ context.Context, ref, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, text)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	v := conceptVector(text)
	if n, ok := f.dims[ref]; ok {
		v = make([]float32, n)
		v[0] = 1
	}
	return v, nil
}

func (f *fakeEmbeddingRuntime) Unload(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads = append(f.unloads, ref)
	return nil
}

func (f *fakeEmbeddingRuntime) Ping(context.Context) error { return nil }

func (f *fakeEmbeddingRuntime) Close() error { return nil }

func (f *fakeEmbeddingRuntime) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loads)
}

func (f *fakeEmbeddingRuntime) embedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.embeds)
}

// mockGenerationRuntime is a testify mock of driven.GenerationRuntime.
type mockGenerationRuntime struct {
	mock.Mock
}

var _ driven.GenerationRuntime = (*mockGenerationRuntime)(nil)

func (m *mockGenerationRuntime) Load(ctx context.Context, model string, progress driven.ProgressFunc) error {
	args := m.Called(ctx, model, progress)
	return args.Error(0)
}

func (m *mockGenerationRuntime) Chat(
	ctx context.Context, model string, messages []driven.ChatMessage, opts driven.ChatOptions,
) (string, error) {
	args := m.Called(ctx, model, messages, opts)
	return args.String(0), args.Error(1)
}

func (m *mockGenerationRuntime) Unload(ctx context.Context, model string) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *mockGenerationRuntime) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockGenerationRuntime) Close() error {
	return nil
}

// failingArticleProvider wraps a provider and fails GetArticle for chosen ids.
type failingArticleProvider struct {
	driven.ArticleProvider
	failIDs map[int64]bool
}

var errFetch = errors.New("article fetch failed")

func (f *failingArticleProvider) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	if f.failIDs[id] {
		return nil, errFetch
	}
	return f.ArticleProvider.GetArticle(ctx, id)
}

var _ driving.IndexService = (*countingIndex)(nil)

// countingIndex records calls made to an IndexService.
type countingIndex struct {
	mu     sync.Mutex
	calls  int
	status domain.IndexStatus
	hits   []domain.SearchHit
	err    error
	opts   []domain.SearchOptions
}

func (c *countingIndex) record() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingIndex) IndexArticle(context.Context, int64) (int, error) {
	c.record()
	return 0, c.err
}

func (c *countingIndex) RemoveArticle(context.Context, int64) error {
	c.record()
	return c.err
}

func (c *countingIndex) RebuildIndex(context.Context, driving.RebuildOptions) (domain.RebuildResult, error) {
	c.record()
	return domain.RebuildResult{}, c.err
}

func (c *countingIndex) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	c.record()
	c.mu.Lock()
	c.opts = append(c.opts, opts)
	c.mu.Unlock()
	return c.hits, c.err
}

func (c *countingIndex) Status(context.Context) (domain.IndexStatus, error) {
	c.record()
	return c.status, c.err
}

func (c *countingIndex) IsIndexed(context.Context, int64) (bool, error) {
	c.record()
	return false, c.err
}

func (c *countingIndex) ArticleStatus(context.Context, int64) (*domain.ArticleIndexStatus, error) {
	c.record()
	return nil, c.err
}
