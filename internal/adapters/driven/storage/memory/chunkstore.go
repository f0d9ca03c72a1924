package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// Scans visit articles in ascending ID order to mirror SQLite row order.
type ChunkStore struct {
	mu       sync.RWMutex
	chunks   map[int64][]domain.Chunk
	statuses map[int64]domain.ArticleIndexStatus
	meta     *domain.IndexMetadata
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:   make(map[int64][]domain.Chunk),
		statuses: make(map[int64]domain.ArticleIndexStatus),
	}
}

// ReplaceArticleChunks swaps the article's chunks and status atomically.
func (s *ChunkStore) ReplaceArticleChunks(
	_ context.Context, articleID int64, chunks []domain.Chunk, status domain.ArticleIndexStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, articleID)
	if len(chunks) > 0 {
		s.chunks[articleID] = copyChunks(chunks)
	}
	status.ArticleID = articleID
	s.statuses[articleID] = status
	return nil
}

// DeleteArticle removes all chunks and the status of an article.
func (s *ChunkStore) DeleteArticle(_ context.Context, articleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, articleID)
	delete(s.statuses, articleID)
	return nil
}

// Clear removes all chunks and statuses. Metadata is kept.
func (s *ChunkStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = make(map[int64][]domain.Chunk)
	s.statuses = make(map[int64]domain.ArticleIndexStatus)
	return nil
}

// ScanChunks calls fn for each chunk produced by modelID.
func (s *ChunkStore) ScanChunks(ctx context.Context, modelID string, fn func(domain.Chunk) error) error {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var snapshot []domain.Chunk
	for _, id := range ids {
		for _, c := range s.chunks[id] {
			if c.ModelID == modelID {
				snapshot = append(snapshot, c)
			}
		}
	}
	s.mu.RUnlock()

	for _, c := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// GetChunks returns the chunks of one article ordered by index.
func (s *ChunkStore) GetChunks(_ context.Context, articleID int64) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyChunks(s.chunks[articleID]), nil
}

// CountChunks returns the number of stored chunks.
func (s *ChunkStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunks := range s.chunks {
		n += len(chunks)
	}
	return n, nil
}

// CountIndexedArticles returns the number of status records.
func (s *ChunkStore) CountIndexedArticles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statuses), nil
}

// GetArticleStatus returns the status of an article.
func (s *ChunkStore) GetArticleStatus(_ context.Context, articleID int64) (*domain.ArticleIndexStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[articleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &status, nil
}

// GetMetadata returns the index metadata.
func (s *ChunkStore) GetMetadata(_ context.Context) (*domain.IndexMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return nil, domain.ErrNotFound
	}
	meta := *s.meta
	return &meta, nil
}

// SaveMetadata overwrites the index metadata.
func (s *ChunkStore) SaveMetadata(_ context.Context, meta domain.IndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = &meta
	return nil
}

func copyChunks(chunks []domain.Chunk) []domain.Chunk {
	if chunks == nil {
		return nil
	}
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		out[i] = c
	}
	return out
}
