package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService maintains the chunk index and runs semantic searches over it.
//
// Every IndexArticle call takes a write ticket for its article. When a newer
// call (or a RemoveArticle) for the same article starts before an older one
// writes, the older result is discarded with domain.ErrStaleIndexWrite.
type IndexService struct {
	articles driven.ArticleProvider
	chunks   driven.ChunkStore
	embedder driving.EmbeddingProvider
	chunkers driven.ChunkerFactory
	config   driven.ConfigStore
	now      func() time.Time

	ticketMu sync.Mutex
	ticket   uint64
	latest   map[int64]uint64

	// writeMu serialises the check-and-replace of a write.
	writeMu sync.Mutex
}

// NewIndexService creates a new index service.
func NewIndexService(
	articles driven.ArticleProvider,
	chunks driven.ChunkStore,
	embedder driving.EmbeddingProvider,
	chunkers driven.ChunkerFactory,
	config driven.ConfigStore,
) *IndexService {
	return &IndexService{
		articles: articles,
		chunks:   chunks,
		embedder: embedder,
		chunkers: chunkers,
		config:   config,
		now:      time.Now,
		latest:   make(map[int64]uint64),
	}
}

// IndexArticle fetches, chunks and embeds one article, then replaces its
// stored chunks in a single transaction. An article without indexable text
// ends up with zero chunks.
func (s *IndexService) IndexArticle(ctx context.Context, articleID int64) (int, error) {
	ticket := s.take(articleID)
	defer s.release(articleID, ticket)

	article, err := s.articles.GetArticle(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("get article %d: %w", articleID, err)
	}

	chunker, err := s.chunkers.NewChunker(chunkingConfig(s.config))
	if err != nil {
		return 0, err
	}

	chunks, err := chunker.Process(ctx, article)
	if err != nil {
		return 0, fmt.Errorf("chunk article %d: %w", articleID, err)
	}

	var model domain.EmbeddingModelDescriptor
	if len(chunks) > 0 {
		model, err = s.embedder.SelectedModel()
		if err != nil {
			return 0, err
		}
	}

	for i := range chunks {
		vec, err := s.embedder.Embed(ctx, chunks[i].Content)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of article %d: %w", i, articleID, err)
		}
		chunks[i].Embedding = vec
		chunks[i].ModelID = model.ID
	}

	status := domain.ArticleIndexStatus{
		ArticleID:  articleID,
		ChunkCount: len(chunks),
		IndexedAt:  s.now(),
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.current(articleID, ticket) {
		logger.Debug("Discarding stale index write for article %d", articleID)
		return 0, domain.ErrStaleIndexWrite
	}
	if err := s.chunks.ReplaceArticleChunks(ctx, articleID, chunks, status); err != nil {
		return 0, fmt.Errorf("store chunks of article %d: %w", articleID, err)
	}

	logger.Debug("Indexed article %d: %d chunks", articleID, len(chunks))
	return len(chunks), nil
}

// RemoveArticle deletes all chunks and the status of an article.
// In-flight indexing of the article is discarded.
func (s *IndexService) RemoveArticle(ctx context.Context, articleID int64) error {
	ticket := s.take(articleID)
	defer s.release(articleID, ticket)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.chunks.DeleteArticle(ctx, articleID); err != nil {
		return fmt.Errorf("remove article %d from index: %w", articleID, err)
	}
	logger.Debug("Removed article %d from index", articleID)
	return nil
}

// RebuildIndex clears the index, records fresh metadata and indexes every
// article in listing order, one at a time. A failing article is logged and
// counted; the rebuild carries on. Cancellation is checked between articles
// and returns the partial result with the context error.
func (s *IndexService) RebuildIndex(ctx context.Context, opts driving.RebuildOptions) (domain.RebuildResult, error) {
	start := s.now()
	result := domain.RebuildResult{RunID: uuid.New().String()}

	logger.Section("Rebuild Index")
	defer logger.Timed("rebuild "+result.RunID, start)

	model, err := s.embedder.SelectedModel()
	if err != nil {
		return result, err
	}
	cfg := chunkingConfig(s.config)
	if err := cfg.Validate(); err != nil {
		return result, err
	}

	// Load before clearing so an unreachable runtime leaves the old index intact.
	if err := s.embedder.Load(ctx); err != nil {
		return result, fmt.Errorf("rebuild: %w", err)
	}

	articles, err := s.articles.ListArticles(ctx)
	if err != nil {
		return result, fmt.Errorf("list articles: %w", err)
	}
	result.Total = len(articles)

	if err := s.chunks.Clear(ctx); err != nil {
		return result, fmt.Errorf("clear index: %w", err)
	}
	meta := domain.IndexMetadata{
		ModelID:         model.ID,
		ChunkingVersion: cfg.Version(),
		Dimensions:      model.Dimensions,
		BuiltAt:         start,
	}
	if err := s.chunks.SaveMetadata(ctx, meta); err != nil {
		return result, fmt.Errorf("save index metadata: %w", err)
	}

	logger.Info("Run %s: indexing %d articles with %s, chunking %s",
		result.RunID, result.Total, model.ID, meta.ChunkingVersion)

	for i, article := range articles {
		if err := ctx.Err(); err != nil {
			result.Duration = s.now().Sub(start)
			logger.Warn("Rebuild cancelled after %d of %d articles", i, result.Total)
			return result, err
		}

		n, err := s.IndexArticle(ctx, article.ID)
		switch {
		case err == nil:
			result.Indexed++
			result.Chunks += n
		case errors.Is(err, domain.ErrStaleIndexWrite):
			// A newer write for this article already landed.
			result.Indexed++
		case ctx.Err() != nil:
			result.Duration = s.now().Sub(start)
			return result, ctx.Err()
		default:
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, article.ID)
			logger.Warn("Index article %d: %v", article.ID, err)
		}

		if opts.Progress != nil {
			opts.Progress(domain.RebuildProgress{Done: i + 1, Total: result.Total, ArticleID: article.ID, Err: err})
		}
	}

	result.Duration = s.now().Sub(start)
	logger.Info("Run %s: %d indexed, %d failed, %d chunks", result.RunID, result.Indexed, result.Failed, result.Chunks)
	return result, nil
}

// Search embeds the query and scans every chunk of the selected model.
// Only the best chunk of each article is kept. Ties keep scan order.
func (s *IndexService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	logger.Section("Semantic Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	total, err := s.chunks.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	if total == 0 {
		logger.Debug("Index is empty")
		return []domain.SearchHit{}, nil
	}

	model, err := s.embedder.SelectedModel()
	if err != nil {
		return nil, err
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	best := make(map[int64]int)
	var hits []domain.SearchHit
	scanned := 0

	err = s.chunks.ScanChunks(ctx, model.ID, func(c domain.Chunk) error {
		scanned++
		sim := CosineSimilarity(queryVec, c.Embedding)
		if i, ok := best[c.ArticleID]; ok {
			if sim > hits[i].Similarity {
				hits[i] = domain.SearchHit{ArticleID: c.ArticleID, ChunkIndex: c.Index, Similarity: sim, MatchedText: c.Content}
			}
			return nil
		}
		best[c.ArticleID] = len(hits)
		hits = append(hits, domain.SearchHit{ArticleID: c.ArticleID, ChunkIndex: c.Index, Similarity: sim, MatchedText: c.Content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	results := make([]domain.SearchHit, 0, limit)
	for _, h := range hits {
		if opts.MinSimilarity != nil && h.Similarity < *opts.MinSimilarity {
			break
		}
		results = append(results, h)
		if len(results) == limit {
			break
		}
	}

	logger.Debug("Scanned %d chunks of %s, %d articles matched, returning %d", scanned, model.ID, len(hits), len(results))
	return results, nil
}

// Status reports index contents and whether it must be rebuilt.
// An index that was never built counts as mismatched.
func (s *IndexService) Status(ctx context.Context) (domain.IndexStatus, error) {
	var status domain.IndexStatus
	var err error

	if status.TotalChunks, err = s.chunks.CountChunks(ctx); err != nil {
		return status, fmt.Errorf("count chunks: %w", err)
	}
	if status.IndexedArticles, err = s.chunks.CountIndexedArticles(ctx); err != nil {
		return status, fmt.Errorf("count indexed articles: %w", err)
	}
	articles, err := s.articles.ListArticles(ctx)
	if err != nil {
		return status, fmt.Errorf("list articles: %w", err)
	}
	status.TotalArticles = len(articles)

	status.CurrentModel = getString(s.config, keyEmbeddingModel, domain.DefaultEmbeddingModelID)
	status.CurrentChunkingVersion = chunkingConfig(s.config).Version()
	if sel, err := s.embedder.SelectedModel(); err == nil {
		status.CurrentDimensions = sel.Dimensions
	}

	meta, err := s.chunks.GetMetadata(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status.ModelMismatch = true
		status.ChunkingMismatch = true
	case err != nil:
		return status, fmt.Errorf("get index metadata: %w", err)
	default:
		status.IndexedModel = meta.ModelID
		status.IndexedChunkingVersion = meta.ChunkingVersion
		status.Dimensions = meta.Dimensions
		status.BuiltAt = meta.BuiltAt
		status.ModelMismatch = meta.ModelID != status.CurrentModel
		status.ChunkingMismatch = meta.ChunkingVersion != status.CurrentChunkingVersion
		status.DimensionMismatch = status.CurrentDimensions > 0 && meta.Dimensions != status.CurrentDimensions
	}
	status.RequiresReindex = status.ModelMismatch || status.ChunkingMismatch || status.DimensionMismatch

	return status, nil
}

// IsIndexed reports whether the article has an indexing record.
func (s *IndexService) IsIndexed(ctx context.Context, articleID int64) (bool, error) {
	_, err := s.chunks.GetArticleStatus(ctx, articleID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ArticleStatus returns the indexing record of an article.
func (s *IndexService) ArticleStatus(ctx context.Context, articleID int64) (*domain.ArticleIndexStatus, error) {
	return s.chunks.GetArticleStatus(ctx, articleID)
}

func (s *IndexService) take(articleID int64) uint64 {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	s.ticket++
	s.latest[articleID] = s.ticket
	return s.ticket
}

func (s *IndexService) current(articleID int64, ticket uint64) bool {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	return s.latest[articleID] == ticket
}

func (s *IndexService) release(articleID int64, ticket uint64) {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	if s.latest[articleID] == ticket {
		delete(s.latest, articleID)
	}
}
