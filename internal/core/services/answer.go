package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.QuestionService = (*AnswerService)(nil)

// AnswerService answers questions from the indexed articles with the loaded
// language model. It performs no writes.
type AnswerService struct {
	index    driving.IndexService
	model    driving.GenerationModel
	articles driven.ArticleProvider
	prompts  driven.PromptStore
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	index driving.IndexService,
	model driving.GenerationModel,
	articles driven.ArticleProvider,
	prompts driven.PromptStore,
) *AnswerService {
	return &AnswerService{
		index:    index,
		model:    model,
		articles: articles,
		prompts:  prompts,
	}
}

// contextChunk is a retrieved chunk placed in the prompt.
type contextChunk struct {
	hit   domain.SearchHit
	title string
}

// Ask retrieves the best chunks for question, packs them into a bounded
// context and asks the language model to answer from that context only.
//
// It fails with domain.ErrGenerationModelNotLoaded before touching the index,
// then with domain.ErrIndexEmpty when nothing is indexed. When no chunk clears
// the similarity threshold the model is not called and the result carries
// domain.NoContextAnswer.
func (s *AnswerService) Ask(ctx context.Context, question string, opts domain.AskOptions) (*domain.AskResult, error) {
	logger.Section("Ask")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question: %w", domain.ErrInvalidInput)
	}
	opts = opts.WithDefaults()

	if !s.model.Status().Loaded {
		return nil, domain.ErrGenerationModelNotLoaded
	}

	status, err := s.index.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("index status: %w", err)
	}
	if status.IndexedArticles == 0 {
		return nil, domain.ErrIndexEmpty
	}

	hits, err := s.index.Search(ctx, question, domain.SearchOptions{
		Limit:         opts.MaxChunks * 2,
		MinSimilarity: opts.MinSimilarity,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	relevant := hits[:0:0]
	for _, h := range hits {
		if h.Similarity >= opts.Threshold() {
			relevant = append(relevant, h)
		}
	}
	logger.Debug("Retrieved %d chunks, %d above %.2f", len(hits), len(relevant), opts.Threshold())

	if len(relevant) == 0 {
		return &domain.AskResult{Answer: domain.NoContextAnswer, Sources: []domain.SourceRef{}, NoContext: true}, nil
	}

	selected := packContext(relevant, opts.MaxChunks, opts.MaxContextChars)
	if len(selected) == 0 {
		return &domain.AskResult{Answer: domain.NoContextAnswer, Sources: []domain.SourceRef{}, NoContext: true}, nil
	}

	sources, titles := s.resolveSources(ctx, selected)
	chunks := make([]contextChunk, len(selected))
	for i, h := range selected {
		chunks[i] = contextChunk{hit: h, title: titles[h.ArticleID]}
	}

	system, err := s.prompts.Load(driven.PromptRAGSystem)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}
	tmpl, err := s.prompts.Load(driven.PromptRAGUser)
	if err != nil {
		return nil, fmt.Errorf("load user prompt: %w", err)
	}
	prompt := fmt.Sprintf(tmpl, formatContext(chunks), question)

	logger.Debug("Context: %d chunks from %d articles", len(chunks), len(sources))

	raw, err := s.model.Generate(ctx, prompt, system)
	if err != nil {
		return nil, err
	}

	return &domain.AskResult{
		Answer:        StripPreamble(raw),
		Sources:       sources,
		ContextChunks: len(chunks),
	}, nil
}

// packContext takes hits best first until maxChunks are chosen. A hit that
// would push the context past maxChars is skipped and smaller ones are tried.
func packContext(hits []domain.SearchHit, maxChunks, maxChars int) []domain.SearchHit {
	selected := make([]domain.SearchHit, 0, maxChunks)
	used := 0
	for _, h := range hits {
		if len(selected) == maxChunks {
			break
		}
		n := utf8.RuneCountInString(h.MatchedText)
		if used+n > maxChars {
			continue
		}
		used += n
		selected = append(selected, h)
	}
	return selected
}

// resolveSources looks up display metadata for the distinct articles behind
// hits, in order of first appearance. Articles that cannot be fetched keep a
// placeholder title.
func (s *AnswerService) resolveSources(ctx context.Context, hits []domain.SearchHit) ([]domain.SourceRef, map[int64]string) {
	sources := make([]domain.SourceRef, 0, len(hits))
	titles := make(map[int64]string, len(hits))

	for _, h := range hits {
		if _, seen := titles[h.ArticleID]; seen {
			continue
		}
		ref := domain.ArticleRef{ID: h.ArticleID, Title: fmt.Sprintf("Article %d", h.ArticleID)}
		article, err := s.articles.GetArticle(ctx, h.ArticleID)
		switch {
		case err == nil:
			ref = article.Ref()
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("Article %d is indexed but no longer exists", h.ArticleID)
		default:
			logger.Warn("Resolve source article %d: %v", h.ArticleID, err)
		}
		titles[h.ArticleID] = ref.Title
		sources = append(sources, domain.SourceRef{Article: ref, Similarity: h.Similarity})
	}

	return sources, titles
}

// formatContext renders numbered excerpt blocks.
func formatContext(chunks []contextChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, c.title, c.hit.MatchedText)
	}
	return b.String()
}

var preamble = regexp.MustCompile(`(?i)^\s*(assistant|answer|ai|response)\s*:\s*`)

// StripPreamble removes leading conversational labels such as "Assistant:".
func StripPreamble(s string) string {
	for {
		stripped := preamble.ReplaceAllString(s, "")
		if stripped == s {
			return strings.TrimSpace(s)
		}
		s = stripped
	}
}
