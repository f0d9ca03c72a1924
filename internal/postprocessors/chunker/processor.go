// Package chunker splits article text into overlapping word windows.
package chunker

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits article text into fixed-size word windows.
type Processor struct {
	size    int
	overlap int
	newID   func() string
	now     func() time.Time
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithIDGenerator overrides chunk id generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithClock overrides the chunk creation timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(p *Processor) {
		if fn != nil {
			p.now = fn
		}
	}
}

// New creates a chunker for cfg. An invalid configuration fails here rather
// than at chunking time.
func New(cfg domain.ChunkingConfig, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		size:    cfg.Size,
		overlap: cfg.Overlap,
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Config returns the chunking configuration.
func (p *Processor) Config() domain.ChunkingConfig {
	return domain.ChunkingConfig{Size: p.size, Overlap: p.overlap}
}

// Chunk cleans text and splits it into windows of size words that step by
// size minus overlap. Text of at most size words yields a single chunk.
// Windowing stops once the remaining tail is shorter than the overlap; those
// words are already part of the previous window.
func (p *Processor) Chunk(text string) []string {
	cleaned := Clean(text)
	words := strings.Fields(cleaned)
	n := len(words)

	if n == 0 {
		return nil
	}
	if n <= p.size {
		return []string{cleaned}
	}

	step := p.size - p.overlap
	chunks := make([]string, 0, n/step+1)

	for start := 0; start < n; {
		end := start + p.size
		if end > n {
			end = n
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))

		start += step
		if n-start < p.overlap {
			break
		}
	}

	return chunks
}

// Process builds the chunks of an article from its indexable text.
// Embeddings are left empty.
func (p *Processor) Process(ctx context.Context, article *domain.Article) ([]domain.Chunk, error) {
	if article == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := p.Chunk(article.IndexableText())
	if len(texts) == 0 {
		return nil, nil
	}

	now := p.now()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:        p.newID(),
			ArticleID: article.ID,
			Index:     i,
			Content:   text,
			CreatedAt: now,
		}
	}

	return chunks, nil
}

var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
)

// Clean strips markup from rich text and collapses whitespace.
// Tags are replaced by spaces so adjacent block text does not fuse.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = scriptTag.ReplaceAllString(text, " ")
	text = styleTag.ReplaceAllString(text, " ")
	text = htmlComments.ReplaceAllString(text, " ")
	text = allTags.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)

	return strings.Join(strings.Fields(text), " ")
}
