package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

func TestNormalise_HeadingBecomesTitle(t *testing.T) {
	content := []byte("# Cats\n\nCats are **small** domesticated [felines](https://en.wikipedia.org/wiki/Cat).\n")

	article, err := New().Normalise(context.Background(), "/notes/cats.md", content)
	require.NoError(t, err)

	assert.Equal(t, "Cats", article.Title)
	assert.Equal(t, "Cats are small domesticated felines.", article.Text)
	assert.Equal(t, "/notes/cats.md", article.SourcePath)
}

func TestNormalise_NoHeadingUsesFilename(t *testing.T) {
	article, err := New().Normalise(context.Background(), "/notes/dog_walking-plan.md", []byte("Walk at 7."))
	require.NoError(t, err)

	assert.Equal(t, "dog walking plan", article.Title)
	assert.Equal(t, "Walk at 7.", article.Text)
}

func TestNormalise_NilContent(t *testing.T) {
	_, err := New().Normalise(context.Background(), "/a.md", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSplitTitle_IgnoresFencedHeadings(t *testing.T) {
	title, rest := splitTitle("```\n# not a title\n```\n# Real\nbody")
	assert.Equal(t, "Real", title)
	assert.Contains(t, rest, "body")
	assert.NotContains(t, rest, "# Real")
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"code block dropped", "before\n```go\nfmt.Println()\n```\nafter", "before\n\nafter"},
		{"inline code kept", "use `go test` here", "use go test here"},
		{"image dropped", "see ![cat](cat.png) here", "see  here"},
		{"link text kept", "[docs](http://x)", "docs"},
		{"sub headings", "## Section\ntext", "Section\ntext"},
		{"emphasis", "*a* and __b__", "a and b"},
		{"quote", "> quoted", "quoted"},
		{"rule", "a\n---\nb", "a\n\nb"},
		{"lists", "- one\n* two\n1. three", "one\ntwo\nthree"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdown(tt.content))
		})
	}
}
