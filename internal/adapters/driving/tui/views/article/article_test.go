package article

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// MockArticleService implements the lookup part of driving.ArticleService.
type MockArticleService struct {
	driving.ArticleService
	GetFunc func(ctx context.Context, id int64) (*domain.Article, error)
}

func (m *MockArticleService) Get(ctx context.Context, id int64) (*domain.Article, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func testArticle() *domain.Article {
	return &domain.Article{
		ID:          5,
		Title:       "Cats",
		Text:        "Cats are small carnivorous mammals.",
		Explanation: "Saved for the vet visit.",
		Date:        time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
		Comments:    []domain.Comment{{Text: "Check diet."}},
	}
}

func openLoaded(v *View, a *domain.Article) {
	v.Open(a.ID, messages.ViewSearch)
	v.Update(messages.ArticleLoaded{ID: a.ID, Article: a})
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Equal(t, messages.ViewArticles, view.Back())
	assert.Nil(t, view.Init())
}

func TestView_Open(t *testing.T) {
	service := &MockArticleService{
		GetFunc: func(_ context.Context, id int64) (*domain.Article, error) {
			assert.Equal(t, int64(5), id)
			return testArticle(), nil
		},
	}
	view := NewView(nil, service)

	cmd := view.Open(5, messages.ViewAsk)

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewAsk, view.Back())
	assert.Contains(t, view.View(), "Loading article...")

	view.Update(cmd())

	require.NotNil(t, view.Article())
	assert.Equal(t, "Cats", view.Article().Title)
	assert.NoError(t, view.Err())
}

func TestView_Open_NoService(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(view.Open(1, messages.ViewSearch)())

	assert.ErrorIs(t, view.Err(), ErrNoArticleService)
}

func TestView_Open_NotFound(t *testing.T) {
	view := NewView(nil, &MockArticleService{})

	view.Update(view.Open(9, messages.ViewSearch)())

	assert.ErrorIs(t, view.Err(), domain.ErrNotFound)
	assert.Contains(t, view.View(), "Article 9")
}

func TestView_IgnoresStaleLoad(t *testing.T) {
	view := NewView(nil, nil)
	view.Open(2, messages.ViewSearch)

	view.Update(messages.ArticleLoaded{ID: 1, Article: testArticle()})

	assert.Nil(t, view.Article())
}

func TestView_Body(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDimensions(80, 24)
	openLoaded(view, testArticle())

	lines := strings.Join(view.Lines(), "\n")

	assert.Equal(t,
		"Cats are small carnivorous mammals.\n\nExplanation:\nSaved for the vet visit.\n\nComments:\n- Check diet.",
		lines)
}

func TestView_View(t *testing.T) {
	view := NewView(nil, nil)
	view.SetDimensions(80, 24)
	openLoaded(view, testArticle())

	output := view.View()

	assert.Contains(t, output, "Cats")
	assert.Contains(t, output, "2024-02-03")
	assert.Contains(t, output, "carnivorous mammals")
	assert.Contains(t, output, "Saved for the vet visit.")
}

func TestView_View_Empty(t *testing.T) {
	view := NewView(nil, nil)
	openLoaded(view, &domain.Article{ID: 1, Title: "Empty"})

	assert.Contains(t, view.View(), "(No content)")
}

func TestView_Scroll(t *testing.T) {
	long := &domain.Article{ID: 1, Title: "Long", Text: strings.Repeat("line\n", 50)}
	view := NewView(nil, nil)
	view.SetDimensions(80, 17) // 10 visible lines
	openLoaded(view, long)

	require.Len(t, view.Lines(), 50)

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 10, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, 40, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 40, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 30, view.ScrollOffset())

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, view.ScrollOffset())

	assert.Contains(t, view.View(), "Line 1-10 of 50")
}

func TestView_Esc(t *testing.T) {
	view := NewView(nil, nil)
	view.Open(1, messages.ViewAsk)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewAsk}, cmd())
}

func TestView_ErrorOccurred(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
}

func TestWrapLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		width int
		want  []string
	}{
		{name: "empty", line: "", width: 10, want: []string{""}},
		{name: "fits", line: "one two", width: 10, want: []string{"one two"}},
		{name: "wraps at words", line: "one two three four", width: 9, want: []string{"one two", "three", "four"}},
		{name: "splits long word", line: "abcdefghijkl mn", width: 5, want: []string{"abcde", "fghij", "kl mn"}},
		{name: "collapses spaces", line: "a    b", width: 10, want: []string{"a b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapLine(tt.line, tt.width))
		})
	}
}
