// Package article provides the article reader view for the TUI.
package article

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoArticleService indicates that the archive is not wired.
var ErrNoArticleService = errors.New("article service not available")

// View is a scrollable article reader.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	articles driving.ArticleService
	ctx      context.Context

	id           int64
	back         messages.ViewType
	article      *domain.Article
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new article reader.
func NewView(s *styles.Styles, articles driving.ArticleService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		keys:     keymap.DefaultKeyMap(),
		articles: articles,
		ctx:      context.Background(),
		back:     messages.ViewArticles,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open starts loading article id. Esc returns to back.
func (v *View) Open(id int64, back messages.ViewType) tea.Cmd {
	v.id = id
	v.back = back
	v.article = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadArticle(id)
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) loadArticle(id int64) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.articles == nil {
			return messages.ArticleLoaded{ID: id, Err: ErrNoArticleService}
		}
		a, err := v.articles.Get(ctx, id)
		return messages.ArticleLoaded{ID: id, Article: a, Err: err}
	}
}

// Update handles messages for the reader.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ArticleLoaded:
		if msg.ID != v.id {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.article = msg.Article
		v.wrapContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.scrollTo(v.scrollOffset - 1)
	case key.Matches(msg, v.keys.Down):
		v.scrollTo(v.scrollOffset + 1)
	case key.Matches(msg, v.keys.PageUp):
		v.scrollTo(v.scrollOffset - v.visibleLines())
	case key.Matches(msg, v.keys.PageDown):
		v.scrollTo(v.scrollOffset + v.visibleLines())
	case key.Matches(msg, v.keys.Top):
		v.scrollTo(0)
	case key.Matches(msg, v.keys.Bottom):
		v.scrollTo(v.maxScrollOffset())
	case key.Matches(msg, v.keys.Back):
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	}
	return v, nil
}

// scrollTo moves to offset, clamped to the content.
func (v *View) scrollTo(offset int) {
	v.scrollOffset = max(0, min(offset, v.maxScrollOffset()))
}

// body renders the article as plain text before wrapping.
func (v *View) body() string {
	a := v.article
	var b strings.Builder
	if a.Text != "" {
		b.WriteString(a.Text)
		b.WriteString("\n")
	}
	if a.Explanation != "" {
		b.WriteString("\nExplanation:\n")
		b.WriteString(a.Explanation)
		b.WriteString("\n")
	}
	if len(a.Comments) > 0 {
		b.WriteString("\nComments:\n")
		for _, c := range a.Comments {
			b.WriteString("- " + c.Text + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// wrapContent wraps the article to fit the view width.
func (v *View) wrapContent() {
	if v.article == nil {
		v.lines = nil
		return
	}

	contentWidth := v.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	rawLines := strings.Split(v.body(), "\n")
	v.lines = make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		v.lines = append(v.lines, wrapLine(line, contentWidth)...)
	}
	if v.scrollOffset > v.maxScrollOffset() {
		v.scrollOffset = v.maxScrollOffset()
	}
}

// wrapLine breaks a line at word boundaries, hard-splitting words longer than width.
func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var out []string
	var cur []rune
	for _, w := range words {
		word := []rune(w)
		for len(word) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(word[:width]))
			word = word[width:]
		}
		switch {
		case len(cur) == 0:
			cur = word
		case len(cur)+1+len(word) <= width:
			cur = append(append(cur, ' '), word...)
		default:
			out = append(out, string(cur))
			cur = word
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Title, date, separator, help and padding
	available := v.height - 7
	if available < 1 {
		available = 1
	}
	return available
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	maxOffset := len(v.lines) - v.visibleLines()
	if maxOffset < 0 {
		maxOffset = 0
	}
	return maxOffset
}

// View renders the reader.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Article %d", v.id)
	if v.article != nil && v.article.Title != "" {
		title = v.article.Title
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.article != nil {
		if date := v.article.Ref().Date; !date.IsZero() {
			b.WriteString(v.styles.Muted.Render(date.Format("2006-01-02")))
		}
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading article..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			percentage := 0
			if v.maxScrollOffset() > 0 {
				percentage = v.scrollOffset * 100 / v.maxScrollOffset()
			}
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("\n  [%d%%] Line %d-%d of %d",
				percentage, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapContent()
}

// Article returns the loaded article.
func (v *View) Article() *domain.Article {
	return v.article
}

// Lines returns the wrapped content.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Back returns the view esc navigates to.
func (v *View) Back() messages.ViewType {
	return v.back
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
