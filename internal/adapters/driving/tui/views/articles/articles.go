// Package articles provides the article browser view for the TUI.
package articles

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

// View lists archived articles.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	articles driving.ArticleService
	ctx      context.Context

	items    []domain.Article
	selected int
	loading  bool
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new article browser.
func NewView(s *styles.Styles, articles driving.ArticleService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		keys:     keymap.DefaultKeyMap(),
		articles: articles,
		ctx:      context.Background(),
		width:    80,
		height:   24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the article listing.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadArticles()
}

func (v *View) loadArticles() tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		if v.articles == nil {
			return messages.ArticlesLoaded{Err: ErrNoArticleService}
		}
		list, err := v.articles.List(ctx)
		return messages.ArticlesLoaded{Articles: list, Err: err}
	}
}

// Update handles messages for the article browser.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.ArticlesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.items = msg.Articles
			if v.selected >= len(v.items) {
				v.selected = 0
			}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case key.Matches(msg, v.keys.Down):
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case key.Matches(msg, v.keys.Open):
			if len(v.items) == 0 {
				return v, nil
			}
			id := v.items[v.selected].ID
			return v, func() tea.Msg {
				return messages.ArticleSelected{ID: id, From: messages.ViewArticles}
			}
		case key.Matches(msg, v.keys.Refresh):
			return v, v.Init()
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
	}
	return v, nil
}

// View renders the article list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Articles (%d)", len(v.items))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading articles..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No articles yet. Add one with `recall article add`."))
	default:
		b.WriteString(v.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] navigate  [enter] open  [r] refresh  [esc] back"))
	return b.String()
}

func (v *View) renderList() string {
	visible := v.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := start + visible
	if end > len(v.items) {
		end = len(v.items)
	}

	titleWidth := v.width - 20
	if titleWidth < 10 {
		titleWidth = 10
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		ref := v.items[i].Ref()
		title := ref.Title
		if title == "" {
			title = fmt.Sprintf("Article %d", ref.ID)
		}
		if r := []rune(title); len(r) > titleWidth {
			title = string(r[:titleWidth-3]) + "..."
		}
		date := ""
		if !ref.Date.IsZero() {
			date = ref.Date.Format("2006-01-02")
		}

		row := fmt.Sprintf("%-*s  %s", titleWidth, title, date)
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+row))
		} else {
			lines = append(lines, "  "+v.styles.Normal.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Items returns the loaded articles.
func (v *View) Items() []domain.Article {
	return v.items
}

// Selected returns the highlighted row.
func (v *View) Selected() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
