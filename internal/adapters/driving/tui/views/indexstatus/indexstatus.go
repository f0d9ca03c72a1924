// Package indexstatus provides the index status view for the TUI.
package indexstatus

import (
	"context"
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

// View shows what the index holds and whether it must be rebuilt.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	index  driving.IndexService
	ctx    context.Context

	status  *domain.IndexStatus
	loading bool
	err     error

	width  int
	height int
}

// NewView creates a new index status view.
func NewView(s *styles.Styles, index driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		index:  index,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the status.
func (v *View) Init() tea.Cmd {
	v.loading = true
	ctx := v.ctx
	return func() tea.Msg {
		status, err := v.index.Status(ctx)
		return messages.StatusLoaded{Status: status, Err: err}
	}
}

// Update handles messages for the status view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.StatusLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			status := msg.Status
			v.status = &status
		}

	case tea.KeyMsg:
		switch {
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

// View renders the status.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Index status"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.status != nil:
		b.WriteString(v.renderStatus())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[r] refresh  [esc] back"))
	return b.String()
}

func (v *View) renderStatus() string {
	s := v.status
	row := func(label, value string) string {
		return v.styles.Muted.Render(fmt.Sprintf("%-18s", label)) + v.styles.Normal.Render(value)
	}
	orNone := func(value string) string {
		if value == "" {
			return "(none)"
		}
		return value
	}

	lines := []string{
		row("Articles", fmt.Sprintf("%d indexed of %d", s.IndexedArticles, s.TotalArticles)),
		row("Chunks", fmt.Sprintf("%d", s.TotalChunks)),
		row("Current model", orNone(s.CurrentModel)),
		row("Indexed model", orNone(s.IndexedModel)),
		row("Chunking", orNone(s.CurrentChunkingVersion)),
		row("Indexed chunking", orNone(s.IndexedChunkingVersion)),
	}
	if s.Dimensions > 0 {
		lines = append(lines, row("Dimensions", fmt.Sprintf("%d", s.Dimensions)))
	}
	if !s.BuiltAt.IsZero() {
		lines = append(lines, row("Built", s.BuiltAt.Local().Format("2006-01-02 15:04")))
	}

	lines = append(lines, "")
	switch {
	case s.ModelMismatch:
		lines = append(lines, v.styles.Warning.Render("The embedding model changed. Run `recall index rebuild`."))
	case s.ChunkingMismatch:
		lines = append(lines, v.styles.Warning.Render("The chunking settings changed. Run `recall index rebuild`."))
	case s.DimensionMismatch:
		lines = append(lines, v.styles.Warning.Render(fmt.Sprintf(
			"The model now produces %d-dimensional vectors. Run `recall index rebuild`.", s.CurrentDimensions)))
	case s.RequiresReindex:
		lines = append(lines, v.styles.Warning.Render("The index must be rebuilt. Run `recall index rebuild`."))
	default:
		lines = append(lines, v.styles.Success.Render("The index is up to date."))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Status returns the loaded status, or nil.
func (v *View) Status() *domain.IndexStatus {
	return v.status
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
