// Package ask provides the question answering view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// ErrNoQuestionService indicates that question answering is not wired.
var ErrNoQuestionService = errors.New("question answering is not available")

// View asks questions and shows the grounded answer with its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.TextInput
	spinner   spinner.Model
	statusbar *status.Bar

	question driving.QuestionService
	opts     domain.AskOptions
	ctx      context.Context

	asked    string
	result   *domain.AskResult
	selected int
	asking   bool
	err      error

	width      int
	height     int
	ready      bool
	focusInput bool
}

// NewView creates a new ask view. Zero opts use the service defaults.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	question driving.QuestionService,
	opts domain.AskOptions,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		spinner:    sp,
		statusbar:  status.NewBar(s, km),
		question:   question,
		opts:       opts,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !v.asking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.asking = false
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.asking {
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(v.input.Value())
			if q == "" {
				return v, nil
			}
			v.asked = q
			v.asking = true
			v.result = nil
			v.err = nil
			v.focusInput = false
			v.input.Blur()
			v.statusbar.SetState(status.StateAsking)
			v.statusbar.SetMessage("")
			return v, tea.Batch(v.spinner.Tick, v.performAsk(q))
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case key.Matches(msg, v.keymap.Down):
		if v.result != nil && v.selected < len(v.result.Sources)-1 {
			v.selected++
		}
	case key.Matches(msg, v.keymap.Open):
		if v.result == nil || len(v.result.Sources) == 0 {
			return v, nil
		}
		id := v.result.Sources[v.selected].Article.ID
		return v, func() tea.Msg {
			return messages.ArticleSelected{ID: id, From: messages.ViewAsk}
		}
	case key.Matches(msg, v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

// performAsk runs the question through the answer service.
func (v *View) performAsk(q string) tea.Cmd {
	ctx := v.ctx
	opts := v.opts
	return func() tea.Msg {
		if v.question == nil {
			return messages.ErrorOccurred{Err: ErrNoQuestionService}
		}
		result, err := v.question.Ask(ctx, q, opts)
		return messages.AskCompleted{Question: q, Result: result, Err: err}
	}
}

func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	// Answers to an abandoned question are dropped.
	if msg.Question != v.asked {
		return
	}
	v.asking = false
	v.selected = 0

	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.result = msg.Result
	if v.result == nil {
		v.result = &domain.AskResult{}
	}
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(v.result.Sources))
	if v.result.NoContext {
		v.statusbar.SetMessage("No relevant context")
	}
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("Recall · Ask"), "", v.input.View(), "")

	switch {
	case v.asking:
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Generating answer..."), "")
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	case v.result != nil:
		sections = append(sections, v.renderResult(), "")
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderResult() string {
	answerWidth := v.width - 4
	if answerWidth < 20 {
		answerWidth = 20
	}

	var b strings.Builder
	b.WriteString(v.styles.Answer.Width(answerWidth).Render(v.result.Answer))

	if len(v.result.Sources) == 0 {
		return b.String()
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtitle.Render("Sources"))
	for i, src := range v.result.Sources {
		b.WriteString("\n")
		line := fmt.Sprintf("[%d] %s", i+1, src.Article.Title)
		if !src.Article.Date.IsZero() {
			line += " (" + src.Article.Date.Format("2006-01-02") + ")"
		}
		score := fmt.Sprintf("%.3f", src.Similarity)
		if i == v.selected && !v.focusInput {
			b.WriteString(v.styles.Selected.Render("> " + line + "  " + score))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(line) + "  " + v.styles.Similarity(src.Similarity).Render(score))
		}
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.asked = ""
	v.asking = false
	v.result = nil
	v.selected = 0
	v.err = nil
	v.statusbar.Clear()
}

// Result returns the last answer.
func (v *View) Result() *domain.AskResult {
	return v.result
}

// Asking reports whether an answer is being generated.
func (v *View) Asking() bool {
	return v.asking
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Selected returns the index of the highlighted source.
func (v *View) Selected() int {
	return v.selected
}
