package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/article"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/articles"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/indexstatus"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/recall/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings shown in help.
	keymap *keymap.KeyMap

	menuView     *menu.View
	searchView   *search.View
	askView      *ask.View
	articlesView *articles.View
	articleView  *article.View
	statusView   *indexstatus.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// Option configures an App.
type Option func(*App)

// WithAskOptions sets the retrieval options used by the ask view.
func WithAskOptions(opts domain.AskOptions) Option {
	return func(a *App) {
		a.askView = ask.NewView(a.styles, a.keymap, a.ports.Question, opts)
	}
}

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports, opts ...Option) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		menuView:     menu.NewView(s),
		searchView:   search.NewView(s, km, ports.Index, ports.Articles),
		askView:      ask.NewView(s, km, ports.Question, domain.AskOptions{}),
		articlesView: articles.NewView(s, ports.Articles),
		articleView:  article.NewView(s, ports.Articles),
		statusView:   indexstatus.NewView(s, ports.Index),
		currentView:  messages.ViewMenu,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.askView.WithContext(ctx)
	a.articlesView.WithContext(ctx)
	a.articleView.WithContext(ctx)
	a.statusView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("recall"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		// Returning from the reader keeps results; entering from the menu starts fresh.
		fromMenu := a.currentView == messages.ViewMenu
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewSearch:
			if !fromMenu {
				return a, nil
			}
			a.searchView.Reset()
			return a, a.searchView.Init()
		case messages.ViewAsk:
			if !fromMenu {
				return a, nil
			}
			a.askView.Reset()
			return a, a.askView.Init()
		case messages.ViewArticles:
			return a, a.articlesView.Init()
		case messages.ViewStatus:
			return a, a.statusView.Init()
		case messages.ViewMenu, messages.ViewArticle, messages.ViewHelp:
			// No initialisation needed
		}
		return a, nil

	case messages.ArticleSelected:
		a.currentView = messages.ViewArticle
		return a, a.articleView.Open(msg.ID, msg.From)

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.AskCompleted:
		a.askView, cmd = a.askView.Update(msg)
		a.err = msg.Err
		return a, cmd

	case messages.ArticlesLoaded:
		a.articlesView, cmd = a.articlesView.Update(msg)
		return a, cmd

	case messages.ArticleLoaded:
		a.articleView, cmd = a.articleView.Update(msg)
		return a, cmd

	case messages.StatusLoaded:
		a.statusView, cmd = a.statusView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (spinner ticks, cursor blinks) to the active view
	return a, a.forward(msg)
}

// forward delivers msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewArticles:
		a.articlesView, cmd = a.articlesView.Update(msg)
	case messages.ViewArticle:
		a.articleView, cmd = a.articleView.Update(msg)
	case messages.ViewStatus:
		a.statusView, cmd = a.statusView.Update(msg)
	case messages.ViewHelp:
		// Help is static
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewArticles:
		return a.articlesView.View()
	case messages.ViewArticle:
		return a.articleView.View()
	case messages.ViewStatus:
		return a.statusView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
		return a.menuView.View()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view from the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("Search and Ask: type, then enter. Results: enter opens the article."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.articlesView.SetDimensions(width, height)
	a.articleView.SetDimensions(width, height)
	a.statusView.SetDimensions(width, height)
}
