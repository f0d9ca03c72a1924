// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchResult is a search hit with the title of its article resolved.
type SearchResult struct {
	domain.SearchHit
	Title string
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Results []SearchResult
	Err     error
}

// AskCompleted carries a generated answer back to the model.
type AskCompleted struct {
	Question string
	Result   *domain.AskResult
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewAsk is the question answering view.
	ViewAsk
	// ViewArticles lists archived articles.
	ViewArticles
	// ViewArticle shows a single article.
	ViewArticle
	// ViewStatus shows the index status.
	ViewStatus
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewArticles:
		return "articles"
	case ViewArticle:
		return "article"
	case ViewStatus:
		return "status"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ArticlesLoaded carries the article listing.
type ArticlesLoaded struct {
	Articles []domain.Article
	Err      error
}

// ArticleSelected asks the app to open an article.
// From is the view to return to when the reader is closed.
type ArticleSelected struct {
	ID   int64
	From ViewType
}

// ArticleLoaded carries a fully loaded article.
type ArticleLoaded struct {
	ID      int64
	Article *domain.Article
	Err     error
}

// StatusLoaded carries the index status.
type StatusLoaded struct {
	Status domain.IndexStatus
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
