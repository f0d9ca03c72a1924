// Package keymap holds the key bindings the TUI views react to.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups bindings by where they apply.
type KeyMap struct {
	// Everywhere.
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Search and ask input.
	Submit   key.Binding
	NewQuery key.Binding

	// Result and article lists.
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Refresh key.Binding

	// Article reader.
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns vim-flavoured bindings with arrow key fallbacks.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: binding("q", "quit", "q", "ctrl+c"),
		Help: binding("?", "help", "?"),
		Back: binding("esc", "back", "esc"),

		Submit:   binding("enter", "submit", "enter"),
		NewQuery: binding("n", "new", "n"),

		Up:      binding("↑/k", "up", "up", "k"),
		Down:    binding("↓/j", "down", "down", "j"),
		Open:    binding("enter", "open", "enter"),
		Refresh: binding("r", "refresh", "r"),

		PageUp:   binding("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: binding("pgdn", "page down", "pgdown", "ctrl+d"),
		Top:      binding("g", "top", "home", "g"),
		Bottom:   binding("G", "bottom", "end", "G"),
	}
}

// QueryHelp is shown while typing a query or question.
func (k *KeyMap) QueryHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// ResultsHelp is shown once results are listed.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Up, k.Open, k.Back}
}

// ReaderHelp is shown in the article reader.
func (k *KeyMap) ReaderHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PageDown, k.Back}
}

// FullHelp lists every binding for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Refresh},
		{k.Submit, k.NewQuery, k.Back},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Help, k.Quit},
	}
}
