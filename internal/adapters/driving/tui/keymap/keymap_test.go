package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"Quit", km.Quit, []string{"q", "ctrl+c"}},
		{"Help", km.Help, []string{"?"}},
		{"Back", km.Back, []string{"esc"}},
		{"Submit", km.Submit, []string{"enter"}},
		{"NewQuery", km.NewQuery, []string{"n"}},
		{"Up", km.Up, []string{"up", "k"}},
		{"Down", km.Down, []string{"down", "j"}},
		{"Open", km.Open, []string{"enter"}},
		{"Refresh", km.Refresh, []string{"r"}},
		{"PageUp", km.PageUp, []string{"pgup", "ctrl+u"}},
		{"PageDown", km.PageDown, []string{"pgdown", "ctrl+d"}},
		{"Top", km.Top, []string{"home", "g"}},
		{"Bottom", km.Bottom, []string{"end", "G"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.keys, tt.binding.Keys())
			assert.NotEmpty(t, tt.binding.Help().Key)
			assert.NotEmpty(t, tt.binding.Help().Desc)
		})
	}
}

func TestKeyMap_ContextHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Submit, km.Back}, km.QueryHelp())
	assert.Equal(t, []key.Binding{km.NewQuery, km.Up, km.Open, km.Back}, km.ResultsHelp())
	assert.Equal(t, []key.Binding{km.Up, km.Down, km.PageDown, km.Back}, km.ReaderHelp())
}

func TestKeyMap_FullHelpCoversEveryBinding(t *testing.T) {
	km := DefaultKeyMap()

	count := 0
	for _, group := range km.FullHelp() {
		count += len(group)
	}
	assert.Equal(t, 13, count)
}

func TestKeyMap_MatchesKeyMessages(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")}, km.Bottom))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyPgDown}, km.PageDown))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("R")}, km.Refresh))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyDown}, km.Up))
}
