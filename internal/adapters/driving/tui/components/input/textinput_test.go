package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driving/tui/styles"
)

func typeText(in *TextInput, text string) {
	for _, r := range text {
		in.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNew(t *testing.T) {
	in := New(styles.DefaultStyles(), "Find: ", "placeholder")

	require.NotNil(t, in)
	assert.Equal(t, "Find: ", in.Label())
	assert.True(t, in.Focused())
	assert.Equal(t, "", in.Value())
	assert.Equal(t, 50, in.Width())
}

func TestNew_NilStyles(t *testing.T) {
	in := New(nil, "Find: ", "")

	require.NotNil(t, in)
	assert.NotNil(t, in.styles)
}

func TestPresetInputs(t *testing.T) {
	assert.Equal(t, "Search: ", NewSearchInput(nil).Label())
	assert.Equal(t, "Ask: ", NewQuestionInput(nil).Label())
}

func TestTextInput_Init(t *testing.T) {
	in := NewSearchInput(nil)

	assert.NotNil(t, in.Init())
}

func TestTextInput_Typing(t *testing.T) {
	in := NewSearchInput(nil)

	typeText(in, "cats")
	assert.Equal(t, "cats", in.Value())

	in.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "cat", in.Value())
}

func TestTextInput_View(t *testing.T) {
	in := NewQuestionInput(nil)
	in.SetValue("why?")

	view := in.View()

	assert.Contains(t, view, "Ask:")
	assert.Contains(t, view, "why?")
}

func TestTextInput_FocusBlur(t *testing.T) {
	in := NewSearchInput(nil)

	in.Blur()
	assert.False(t, in.Focused())

	in.Focus()
	assert.True(t, in.Focused())
}

func TestTextInput_SetWidth(t *testing.T) {
	in := NewSearchInput(nil)

	in.SetWidth(100)
	assert.Equal(t, 100, in.Width())
	assert.Equal(t, 100-len("Search: ")-6, in.textinput.Width)

	in.SetWidth(10)
	assert.Equal(t, 20, in.textinput.Width)
}

func TestTextInput_Reset(t *testing.T) {
	in := NewSearchInput(nil)
	in.SetValue("query")

	in.Reset()

	assert.Equal(t, "", in.Value())
}
