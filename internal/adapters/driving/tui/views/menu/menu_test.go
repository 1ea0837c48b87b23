package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/messages"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Len(t, view.Items(), 6)
	assert.Zero(t, view.Selected())
	assert.Nil(t, view.Init())
}

func TestView_Navigate(t *testing.T) {
	view := NewView(nil)

	view.Update(key("up"))
	assert.Zero(t, view.Selected())

	view.Update(key("down"))
	view.Update(key("j"))
	assert.Equal(t, 2, view.Selected())

	view.Update(key("k"))
	assert.Equal(t, 1, view.Selected())

	for range 10 {
		view.Update(key("down"))
	}
	assert.Equal(t, len(view.Items())-1, view.Selected())
}

func TestView_Select(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  tea.Msg
	}{
		{"chat", 0, messages.ModeSelected{Name: "chat"}},
		{"explain", 1, messages.ModeSelected{Name: "explain"}},
		{"code", 2, messages.ModeSelected{Name: "code"}},
		{"models", 3, messages.ViewChanged{View: messages.ViewModels}},
		{"help", 4, messages.ViewChanged{View: messages.ViewHelp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)
			view.selected = tt.index

			_, cmd := view.Update(key("enter"))

			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func TestView_Quit(t *testing.T) {
	view := NewView(nil)
	view.selected = 5

	_, cmd := view.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = view.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	view := NewView(nil)
	assert.Equal(t, "Initialising...", view.View())

	view.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	out := view.View()
	assert.Contains(t, out, "Palaver")
	assert.Contains(t, out, "> Chat")
	assert.Contains(t, out, "raw code completion")
}
