package models

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

type stubSession struct {
	driving.SessionService
	models []string
	err    error
	calls  int
}

func (s *stubSession) ListModels(context.Context) ([]string, error) {
	s.calls++
	return s.models, s.err
}

func TestView_Init_LoadsModels(t *testing.T) {
	session := &stubSession{models: []string{"a", "b"}}
	view := NewView(nil, session)

	cmd := view.Init()
	require.NotNil(t, cmd)
	assert.True(t, view.Loading())

	view.Update(cmd())

	assert.False(t, view.Loading())
	assert.Equal(t, []string{"a", "b"}, view.Models())
	assert.NoError(t, view.Err())
	assert.Equal(t, 1, session.calls)
}

func TestView_Init_Error(t *testing.T) {
	view := NewView(nil, &stubSession{err: domain.NewTransportError("models", 401, errors.New("bad key"))})

	view.Update(view.Init()())

	assert.ErrorIs(t, view.Err(), domain.ErrTransportFailure)
	view.SetDimensions(80, 24)
	assert.Contains(t, view.View(), "bad key")
}

func TestView_NoSession(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(view.Init()())

	assert.ErrorIs(t, view.Err(), ErrNoSession)
}

func TestView_SelectUsesCustomMode(t *testing.T) {
	view := NewView(nil, &stubSession{})
	view.Update(messages.ModelsLoaded{Models: []string{"a", "b", "c"}})

	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, view.Selected())

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ModeSelected{Name: "custom", Model: "c"}, cmd())
}

func TestView_EnterOnEmptyList(t *testing.T) {
	view := NewView(nil, &stubSession{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Reload(t *testing.T) {
	session := &stubSession{models: []string{"a"}}
	view := NewView(nil, session)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, view.Loading())
	cmd()

	assert.Equal(t, 1, session.calls)
}

func TestView_Back(t *testing.T) {
	view := NewView(nil, &stubSession{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ScrollsLongLists(t *testing.T) {
	view := NewView(nil, &stubSession{})
	view.SetDimensions(80, 10)
	models := make([]string, 20)
	for i := range models {
		models[i] = string(rune('a' + i))
	}
	view.Update(messages.ModelsLoaded{Models: models})

	for range 15 {
		view.Update(tea.KeyMsg{Type: tea.KeyDown})
	}

	out := view.View()
	assert.Contains(t, out, "> p")
	assert.NotContains(t, out, "  a\n")
	assert.Contains(t, out, "16 of 20")
}
