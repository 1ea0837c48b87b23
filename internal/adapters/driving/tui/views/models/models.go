// Package models lists upstream models and selects one for custom mode.
package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/core/services"
)

// ErrNoSession is reported when the view was built without a session.
var ErrNoSession = errors.New("models: session not available")

// View is the model list view.
type View struct {
	styles  *styles.Styles
	session driving.SessionService
	ctx     context.Context

	models   []string
	selected int
	offset   int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new models view.
func NewView(s *styles.Styles, session driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		session: session,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for list calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the model list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadModels()
}

// loadModels returns a command that lists models from the session.
func (v *View) loadModels() tea.Cmd {
	session, ctx := v.session, v.ctx
	return func() tea.Msg {
		if session == nil {
			return messages.ModelsLoaded{Err: ErrNoSession}
		}
		models, err := session.ListModels(ctx)
		return messages.ModelsLoaded{Models: models, Err: err}
	}
}

// Update handles messages for the models view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ModelsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.models = msg.Models
		v.selected = 0
		v.offset = 0
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
		v.scroll()
	case "down", "j":
		if v.selected < len(v.models)-1 {
			v.selected++
		}
		v.scroll()
	case "enter":
		if len(v.models) > 0 {
			model := v.models[v.selected]
			return v, func() tea.Msg {
				return messages.ModeSelected{Name: services.ModeNameCustom, Model: model}
			}
		}
	case "r":
		v.loading = true
		return v, v.loadModels()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// scroll keeps the selection inside the visible window.
func (v *View) scroll() {
	visible := v.visibleRows()
	if v.selected < v.offset {
		v.offset = v.selected
	}
	if v.selected >= v.offset+visible {
		v.offset = v.selected - visible + 1
	}
}

func (v *View) visibleRows() int {
	return max(v.height-7, 1)
}

// View renders the models view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Models"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading models..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case len(v.models) == 0:
		b.WriteString(v.styles.Muted.Render("No models available."))
		b.WriteString("\n")
	default:
		end := min(v.offset+v.visibleRows(), len(v.models))
		for i := v.offset; i < end; i++ {
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render("> " + v.models[i]))
			} else {
				b.WriteString(v.styles.Normal.Render("  " + v.models[i]))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d of %d", v.selected+1, len(v.models))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Use for custom mode  [r] Reload  [Esc] Back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.scroll()
}

// Models returns the loaded models.
func (v *View) Models() []string {
	return v.models
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Loading reports whether a list call is outstanding.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}
