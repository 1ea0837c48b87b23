package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/views/models"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView   *menu.View
	chatView   *chat.View
	modelsView *models.View

	currentView messages.ViewType
	err         error

	mu      sync.Mutex
	program *tea.Program

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menu.NewView(s),
		chatView:    chat.NewView(s, nil, ports.Session),
		modelsView:  models.NewView(s, ports.Session),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext sets the context requests derive from.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.modelsView.WithContext(ctx)
	return a
}

// WithStreaming makes chat-mode replies stream into the transcript.
func (a *App) WithStreaming(on bool) *App {
	a.chatView.SetStreaming(on)
	return a
}

// Notify forwards a model-change notification to the running program.
// It is safe to call from Update, so it can serve as the session notifier.
func (a *App) Notify(model string) {
	a.mu.Lock()
	p := a.program
	a.mu.Unlock()
	if p == nil {
		return
	}
	go p.Send(messages.ModelNotice{Model: model})
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("palaver"),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.chatView.Stop()
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewChat:
			a.chatView, cmd = a.chatView.Update(msg)
		case messages.ViewModels:
			a.modelsView, cmd = a.modelsView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewModels:
			return a, a.modelsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.ModeSelected:
		return a, a.selectMode(msg)

	case messages.ModelsLoaded:
		a.modelsView, cmd = a.modelsView.Update(msg)
		return a, cmd

	case messages.ReplyReceived, messages.StreamStarted, messages.DeltaReceived,
		messages.StreamFinished, messages.ModelNotice, spinner.TickMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.Quit:
		a.chatView.Stop()
		return a, tea.Quit
	}

	// Forward other messages to the active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewModels:
		a.modelsView, cmd = a.modelsView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

// selectMode switches the session mode and opens the chat view.
// Switching is refused while a request is outstanding so the reply is
// attributed to the mode it was sent in.
func (a *App) selectMode(msg messages.ModeSelected) tea.Cmd {
	if a.chatView.Busy() {
		return nil
	}
	mode, err := a.ports.Modes.ByName(msg.Name, msg.Model)
	if err != nil {
		a.err = err
		a.currentView = messages.ViewChat
		a.chatView, _ = a.chatView.Update(messages.ErrorOccurred{Err: err})
		return nil
	}
	a.err = nil
	a.ports.Session.SetMode(mode)
	a.chatView.SetMode(msg.Name, mode)
	a.currentView = messages.ViewChat
	return a.chatView.Init()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewModels:
		return a.modelsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option

Chat:
  (type)      Enter a prompt
  enter       Send
  tab         Cycle chat, explain and code
  ↑/↓ pgup    Scroll the transcript
  esc         Stop the reply, or back to Menu

Models:
  enter       Use the model for custom completion
  r           Reload

[esc] back to menu`
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	a.mu.Lock()
	a.program = p
	a.mu.Unlock()

	_, err := p.Run()

	a.mu.Lock()
	a.program = nil
	a.mu.Unlock()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions for every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.modelsView.SetDimensions(width, height)
}
