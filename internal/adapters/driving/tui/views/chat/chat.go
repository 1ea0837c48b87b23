// Package chat provides the prompt and transcript view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/core/services"
)

// ErrNoSession is reported when the view was built without a session.
var ErrNoSession = errors.New("chat: session not available")

// modeCycle is the order tab moves through.
var modeCycle = []string{services.ModeNameChat, services.ModeNameExplain, services.ModeNameCode}

// View is the chat view: transcript on top, prompt input and status bar below.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.PromptInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	session driving.SessionService
	ctx     context.Context

	modeName  string
	streaming bool

	// request in flight
	cancel   context.CancelFunc
	stream   driving.DeltaStream
	sentMode domain.Mode
	sent     string
	batches  [][]domain.Delta
	stopped  bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, session driving.SessionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewPromptInput(s),
		transcript: transcript.New(s),
		statusbar:  status.NewBar(s, km),
		session:    session,
		ctx:        context.Background(),
		modeName:   services.ModeNameChat,
		width:      80,
		height:     24,
	}
	if session != nil {
		v.SetMode(services.ModeNameChat, session.Mode())
	}
	return v
}

// WithContext sets the context requests derive from.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetStreaming makes chat-mode asks stream their reply.
func (v *View) SetStreaming(on bool) {
	v.streaming = on
}

// SetMode updates the labels after the session switched modes.
func (v *View) SetMode(name string, mode domain.Mode) {
	v.modeName = name
	v.input.SetLabel(name)
	v.statusbar.SetMode(name, mode.Model())
	if mode.IsChat() {
		v.input.SetPlaceholder("Ask something...")
	} else {
		v.input.SetPlaceholder("Code to complete...")
	}
}

// Init focuses the prompt.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ReplyReceived:
		v.handleReply(msg)
		return v, nil

	case messages.StreamStarted:
		return v, v.handleStreamStarted(msg)

	case messages.DeltaReceived:
		return v, v.handleDelta(msg)

	case messages.StreamFinished:
		v.handleStreamFinished(msg)
		return v, nil

	case messages.ModelNotice:
		if !v.statusbar.Busy() {
			v.statusbar.SetMessage("model changed to: " + msg.Model)
		}
		return v, nil

	case messages.ErrorOccurred:
		v.fail(msg.Err)
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.statusbar, cmd = v.statusbar.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.Busy() {
		if msg.Type == tea.KeyEsc {
			v.Stop()
		}
		return v, nil
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case tea.KeyTab:
		next := nextMode(v.modeName)
		return v, func() tea.Msg {
			return messages.ModeSelected{Name: next}
		}
	case tea.KeyEnter:
		return v, v.send()
	case tea.KeyUp:
		v.transcript.ScrollUp(1)
		return v, nil
	case tea.KeyDown:
		v.transcript.ScrollDown(1)
		return v, nil
	case tea.KeyPgUp:
		v.transcript.ScrollUp(v.transcriptHeight())
		return v, nil
	case tea.KeyPgDown:
		v.transcript.ScrollDown(v.transcriptHeight())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// send starts an ask for the current input.
func (v *View) send() tea.Cmd {
	content := v.input.Value()
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if v.session == nil {
		v.fail(ErrNoSession)
		return nil
	}

	v.err = nil
	v.input.Reset()
	v.transcript.Add(string(domain.RoleUser), content)

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	v.sent = content
	v.sentMode = v.session.Mode()
	v.batches = nil
	v.stopped = false

	if v.streaming && v.sentMode.IsChat() {
		return tea.Batch(v.statusbar.Start(status.StateStreaming), v.openStream(ctx, content))
	}
	return tea.Batch(v.statusbar.Start(status.StateWaiting), v.ask(ctx, content))
}

func (v *View) ask(ctx context.Context, content string) tea.Cmd {
	session := v.session
	return func() tea.Msg {
		results, err := session.Ask(ctx, content)
		return messages.ReplyReceived{Prompt: content, Results: results, Err: err}
	}
}

func (v *View) openStream(ctx context.Context, content string) tea.Cmd {
	session := v.session
	return func() tea.Msg {
		stream, err := session.AskStream(ctx, content)
		return messages.StreamStarted{Prompt: content, Stream: stream, Err: err}
	}
}

// next reads one batch from the open stream.
func next(stream driving.DeltaStream) tea.Cmd {
	return func() tea.Msg {
		if stream.Next() {
			return messages.DeltaReceived{Batch: stream.Current()}
		}
		err := stream.Err()
		stream.Close() //nolint:errcheck
		return messages.StreamFinished{Err: err}
	}
}

func (v *View) handleReply(msg messages.ReplyReceived) {
	v.release()
	if msg.Err != nil {
		v.fail(msg.Err)
		return
	}
	v.statusbar.Clear()
	if len(msg.Results) == 0 {
		v.statusbar.SetMessage("no choices returned")
		return
	}
	v.transcript.Add(msg.Results[0].Role, msg.Results[0].Content)
}

func (v *View) handleStreamStarted(msg messages.StreamStarted) tea.Cmd {
	if msg.Err != nil {
		v.release()
		v.fail(msg.Err)
		return nil
	}
	if v.stopped {
		msg.Stream.Close() //nolint:errcheck
		v.release()
		v.statusbar.Clear()
		v.statusbar.SetMessage("stopped")
		return nil
	}
	v.stream = msg.Stream
	v.transcript.Begin("")
	return next(msg.Stream)
}

func (v *View) handleDelta(msg messages.DeltaReceived) tea.Cmd {
	if v.stream == nil {
		return nil
	}
	v.batches = append(v.batches, msg.Batch)
	for _, d := range msg.Batch {
		if d.Index != 0 {
			continue
		}
		role, content := "", ""
		if d.Role != nil {
			role = *d.Role
		}
		if d.Content != nil {
			content = *d.Content
		}
		v.transcript.Append(role, content)
	}
	return next(v.stream)
}

func (v *View) handleStreamFinished(msg messages.StreamFinished) {
	if v.stream == nil {
		return
	}
	v.transcript.End()
	stopped := v.stopped
	v.release()

	switch {
	case stopped || errors.Is(msg.Err, context.Canceled):
		v.statusbar.Clear()
		v.statusbar.SetMessage("stopped")
	case msg.Err != nil:
		v.fail(msg.Err)
	default:
		v.statusbar.Clear()
		if v.session.PersistContext() {
			services.KeepStreamed(v.sentMode, v.sent, v.batches)
		}
	}
	v.batches = nil
}

// Stop cancels the outstanding request. A partial streamed reply stays on
// screen but is never kept in the conversation.
func (v *View) Stop() {
	v.stopped = true
	if v.cancel != nil {
		v.cancel()
	}
	if v.stream != nil {
		v.stream.Close() //nolint:errcheck
	}
}

func (v *View) release() {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.stream = nil
	v.stopped = false
}

func (v *View) fail(err error) {
	if errors.Is(err, context.Canceled) {
		v.statusbar.Clear()
		v.statusbar.SetMessage("stopped")
		return
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func nextMode(current string) string {
	for i, name := range modeCycle {
		if name == current {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("Palaver"), "")
	sections = append(sections, v.transcript.View(), "")
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	}
	sections = append(sections, v.input.View(), v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.transcript.SetDimensions(width, v.transcriptHeight())
	v.statusbar.SetWidth(width)
}

// transcriptHeight reserves room for the title, input and status bar.
func (v *View) transcriptHeight() int {
	return max(v.height-8, 3)
}

// Busy reports whether a request is outstanding.
func (v *View) Busy() bool {
	return v.statusbar.Busy()
}

// ModeName returns the label of the active mode.
func (v *View) ModeName() string {
	return v.modeName
}

// Input returns the current prompt text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput replaces the prompt text.
func (v *View) SetInput(s string) {
	v.input.SetValue(s)
}

// Entries returns the finished transcript entries.
func (v *View) Entries() []transcript.Entry {
	return v.transcript.Entries()
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
