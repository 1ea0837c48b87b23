// Package transcript renders the conversation as a scrollable viewport.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/palaver/internal/adapters/driving/tui/styles"
)

// Entry is one block in the transcript.
type Entry struct {
	Role    string
	Content string
}

// Transcript holds finished entries plus at most one entry being streamed.
type Transcript struct {
	styles   *styles.Styles
	viewport viewport.Model
	entries  []Entry

	streaming bool
	partial   strings.Builder
	role      string
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 16),
	}
}

// Update forwards scrolling input to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Add appends a finished entry and scrolls to it.
func (t *Transcript) Add(role, content string) {
	t.entries = append(t.entries, Entry{Role: role, Content: content})
	t.refresh()
}

// Begin opens a streamed entry. An empty role is shown as assistant until
// a fragment names one.
func (t *Transcript) Begin(role string) {
	t.streaming = true
	t.role = role
	t.partial.Reset()
	t.refresh()
}

// Append adds streamed text to the open entry.
func (t *Transcript) Append(role, text string) {
	if !t.streaming {
		return
	}
	if t.role == "" && role != "" {
		t.role = role
	}
	t.partial.WriteString(text)
	t.refresh()
}

// End closes the open entry, keeping whatever arrived.
func (t *Transcript) End() {
	if !t.streaming {
		return
	}
	role := t.role
	if role == "" {
		role = "assistant"
	}
	t.streaming = false
	t.entries = append(t.entries, Entry{Role: role, Content: t.partial.String()})
	t.partial.Reset()
	t.refresh()
}

// Streaming reports whether an entry is open.
func (t *Transcript) Streaming() bool {
	return t.streaming
}

// Partial returns the text of the open entry so far.
func (t *Transcript) Partial() string {
	return t.partial.String()
}

// Entries returns the finished entries.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Clear removes all entries.
func (t *Transcript) Clear() {
	t.entries = nil
	t.streaming = false
	t.partial.Reset()
	t.refresh()
}

// ScrollUp moves the view up n lines.
func (t *Transcript) ScrollUp(n int) {
	t.viewport.LineUp(n)
}

// ScrollDown moves the view down n lines.
func (t *Transcript) ScrollDown(n int) {
	t.viewport.LineDown(n)
}

// SetDimensions resizes the viewport.
func (t *Transcript) SetDimensions(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
	t.refresh()
}

// Render returns the full transcript text at the current width.
func (t *Transcript) Render() string {
	blocks := make([]string, 0, len(t.entries)+1)
	for _, e := range t.entries {
		blocks = append(blocks, t.renderEntry(e.Role, e.Content))
	}
	if t.streaming {
		role := t.role
		if role == "" {
			role = "assistant"
		}
		blocks = append(blocks, t.renderEntry(role, t.partial.String()+"▌"))
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderEntry(role, content string) string {
	wrap := lipgloss.NewStyle().Width(max(t.viewport.Width, 1))
	if role == "" {
		return wrap.Render(content)
	}
	header := t.styles.Role(role).Render(role + ":")
	return header + "\n" + wrap.Render(content)
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.Render())
	t.viewport.GotoBottom()
}
