// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the prompt input and transcript view.
	ViewChat
	// ViewModels lists upstream models.
	ViewModels
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewModels:
		return "models"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ModeSelected asks the app to switch the session mode and open the chat view.
// Model is only used by the custom mode.
type ModeSelected struct {
	Name  string
	Model string
}

// ModeChanged reports the session's new active mode.
type ModeChanged struct {
	Mode domain.Mode
}

// ReplyReceived carries the outcome of a non-streaming ask.
type ReplyReceived struct {
	Prompt  string
	Results []domain.Result
	Err     error
}

// StreamStarted carries an open stream for a chat ask.
type StreamStarted struct {
	Prompt string
	Stream driving.DeltaStream
	Err    error
}

// DeltaReceived carries one batch read from an open stream.
type DeltaReceived struct {
	Batch []domain.Delta
}

// StreamFinished signals the stream ended. Err is nil on a clean finish.
type StreamFinished struct {
	Err error
}

// ModelsLoaded carries the upstream model list.
type ModelsLoaded struct {
	Models []string
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ModelNotice carries the session's model-change notification.
type ModelNotice struct {
	Model string
}
