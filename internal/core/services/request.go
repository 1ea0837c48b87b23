package services

import (
	"fmt"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

// chatTemperature is fixed so chat sampling is deterministic.
const chatTemperature = 0.0

// BuildChatRequest turns content into a chat request for a chat mode.
// The mode's transform is applied to content, and the resulting user message
// is appended to a copy of the conversation; the conversation itself is not
// modified. Non-chat modes fail with domain.ErrInvalidState.
func BuildChatRequest(mode domain.Mode, content string) (driven.ChatRequest, error) {
	if !mode.IsChat() {
		return driven.ChatRequest{}, fmt.Errorf("build chat request for %s mode: %w", kindName(mode), domain.ErrInvalidState)
	}

	var history []domain.Turn
	if conv := mode.Conversation(); conv != nil {
		history = conv.Turns()
	}

	messages := make([]driven.ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{
			Role:    turn.Role.String(),
			Content: turn.Content,
		})
	}
	messages = append(messages, driven.ChatMessage{
		Role:    domain.RoleUser.String(),
		Content: mode.Transform().Apply(content),
	})

	temperature := chatTemperature
	return driven.ChatRequest{
		Model:       mode.Model(),
		Messages:    messages,
		Temperature: &temperature,
	}, nil
}

// BuildCompletionRequest wraps content verbatim as a prompt for a completion mode.
// Chat modes fail with domain.ErrInvalidState.
func BuildCompletionRequest(mode domain.Mode, content string) (driven.CompletionRequest, error) {
	switch mode.Kind() {
	case domain.ModeRawCompletion, domain.ModeCustomModel:
	default:
		return driven.CompletionRequest{}, fmt.Errorf("build completion request for %s mode: %w", kindName(mode), domain.ErrInvalidState)
	}

	return driven.CompletionRequest{
		Model:  mode.Model(),
		Prompt: content,
	}, nil
}

// userTurnFor returns the user turn recorded for content in a chat mode,
// matching the last message BuildChatRequest produces.
func userTurnFor(mode domain.Mode, content string) domain.Turn {
	return domain.UserTurn(mode.Transform().Apply(content))
}

func kindName(mode domain.Mode) string {
	if mode.IsZero() {
		return "unset"
	}
	return mode.Kind().String()
}
