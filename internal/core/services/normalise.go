package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

// NormaliseChat maps every chat choice to a result, in upstream order.
// Content is trimmed of surrounding whitespace only. Zero choices yield an
// empty, non-nil slice; a missing choices field is malformed.
func NormaliseChat(resp *driven.ChatResponse) ([]domain.Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("chat response: %w", domain.ErrMalformedResponse)
	}
	if resp.Choices == nil {
		return nil, fmt.Errorf("chat response has no choices: %w", domain.ErrMalformedResponse)
	}

	results := make([]domain.Result, 0, len(resp.Choices))
	for i, choice := range resp.Choices {
		if choice.Message == nil {
			return nil, fmt.Errorf("chat choice %d has no message: %w", i, domain.ErrMalformedResponse)
		}
		results = append(results, domain.Result{
			Role:    choice.Message.Role,
			Content: strings.TrimSpace(choice.Message.Content),
		})
	}
	return results, nil
}

// NormaliseCompletion maps every completion choice to a role-less result,
// in upstream order.
func NormaliseCompletion(resp *driven.CompletionResponse) ([]domain.Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("completion response: %w", domain.ErrMalformedResponse)
	}
	if resp.Choices == nil {
		return nil, fmt.Errorf("completion response has no choices: %w", domain.ErrMalformedResponse)
	}

	results := make([]domain.Result, 0, len(resp.Choices))
	for i, choice := range resp.Choices {
		if choice.Text == nil {
			return nil, fmt.Errorf("completion choice %d has no text: %w", i, domain.ErrMalformedResponse)
		}
		results = append(results, domain.Result{
			Content: strings.TrimSpace(*choice.Text),
		})
	}
	return results, nil
}

// primaryTurn returns the turn to commit for the first chat choice.
// The role falls back to assistant when the upstream left it blank.
func primaryTurn(resp *driven.ChatResponse) (domain.Turn, bool) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return domain.Turn{}, false
	}
	msg := resp.Choices[0].Message
	role := domain.Role(msg.Role)
	if role == "" {
		role = domain.RoleAssistant
	}
	return domain.Turn{Role: role, Content: msg.Content}, true
}
