package driving

import (
	"context"

	"github.com/custodia-labs/palaver/internal/core/domain"
)

// SessionService is the session engine: it owns the active mode and routes
// content to the matching request builder, transport call and normaliser.
//
// Callers must not switch modes while an Ask for the previous mode is still
// outstanding if the outcome has to be attributed to that mode.
type SessionService interface {
	// ID returns the session identifier used in logs.
	ID() string

	// Mode returns the active mode.
	Mode() domain.Mode

	// SetMode replaces the active mode and notifies the session's observer
	// with the new model identifier.
	SetMode(mode domain.Mode)

	// PersistContext reports whether completed chat turns are appended to
	// the conversation.
	PersistContext() bool

	// Ask sends content using the active mode.
	// Blank content fails with domain.ErrEmptyInput without calling upstream.
	Ask(ctx context.Context, content string) ([]domain.Result, error)

	// AskWith sends content using mode for this call only.
	// The active mode is not changed.
	AskWith(ctx context.Context, content string, mode domain.Mode) ([]domain.Result, error)

	// AskStream sends content using the active chat mode and returns
	// incremental fragments. Nothing is committed to the conversation.
	AskStream(ctx context.Context, content string) (DeltaStream, error)

	// ListModels returns model identifiers available upstream.
	ListModels(ctx context.Context) ([]string, error)
}

// DeltaStream is a lazy, finite, non-restartable sequence of fragment batches.
// Each batch holds one delta per in-flight choice, in arrival order.
type DeltaStream interface {
	// Next advances to the next batch. It returns false at the end of the
	// stream, after Close, or on error.
	Next() bool

	// Current returns the batch produced by the last successful Next.
	Current() []domain.Delta

	// Err returns the error that ended the stream, if any.
	Err() error

	// Close stops delivery and releases the upstream connection.
	Close() error
}

// ModeCatalog builds the named modes offered to the operator.
type ModeCatalog interface {
	// Chat returns the plain chat mode bound to the session conversation.
	Chat() domain.Mode

	// Explain returns the chat mode that prepends the explain preamble.
	Explain() domain.Mode

	// Code returns the raw completion mode.
	Code() domain.Mode

	// Custom returns a completion mode targeting model.
	Custom(model string) (domain.Mode, error)

	// ByName resolves "chat", "explain", "code" or "custom" (with model).
	ByName(name, model string) (domain.Mode, error)

	// Conversation returns the conversation shared by the catalog's chat modes.
	Conversation() *domain.Conversation
}
