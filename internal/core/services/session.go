package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService is the session engine.
//
// It holds the active mode, the transport (supplied by the caller and never
// closed here) and the persist-context flag, which is fixed at construction.
// When persist-context is set, a successful chat call appends the user turn
// and the first choice's turn to the mode's conversation together; a failed
// call appends neither. SessionService is safe for concurrent use: chat calls
// sharing a conversation are serialised in the order they were issued.
type SessionService struct {
	id        string
	transport driven.Transport
	persist   bool
	notify    func(model string)

	mu   sync.RWMutex
	mode domain.Mode
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithPersistContext sets whether completed chat turns are kept.
func WithPersistContext(persist bool) SessionOption {
	return func(s *SessionService) {
		s.persist = persist
	}
}

// WithNotifier sets the observer told about every mode switch.
func WithNotifier(notify func(model string)) SessionOption {
	return func(s *SessionService) {
		if notify != nil {
			s.notify = notify
		}
	}
}

// WithInitialMode sets the mode active before the first SetMode.
// The initial mode does not trigger a notification.
func WithInitialMode(mode domain.Mode) SessionOption {
	return func(s *SessionService) {
		if !mode.IsZero() {
			s.mode = mode
		}
	}
}

// NewSessionService creates a session engine over transport.
// Without options the session starts in plain chat mode with a fresh
// conversation, does not persist context, and reports mode switches
// through the logger.
func NewSessionService(transport driven.Transport, opts ...SessionOption) *SessionService {
	s := &SessionService{
		id:        uuid.NewString(),
		transport: transport,
		notify:    defaultNotify,
		mode:      domain.ChatMode(nil, nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultNotify(model string) {
	logger.Notice("model changed to: %s", model)
}

// ID returns the session identifier.
func (s *SessionService) ID() string {
	return s.id
}

// PersistContext reports whether completed chat turns are kept.
func (s *SessionService) PersistContext() bool {
	return s.persist
}

// Mode returns the active mode.
func (s *SessionService) Mode() domain.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode replaces the active mode unconditionally and notifies the observer.
// The conversation referenced by either mode is not touched.
func (s *SessionService) SetMode(mode domain.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	logger.Debug("session %s: mode %s (%s)", s.id, mode.Kind(), mode.Model())
	s.notify(mode.Model())
}

// Ask sends content using the active mode.
func (s *SessionService) Ask(ctx context.Context, content string) ([]domain.Result, error) {
	return s.dispatch(ctx, content, s.Mode())
}

// AskWith sends content using mode for this call only.
// The override reads from and commits to its own conversation handle.
func (s *SessionService) AskWith(ctx context.Context, content string, mode domain.Mode) ([]domain.Result, error) {
	if mode.IsZero() {
		return nil, fmt.Errorf("ask with unset mode: %w", domain.ErrInvalidState)
	}
	return s.dispatch(ctx, content, mode)
}

// ListModels returns model identifiers available upstream.
func (s *SessionService) ListModels(ctx context.Context) ([]string, error) {
	models, err := s.transport.ListModels(ctx)
	if err != nil {
		return nil, transportFailure("models", err)
	}
	return models, nil
}

func (s *SessionService) dispatch(ctx context.Context, content string, mode domain.Mode) ([]domain.Result, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyInput
	}

	requestID := uuid.NewString()
	logger.Section("Ask")
	logger.Debug("session %s request %s: %s mode, model %s", s.id, requestID, mode.Kind(), mode.Model())

	if mode.IsChat() {
		return s.chat(ctx, requestID, content, mode)
	}
	return s.completion(ctx, requestID, content, mode)
}

func (s *SessionService) chat(ctx context.Context, requestID, content string, mode domain.Mode) ([]domain.Result, error) {
	conv := mode.Conversation()
	if conv != nil {
		release := conv.Acquire()
		defer release()
	}

	req, err := BuildChatRequest(mode, content)
	if err != nil {
		return nil, err
	}
	logger.Debug("request %s: %d messages", requestID, len(req.Messages))

	resp, err := s.transport.SendChat(ctx, req)
	if err != nil {
		logger.Warn("request %s failed: %v", requestID, err)
		return nil, transportFailure("chat", err)
	}

	results, err := NormaliseChat(resp)
	if err != nil {
		logger.Warn("request %s: %v", requestID, err)
		return nil, err
	}
	logger.Debug("request %s: %d choices", requestID, len(results))

	s.commitTurn(conv, mode, content, resp)
	return results, nil
}

// commitTurn is the only path that grows a conversation. Both sides of the
// exchange are appended together, or nothing is.
func (s *SessionService) commitTurn(conv *domain.Conversation, mode domain.Mode, content string, resp *driven.ChatResponse) {
	if !s.persist || conv == nil {
		return
	}
	reply, ok := primaryTurn(resp)
	if !ok {
		return
	}
	conv.Append(userTurnFor(mode, content), reply)
}

func (s *SessionService) completion(ctx context.Context, requestID, content string, mode domain.Mode) ([]domain.Result, error) {
	req, err := BuildCompletionRequest(mode, content)
	if err != nil {
		return nil, err
	}

	resp, err := s.transport.SendCompletion(ctx, req)
	if err != nil {
		logger.Warn("request %s failed: %v", requestID, err)
		return nil, transportFailure("completion", err)
	}

	results, err := NormaliseCompletion(resp)
	if err != nil {
		logger.Warn("request %s: %v", requestID, err)
		return nil, err
	}
	logger.Debug("request %s: %d choices", requestID, len(results))
	return results, nil
}

// transportFailure classifies an upstream error. Context errors and errors
// already classified by the transport pass through.
func transportFailure(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrTransportFailure),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}
	return domain.NewTransportError(op, 0, err)
}
