package openai

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

const (
	dataPrefix    = "data:"
	doneSentinel  = "[DONE]"
	maxEventBytes = 1 << 20
)

// eventStream reads chat fragments from a server-sent event body.
// Close may be called while Recv is blocked; the read then fails and Recv
// reports domain.ErrStreamClosed.
type eventStream struct {
	mu      sync.Mutex
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool

	// finished records, per choice index seen, whether it sent a finish reason.
	finished map[int]bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// streamEvent is one data payload: a fragment or an error envelope.
type streamEvent struct {
	driven.ChatResponseFragment
	apiError
}

func newEventStream(body io.ReadCloser) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxEventBytes)
	return &eventStream{body: body, scanner: scanner, finished: make(map[int]bool)}
}

// Recv returns the next fragment, or io.EOF after the terminator.
func (s *eventStream) Recv() (*driven.ChatResponseFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, domain.ErrStreamClosed
	}
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			// blank separators, comments and event names
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if data == "" {
			continue
		}
		if data == doneSentinel {
			s.done = true
			return nil, io.EOF
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, fmt.Errorf("openai: decode stream event: %v: %w", err, domain.ErrMalformedResponse)
		}
		if event.Error != nil {
			return nil, domain.NewTransportError("chat stream", 0, fmt.Errorf("%s", event.Error.Message))
		}
		fragment := event.ChatResponseFragment
		for _, c := range fragment.Choices {
			s.finished[c.Index] = s.finished[c.Index] || (c.FinishReason != nil && *c.FinishReason != "")
		}
		return &fragment, nil
	}

	if s.closed.Load() {
		return nil, domain.ErrStreamClosed
	}
	if err := s.scanner.Err(); err != nil {
		return nil, domain.NewTransportError("chat stream", 0, err)
	}
	// Some servers omit the terminator; that is only a clean end once every
	// choice has finished.
	if !s.complete() {
		return nil, domain.NewTransportError("chat stream", 0, errors.New("stream ended without terminator"))
	}
	s.done = true
	return nil, io.EOF
}

func (s *eventStream) complete() bool {
	if len(s.finished) == 0 {
		return false
	}
	for _, done := range s.finished {
		if !done {
			return false
		}
	}
	return true
}

// Close releases the connection. It is safe to call more than once.
func (s *eventStream) Close() error {
	s.closed.Store(true)
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
