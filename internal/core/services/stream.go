package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
	"github.com/custodia-labs/palaver/internal/logger"
)

// AskStream sends content in the active chat mode and returns the reply as
// a stream of fragment batches. Streaming never appends to the
// conversation, whatever the persist-context flag says; callers that want
// the reply kept can reassemble it with domain.Reassemble and add it
// themselves.
func (s *SessionService) AskStream(ctx context.Context, content string) (driving.DeltaStream, error) {
	mode := s.Mode()
	if !mode.IsChat() {
		return nil, fmt.Errorf("stream in %s mode: %w", kindName(mode), domain.ErrInvalidState)
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyInput
	}

	req, err := BuildChatRequest(mode, content)
	if err != nil {
		return nil, err
	}
	req.Stream = true

	logger.Section("Stream")
	logger.Debug("session %s: streaming %d messages to %s", s.id, len(req.Messages), req.Model)

	src, err := s.transport.SendChatStream(ctx, req)
	if err != nil {
		return nil, transportFailure("chat stream", err)
	}
	return newDeltaStream(ctx, src), nil
}

// deltaStream adapts a transport chat stream to driving.DeltaStream.
type deltaStream struct {
	ctx context.Context
	src driven.ChatStream

	// mu guards the cursor. Close does not take it, so it can interrupt
	// a Next blocked in Recv.
	mu      sync.Mutex
	current []domain.Delta
	err     error
	done    bool
	closed  atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

func newDeltaStream(ctx context.Context, src driven.ChatStream) *deltaStream {
	return &deltaStream{ctx: ctx, src: src}
}

// Next advances to the next non-empty batch.
func (d *deltaStream) Next() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for !d.done {
		if d.closed.Load() {
			d.done = true
			d.current = nil
			return false
		}
		if err := d.ctx.Err(); err != nil {
			d.finish(err)
			return false
		}

		frag, err := d.src.Recv()
		if errors.Is(err, io.EOF) {
			d.finish(nil)
			return false
		}
		if err != nil {
			if d.closed.Load() {
				d.done = true
				d.current = nil
				return false
			}
			if ctxErr := d.ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			d.finish(transportFailure("chat stream", err))
			return false
		}

		batch := toDeltas(frag)
		if len(batch) == 0 {
			continue
		}
		d.current = batch
		return true
	}
	return false
}

// Current returns the last batch.
func (d *deltaStream) Current() []domain.Delta {
	if d.closed.Load() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Err returns the error that ended the stream.
func (d *deltaStream) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close stops delivery. It is safe to call more than once.
func (d *deltaStream) Close() error {
	d.closed.Store(true)
	return d.closeSource()
}

// finish must be called with mu held.
func (d *deltaStream) finish(err error) {
	d.done = true
	d.current = nil
	if err != nil {
		d.err = err
	}
	_ = d.closeSource()
}

func (d *deltaStream) closeSource() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.src.Close()
	})
	return d.closeErr
}

func toDeltas(frag *driven.ChatResponseFragment) []domain.Delta {
	if frag == nil || len(frag.Choices) == 0 {
		return nil
	}
	batch := make([]domain.Delta, 0, len(frag.Choices))
	for _, choice := range frag.Choices {
		batch = append(batch, domain.Delta{
			Index:   choice.Index,
			Content: choice.Delta.Content,
			Role:    choice.Delta.Role,
		})
	}
	return batch
}

// Deltas exposes stream as a range-over-func sequence. Breaking out of the
// loop closes the stream. A terminal error is yielded once with a nil batch.
func Deltas(stream driving.DeltaStream) iter.Seq2[[]domain.Delta, error] {
	return func(yield func([]domain.Delta, error) bool) {
		defer stream.Close()
		for stream.Next() {
			if !yield(stream.Current(), nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// KeepStreamed appends a fully consumed streamed exchange to the mode's
// conversation: the transformed content, then the reassembled reply. It
// reports false, appending nothing, for completion modes. Callers must not
// keep a stream that ended in an error or was closed early.
func KeepStreamed(mode domain.Mode, content string, batches [][]domain.Delta) bool {
	conv := mode.Conversation()
	if !mode.IsChat() || conv == nil {
		return false
	}
	release := conv.Acquire()
	defer release()
	conv.Append(userTurnFor(mode, content), domain.Reassemble(batches))
	return true
}
