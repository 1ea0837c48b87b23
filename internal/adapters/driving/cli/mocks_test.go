package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/palaver/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/core/services"
)

// stubTransport answers every request with a fixed reply.
type stubTransport struct {
	mu sync.Mutex

	reply     string
	fragments []string
	models    []string
	err       error

	chats       []driven.ChatRequest
	completions []driven.CompletionRequest
	closed      bool
}

func (s *stubTransport) SendChat(_ context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, req)
	if s.err != nil {
		return nil, s.err
	}
	return &driven.ChatResponse{
		Model: req.Model,
		Choices: []driven.ChatChoice{
			{Message: &driven.ChatMessage{Role: "assistant", Content: s.reply}},
		},
	}, nil
}

func (s *stubTransport) SendCompletion(_ context.Context, req driven.CompletionRequest) (*driven.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, req)
	if s.err != nil {
		return nil, s.err
	}
	text := s.reply
	return &driven.CompletionResponse{
		Model:   req.Model,
		Choices: []driven.CompletionChoice{{Text: &text}},
	}, nil
}

func (s *stubTransport) SendChatStream(_ context.Context, req driven.ChatRequest) (driven.ChatStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, req)
	if s.err != nil {
		return nil, s.err
	}
	return &stubStream{fragments: s.fragments}, nil
}

func (s *stubTransport) ListModels(context.Context) ([]string, error) {
	return s.models, s.err
}

func (s *stubTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubTransport) lastChat() driven.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chats[len(s.chats)-1]
}

func (s *stubTransport) lastCompletion() driven.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions[len(s.completions)-1]
}

type stubStream struct {
	fragments []string
	next      int
}

func (s *stubStream) Recv() (*driven.ChatResponseFragment, error) {
	if s.next >= len(s.fragments) {
		return nil, io.EOF
	}
	content := s.fragments[s.next]
	delta := driven.ChatDelta{Content: &content}
	if s.next == 0 {
		role := "assistant"
		delta.Role = &role
	}
	s.next++
	return &driven.ChatResponseFragment{
		Choices: []driven.ChatFragmentChoice{{Delta: delta}},
	}, nil
}

func (s *stubStream) Close() error { return nil }

// setup wires deps around tr and an in-memory config store.
func setup(t *testing.T, tr *stubTransport, values map[string]any) *memory.ConfigStore {
	t.Helper()
	store := memory.NewConfigStoreFrom(values)
	SetDeps(&Deps{
		Settings: services.NewSettingsServiceWithEnv(store, nil),
		NewTransport: func(*domain.AppSettings) (driven.Transport, error) {
			return tr, nil
		},
	})
	t.Cleanup(func() { deps = nil })
	return store
}

// execute runs the command tree with args and returns everything printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	if args == nil {
		args = []string{}
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores defaults left over from earlier executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
