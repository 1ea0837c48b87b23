package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockTransport implements driven.Transport for testing.
type mockTransport struct {
	mu sync.Mutex

	chatResp       *driven.ChatResponse
	chatErr        error
	completionResp *driven.CompletionResponse
	completionErr  error
	stream         *mockChatStream
	streamErr      error
	models         []string
	modelsErr      error

	// onChat runs before SendChat returns; used to interleave callers.
	onChat func(req driven.ChatRequest)

	chatRequests       []driven.ChatRequest
	completionRequests []driven.CompletionRequest
	streamRequests     []driven.ChatRequest
}

func (m *mockTransport) SendChat(_ context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	m.mu.Lock()
	m.chatRequests = append(m.chatRequests, req)
	onChat := m.onChat
	m.mu.Unlock()

	if onChat != nil {
		onChat(req)
	}
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return m.chatResp, nil
}

func (m *mockTransport) SendCompletion(_ context.Context, req driven.CompletionRequest) (*driven.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionRequests = append(m.completionRequests, req)
	if m.completionErr != nil {
		return nil, m.completionErr
	}
	return m.completionResp, nil
}

func (m *mockTransport) SendChatStream(_ context.Context, req driven.ChatRequest) (driven.ChatStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamRequests = append(m.streamRequests, req)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	return m.stream, nil
}

func (m *mockTransport) ListModels(_ context.Context) ([]string, error) {
	return m.models, m.modelsErr
}

func (m *mockTransport) Close() error {
	return nil
}

func (m *mockTransport) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chatRequests) + len(m.completionRequests) + len(m.streamRequests)
}

func (m *mockTransport) lastChat() driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chatRequests[len(m.chatRequests)-1]
}

// mockChatStream implements driven.ChatStream over a fixed list of fragments.
type mockChatStream struct {
	mu        sync.Mutex
	fragments []*driven.ChatResponseFragment
	err       error
	pos       int
	closed    bool
	closes    int
}

func (s *mockChatStream) Recv() (*driven.ChatResponseFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("recv on closed stream")
	}
	if s.pos < len(s.fragments) {
		f := s.fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, io.EOF
}

func (s *mockChatStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.closes++
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
	reloads int
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("no prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {
	m.reloads++
}

// --- Fixtures ---

func ptr[T any](v T) *T {
	return &v
}

func chatResponse(contents ...string) *driven.ChatResponse {
	resp := &driven.ChatResponse{ID: "chatcmpl-1", Model: "gpt-3.5-turbo", Choices: []driven.ChatChoice{}}
	for i, c := range contents {
		resp.Choices = append(resp.Choices, driven.ChatChoice{
			Index:   i,
			Message: &driven.ChatMessage{Role: "assistant", Content: c},
		})
	}
	return resp
}

func completionResponse(texts ...string) *driven.CompletionResponse {
	resp := &driven.CompletionResponse{ID: "cmpl-1", Model: "code-davinci-002", Choices: []driven.CompletionChoice{}}
	for i, t := range texts {
		resp.Choices = append(resp.Choices, driven.CompletionChoice{Index: i, Text: ptr(t)})
	}
	return resp
}

func fragment(index int, role, content *string) *driven.ChatResponseFragment {
	return &driven.ChatResponseFragment{
		ID: "chatcmpl-1",
		Choices: []driven.ChatFragmentChoice{
			{Index: index, Delta: driven.ChatDelta{Role: role, Content: content}},
		},
	}
}
