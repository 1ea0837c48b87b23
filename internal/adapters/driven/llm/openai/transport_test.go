package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc) *Transport {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr, err := NewTransport(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestNewTransport_MissingKey(t *testing.T) {
	_, err := NewTransport(Config{})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	tr, err := NewTransport(Config{Anonymous: true, BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434/v1", tr.baseURL)
}

func TestNewTransport_Defaults(t *testing.T) {
	tr, err := NewTransport(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, tr.baseURL)
	assert.Equal(t, DefaultTimeout, tr.timeout)
	assert.Nil(t, tr.limiter)
}

func TestNewTransport_InvalidConfig(t *testing.T) {
	_, err := NewTransport(Config{APIKey: "k", Proxy: "://bad"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewTransport(Config{APIKey: "k", RequestsPerSecond: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransport_SendChat(t *testing.T) {
	var got driven.ChatRequest
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","model":"gpt-3.5-turbo","choices":[
			{"index":0,"message":{"role":"assistant","content":"\n\nHi!"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`)
	})

	temp := 0.0
	resp, err := tr.SendChat(context.Background(), driven.ChatRequest{
		Model:       "gpt-3.5-turbo",
		Messages:    []driven.ChatMessage{{Role: "user", Content: "hello"}},
		Temperature: &temp,
	})

	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, []driven.ChatMessage{{Role: "user", Content: "hello"}}, got.Messages)
	require.NotNil(t, got.Temperature)
	assert.False(t, got.Stream)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "\n\nHi!", resp.Choices[0].Message.Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestTransport_SendChat_MissingMessage(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[{"index":0}]}`)
	})

	resp, err := tr.SendChat(context.Background(), driven.ChatRequest{Model: "m"})

	require.NoError(t, err)
	assert.Nil(t, resp.Choices[0].Message)
}

func TestTransport_SendChat_ChoicesPresence(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		present bool
	}{
		{"absent", `{"id":"x","object":"chat.completion"}`, false},
		{"null", `{"id":"x","choices":null}`, false},
		{"empty", `{"id":"x","choices":[]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			resp, err := tr.SendChat(context.Background(), driven.ChatRequest{Model: "m"})

			require.NoError(t, err)
			assert.Equal(t, tt.present, resp.Choices != nil)
			assert.Empty(t, resp.Choices)
		})
	}
}

func TestTransport_SendCompletion(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		var req driven.CompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "def f():", req.Prompt)

		fmt.Fprint(w, `{"id":"cmpl-1","choices":[{"index":0,"text":"  return 1"}]}`)
	})

	resp, err := tr.SendCompletion(context.Background(), driven.CompletionRequest{Model: "code-davinci-002", Prompt: "def f():"})

	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.NotNil(t, resp.Choices[0].Text)
	assert.Equal(t, "  return 1", *resp.Choices[0].Text)
}

func TestTransport_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api envelope", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "Incorrect API key provided"},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty body", http.StatusTooManyRequests, "", "Too Many Requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := tr.SendChat(context.Background(), driven.ChatRequest{Model: "m"})

			require.ErrorIs(t, err, domain.ErrTransportFailure)
			var te *domain.TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status, te.Status)
			assert.Equal(t, "chat", te.Op)
			assert.Contains(t, te.Cause, tt.wantMsg)
		})
	}
}

func TestTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr, err := NewTransport(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = tr.SendChat(context.Background(), driven.ChatRequest{Model: "m"})

	require.ErrorIs(t, err, domain.ErrTransportFailure)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "request timed out")
}

func TestTransport_CallerDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr, err := NewTransport(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.SendChat(ctx, driven.ChatRequest{Model: "m"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrTransportFailure)
}

func TestTransport_MalformedBody(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices": [`)
	})

	_, err := tr.SendCompletion(context.Background(), driven.CompletionRequest{Model: "m"})

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestTransport_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	tr, err := NewTransport(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = tr.SendChat(context.Background(), driven.ChatRequest{Model: "m"})

	assert.ErrorIs(t, err, domain.ErrTransportFailure)
}

func TestTransport_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	tr := newTestTransport(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.SendChat(ctx, driven.ChatRequest{Model: "m"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrTransportFailure)
}

func TestTransport_ListModels(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/models", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt-4"},{"id":"davinci"},{"id":"gpt-3.5-turbo"}]}`)
	})

	models, err := tr.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"davinci", "gpt-3.5-turbo", "gpt-4"}, models)
}

func TestTransport_AnonymousSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	tr, err := NewTransport(Config{Anonymous: true, BaseURL: srv.URL})
	require.NoError(t, err)

	models, err := tr.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestTransport_RateLimited(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	tr, err := NewTransport(Config{APIKey: "k", BaseURL: srv.URL, RequestsPerSecond: 0.001})
	require.NoError(t, err)

	_, err = tr.ListModels(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.ListModels(ctx)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second request must wait for the limiter")
}

func TestTransport_SendChatStream(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		var req driven.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data:{\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	var content string
	var role string
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		for _, c := range frag.Choices {
			if c.Delta.Role != nil {
				role = *c.Delta.Role
			}
			if c.Delta.Content != nil {
				content += *c.Delta.Content
			}
		}
	}

	assert.Equal(t, "assistant", role)
	assert.Equal(t, "Hello", content)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, stream.Close())
	_, err = stream.Recv()
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
}

func TestTransport_SendChatStream_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
		})
		_, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
		assert.ErrorIs(t, err, domain.ErrTransportFailure)
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("error event", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
		})
		stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		assert.ErrorIs(t, err, domain.ErrTransportFailure)
		assert.Contains(t, err.Error(), "overloaded")
	})

	t.Run("malformed event", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "data: {not json}\n\n")
		})
		stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("cut off mid reply", func(t *testing.T) {
		tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"The answer is\"}}]}\n\n")
		})
		stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		require.NoError(t, err)
		_, err = stream.Recv()
		assert.ErrorIs(t, err, domain.ErrTransportFailure)
		assert.Contains(t, err.Error(), "without terminator")
	})

	t.Run("empty body", func(t *testing.T) {
		tr := newTestTransport(t, func(http.ResponseWriter, *http.Request) {})
		stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
		require.NoError(t, err)
		defer stream.Close()

		_, err = stream.Recv()
		assert.ErrorIs(t, err, domain.ErrTransportFailure)
	})
}

func TestTransport_SendChatStream_FinishedWithoutTerminator(t *testing.T) {
	tr := newTestTransport(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"a\"}},{\"index\":1,\"delta\":{\"content\":\"b\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":1,\"delta\":{},\"finish_reason\":\"length\"}]}\n\n")
	})
	stream, err := tr.SendChatStream(context.Background(), driven.ChatRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	for range 3 {
		_, err = stream.Recv()
		require.NoError(t, err)
	}
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
