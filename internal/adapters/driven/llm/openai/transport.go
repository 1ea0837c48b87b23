// Package openai provides a Transport adapter for the OpenAI API and
// servers that speak its wire format.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
	"github.com/custodia-labs/palaver/internal/logger"
)

// Ensure Transport implements the interface.
var _ driven.Transport = (*Transport)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI transport.
type Config struct {
	// APIKey is sent as a bearer token. Required unless Anonymous is set.
	APIKey string

	// Anonymous permits an empty APIKey, for local servers such as Ollama.
	Anonymous bool

	// BaseURL is the API root (default: https://api.openai.com/v1).
	BaseURL string

	// Proxy is an HTTP(S) proxy URL. Empty uses the environment.
	Proxy string

	// Timeout bounds non-streaming requests (default: 120s).
	// Streams are bounded only by the caller's context.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound requests; 0 disables throttling.
	RequestsPerSecond float64

	// HTTPClient replaces the client built from Proxy and APIKey.
	HTTPClient *http.Client
}

// Transport sends chat and completion requests over HTTP.
type Transport struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
}

// apiError is the error envelope returned by OpenAI-compatible servers.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// modelList is the /models response format.
type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewTransport creates a new OpenAI transport.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.APIKey == "" && !cfg.Anonymous {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrMissingCredential)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("openai: requests per second %v: %w", cfg.RequestsPerSecond, domain.ErrInvalidInput)
	}

	client := cfg.HTTPClient
	if client == nil {
		var err error
		client, err = newHTTPClient(cfg.APIKey, cfg.Proxy)
		if err != nil {
			return nil, err
		}
	}

	t := &Transport{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
	}
	if cfg.RequestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return t, nil
}

// newHTTPClient builds a client that routes through proxy and carries the
// API key as an OAuth2 bearer token.
func newHTTPClient(apiKey, proxy string) (*http.Client, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("openai: parse proxy %q: %w", proxy, domain.ErrInvalidInput)
		}
		base.Proxy = http.ProxyURL(proxyURL)
	}

	var rt http.RoundTripper = base
	if apiKey != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
			Base:   base,
		}
	}
	return &http.Client{Transport: rt}, nil
}

// SendChat posts to /chat/completions.
func (t *Transport) SendChat(ctx context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	req.Stream = false
	var resp driven.ChatResponse
	if err := t.call(ctx, "chat", http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendCompletion posts to /completions.
func (t *Transport) SendCompletion(ctx context.Context, req driven.CompletionRequest) (*driven.CompletionResponse, error) {
	var resp driven.CompletionResponse
	if err := t.call(ctx, "completion", http.MethodPost, "/completions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels returns the model identifiers from /models, sorted.
func (t *Transport) ListModels(ctx context.Context) ([]string, error) {
	var list modelList
	if err := t.call(ctx, "models", http.MethodGet, "/models", nil, &list); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// SendChatStream posts a streaming request to /chat/completions and returns
// the server-sent event stream.
func (t *Transport) SendChatStream(ctx context.Context, req driven.ChatRequest) (driven.ChatStream, error) {
	req.Stream = true
	resp, err := t.do(ctx, "chat stream", http.MethodPost, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	return newEventStream(resp.Body), nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// call performs a bounded request and decodes a JSON response into out.
func (t *Transport) call(ctx context.Context, op, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeoutCause(ctx, t.timeout, errRequestTimeout)
	defer cancel()

	resp, err := t.do(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return t.failure(ctx, op, 0, fmt.Errorf("read response: %w", err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("openai: decode %s response: %v: %w", op, err, domain.ErrMalformedResponse)
	}
	return nil
}

// do sends a request and returns the response when the status is 2xx.
// The caller owns the body.
func (t *Transport) do(ctx context.Context, op, method, path string, in any) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("openai: %s: %w", op, err)
		}
	}

	var reader io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("openai: marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("openai: create %s request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	logger.Debug("openai: %s %s", method, path)
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, t.failure(ctx, op, 0, err)
	}
	logger.Debug("openai: %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, t.failure(ctx, op, resp.StatusCode, errors.New(errorMessage(resp)))
	}
	return resp, nil
}

// errRequestTimeout is the cause recorded when Config.Timeout expires.
var errRequestTimeout = errors.New("request timed out")

// failure classifies an error. The caller's context errors stay context
// errors; the transport's own timeout is a transport failure.
func (t *Transport) failure(ctx context.Context, op string, status int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errRequestTimeout) {
			return domain.NewTransportError(op, status, fmt.Errorf("%w after %s", cause, t.timeout))
		}
		return fmt.Errorf("openai: %s: %w", op, ctxErr)
	}
	return domain.NewTransportError(op, status, err)
}

// errorMessage extracts the server's error message, falling back to the raw body.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Sprintf("status %d (failed to read body: %v)", resp.StatusCode, err)
	}
	var envelope apiError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}
