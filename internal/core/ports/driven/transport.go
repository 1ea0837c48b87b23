package driven

import "context"

// Transport is the upstream completion service.
// Authentication and proxy configuration are fixed at construction.
// Implementations must honour ctx cancellation and must not retry.
type Transport interface {
	// SendChat sends a chat request and returns the full response.
	SendChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// SendCompletion sends a raw completion request.
	SendCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// SendChatStream sends a chat request and returns incremental fragments.
	SendChatStream(ctx context.Context, req ChatRequest) (ChatStream, error)

	// ListModels returns the model identifiers visible to the credential.
	ListModels(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}

// ChatStream yields response fragments until io.EOF.
type ChatStream interface {
	// Recv returns the next fragment, or io.EOF when the upstream is done.
	Recv() (*ChatResponseFragment, error)

	// Close stops the stream and releases the connection.
	Close() error
}

// ChatMessage is one message in a chat request or response.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the outbound chat payload.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// ChatChoice is one alternative in a chat response.
// Message is nil when the upstream omitted it.
type ChatChoice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ChatResponse is the inbound chat payload.
// Choices is nil when the upstream omitted the field and empty when it
// returned no alternatives.
type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// CompletionRequest is the outbound raw completion payload.
type CompletionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// CompletionChoice is one alternative in a completion response.
// Text is nil when the upstream omitted it.
type CompletionChoice struct {
	Index        int     `json:"index"`
	Text         *string `json:"text"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// CompletionResponse is the inbound raw completion payload.
// Choices is nil when the upstream omitted the field.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

// ChatDelta is the incremental part of a streamed choice.
type ChatDelta struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ChatFragmentChoice is one in-flight choice within a fragment.
type ChatFragmentChoice struct {
	Index        int       `json:"index"`
	Delta        ChatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason,omitempty"`
}

// ChatResponseFragment is one streamed chunk.
type ChatResponseFragment struct {
	ID      string               `json:"id"`
	Model   string               `json:"model"`
	Choices []ChatFragmentChoice `json:"choices"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
