package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/palaver/internal/core/domain"
	"github.com/custodia-labs/palaver/internal/core/ports/driven"
)

func TestBuildChatRequest_AppendsTransformedInput(t *testing.T) {
	conv := domain.NewConversation(
		domain.SystemTurn("be brief"),
		domain.UserTurn("earlier"),
		domain.AssistantTurn("reply"),
	)
	mode := domain.ChatMode(domain.Prefix("P:"), conv)

	req, err := BuildChatRequest(mode, "hi")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultChatModel, req.Model)
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
	assert.False(t, req.Stream)
	assert.Equal(t, []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "earlier"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "P:hi"},
	}, req.Messages)
	assert.Equal(t, 3, conv.Len(), "building must not touch the conversation")
}

func TestBuildChatRequest_EmptyConversation(t *testing.T) {
	req, err := BuildChatRequest(domain.ChatMode(nil, nil).WithModel("gpt-4"), "hello")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4", req.Model)
	assert.Equal(t, []driven.ChatMessage{{Role: "user", Content: "hello"}}, req.Messages)
}

func TestBuildChatRequest_TransformOrder(t *testing.T) {
	upper := domain.Func(strings.ToUpper)
	tests := []struct {
		name string
		mode domain.Mode
		want string
	}{
		{"prefix", domain.ChatMode(domain.Prefix("P:"), nil), "P:hi"},
		{"prefix then suffix", domain.ChatMode(domain.Prefix("P:").Then(domain.Suffix("!")), nil), "P:hi!"},
		{"suffix then prefix", domain.ChatMode(domain.Suffix("!").Then(domain.Prefix("P:")), nil), "P:hi!"},
		{"prefix then upper", domain.ChatMode(domain.Prefix("p:").Then(upper), nil), "P:HI"},
		{"upper then prefix", domain.ChatMode(upper.Then(domain.Prefix("p:")), nil), "p:HI"},
		{"builder chain", domain.ChatMode(nil, nil).WithPrefix("<").WithSuffix(">"), "<hi>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildChatRequest(tt.mode, "hi")
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Messages[len(req.Messages)-1].Content)
		})
	}
}

func TestBuildChatRequest_RejectsCompletionModes(t *testing.T) {
	for _, mode := range []domain.Mode{domain.RawCompletionMode(), domain.CustomModelMode("m"), {}} {
		_, err := BuildChatRequest(mode, "hi")
		assert.ErrorIs(t, err, domain.ErrInvalidState, kindName(mode))
	}
}

func TestBuildCompletionRequest_Verbatim(t *testing.T) {
	req, err := BuildCompletionRequest(domain.RawCompletionMode(), "  def f():\n")

	require.NoError(t, err)
	assert.Equal(t, driven.CompletionRequest{
		Model:  domain.DefaultCompletionModel,
		Prompt: "  def f():\n",
	}, req)

	req, err = BuildCompletionRequest(domain.CustomModelMode("davinci:ft-acme"), "x")
	require.NoError(t, err)
	assert.Equal(t, "davinci:ft-acme", req.Model)
}

func TestBuildCompletionRequest_RejectsChat(t *testing.T) {
	_, err := BuildCompletionRequest(domain.ChatMode(nil, nil), "hi")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = BuildCompletionRequest(domain.Mode{}, "hi")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "unset")
}
