package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/palaver/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Content string `json:"content" jsonschema:"the message or code to send"`
	Mode    string `json:"mode,omitempty" jsonschema:"one-off mode for this call: chat, explain, code or custom (default: the active mode)"`
	Model   string `json:"model,omitempty" jsonschema:"model for custom mode"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	RequestID string         `json:"request_id"`
	Mode      string         `json:"mode"`
	Model     string         `json:"model"`
	Results   []ResultOutput `json:"results"`
	Count     int            `json:"count"`
}

// ResultOutput is one choice in a reply.
type ResultOutput struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ListModelsInput is the (empty) input schema for the list_models tool.
type ListModelsInput struct{}

// ListModelsOutput is the output schema for the list_models tool.
type ListModelsOutput struct {
	Models []string `json:"models"`
	Count  int      `json:"count"`
}

// SetModeInput is the input schema for the set_mode tool.
type SetModeInput struct {
	Mode  string `json:"mode" jsonschema:"chat, explain, code or custom"`
	Model string `json:"model,omitempty" jsonschema:"model for custom mode"`
}

// ModeOutput describes the active mode.
type ModeOutput struct {
	Mode        string `json:"mode"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Send a message in the active mode, or in a one-off mode, and return the reply",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_models",
		Description: "List the model identifiers available upstream",
	}, s.handleListModels)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_mode",
		Description: "Switch the session's active mode",
	}, s.handleSetMode)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	mode := s.ports.Session.Mode()
	var (
		results []domain.Result
		err     error
	)
	if input.Mode != "" {
		mode, err = s.ports.Modes.ByName(input.Mode, input.Model)
		if err != nil {
			return nil, AskOutput{}, err
		}
	}
	// report the mode that served the call even if set_mode runs concurrently
	results, err = s.ports.Session.AskWith(ctx, input.Content, mode)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		RequestID: uuid.NewString(),
		Mode:      mode.Kind().String(),
		Model:     mode.Model(),
		Results:   make([]ResultOutput, len(results)),
		Count:     len(results),
	}
	for i, r := range results {
		output.Results[i] = ResultOutput{Role: r.Role, Content: r.Content}
	}
	return nil, output, nil
}

// handleListModels handles the list_models tool invocation.
func (s *Server) handleListModels(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListModelsInput,
) (*mcp.CallToolResult, ListModelsOutput, error) {
	models, err := s.ports.Session.ListModels(ctx)
	if err != nil {
		return nil, ListModelsOutput{}, err
	}
	if models == nil {
		models = []string{}
	}
	return nil, ListModelsOutput{Models: models, Count: len(models)}, nil
}

// handleSetMode handles the set_mode tool invocation.
func (s *Server) handleSetMode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SetModeInput,
) (*mcp.CallToolResult, ModeOutput, error) {
	mode, err := s.ports.Modes.ByName(input.Mode, input.Model)
	if err != nil {
		return nil, ModeOutput{}, err
	}
	s.ports.Session.SetMode(mode)
	return nil, describeMode(mode), nil
}

func describeMode(mode domain.Mode) ModeOutput {
	return ModeOutput{
		Mode:        mode.Kind().String(),
		Model:       mode.Model(),
		Description: mode.Kind().Description(),
	}
}
