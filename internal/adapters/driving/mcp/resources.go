package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/palaver/internal/core/domain"
)

// uriScheme is the custom URI scheme for Palaver resources.
const uriScheme = "palaver://"

// Resource URIs.
const (
	conversationURI = uriScheme + "conversation"
	modeURI         = uriScheme + "mode"
	settingsURI     = uriScheme + "settings"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         conversationURI,
		Name:        "conversation",
		Description: "Turns kept in the session's chat conversation",
		MIMEType:    "application/json",
	}, s.handleConversationResource)

	s.server.AddResource(&mcp.Resource{
		URI:         modeURI,
		Name:        "mode",
		Description: "The session's active mode",
		MIMEType:    "application/json",
	}, s.handleModeResource)

	s.server.AddResource(&mcp.Resource{
		URI:         settingsURI,
		Name:        "settings",
		Description: "Effective configuration (API keys are never included)",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)
}

// handleConversationResource returns the turns of the catalog's conversation.
func (s *Server) handleConversationResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	turns := s.ports.Modes.Conversation().Turns()
	if turns == nil {
		turns = []domain.Turn{}
	}
	return jsonResource(req.Params.URI, turns)
}

// handleModeResource returns the active mode.
func (s *Server) handleModeResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, describeMode(s.ports.Session.Mode()))
}

// handleSettingsResource returns the effective settings.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	type settingsInfo struct {
		Provider          string  `json:"provider"`
		BaseURL           string  `json:"base_url"`
		ChatModel         string  `json:"chat_model"`
		CompletionModel   string  `json:"completion_model"`
		PersistContext    bool    `json:"persist_context"`
		RequestsPerSecond float64 `json:"requests_per_second"`
		ConfigPath        string  `json:"config_path"`
	}

	return jsonResource(req.Params.URI, settingsInfo{
		Provider:          settings.Provider.String(),
		BaseURL:           settings.EffectiveBaseURL(),
		ChatModel:         settings.ChatModel,
		CompletionModel:   settings.CompletionModel,
		PersistContext:    settings.PersistContext,
		RequestsPerSecond: settings.RequestsPerSecond,
		ConfigPath:        s.ports.Settings.ConfigPath(),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
