// Package mcp provides an MCP (Model Context Protocol) server adapter for Palaver.
// It lets other AI assistants hold a conversation through Palaver's session.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")

// ErrMissingModeCatalog is returned when the mode catalog is not provided.
var ErrMissingModeCatalog = errors.New("mcp: mode catalog is required")
