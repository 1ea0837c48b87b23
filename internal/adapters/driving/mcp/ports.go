package mcp

import (
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Session runs requests.
	Session driving.SessionService

	// Modes resolves mode names for set_mode and per-call overrides.
	Modes driving.ModeCatalog

	// Settings exposes the effective configuration. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Session == nil {
		return ErrMissingSessionService
	}
	if p.Modes == nil {
		return ErrMissingModeCatalog
	}
	return nil
}
