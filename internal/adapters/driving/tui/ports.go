// Package tui provides an interactive terminal user interface for Palaver.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/palaver/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Session sends prompts and owns the active mode.
	Session driving.SessionService

	// Modes builds the named modes offered in the menu.
	Modes driving.ModeCatalog
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(session driving.SessionService, modes driving.ModeCatalog) *Ports {
	return &Ports{Session: session, Modes: modes}
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
