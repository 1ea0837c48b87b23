package tui

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrMissingModeCatalog is returned when the mode catalog is not provided.
var ErrMissingModeCatalog = errors.New("tui: mode catalog is required")
