package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent session failures.
// Per-call errors are recoverable; construction errors abort startup.
var (
	// ErrInvalidState indicates a request was built against a mode of the wrong kind.
	ErrInvalidState = errors.New("invalid state")

	// ErrEmptyInput indicates blank content was submitted.
	ErrEmptyInput = errors.New("empty input")

	// ErrTransportFailure indicates the upstream call failed at the network or HTTP level.
	ErrTransportFailure = errors.New("transport failure")

	// ErrMissingCredential indicates no API credential was supplied to the transport.
	ErrMissingCredential = errors.New("missing credential")

	// ErrMalformedResponse indicates the upstream payload lacked an expected field.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedProvider indicates an unknown completion provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrStreamClosed indicates a stream was read after Close.
	ErrStreamClosed = errors.New("stream closed")
)

// TransportError describes a failed upstream call.
// The underlying cause is kept as text so errors stay comparable and printable.
type TransportError struct {
	// Op is the operation that failed (e.g. "chat", "completion", "models").
	Op string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Cause is the underlying failure rendered as a string.
	Cause string
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport failure: %s (status %d): %s", e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("transport failure: %s: %s", e.Op, e.Cause)
}

// Is reports whether target is ErrTransportFailure.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// NewTransportError wraps cause into a TransportError for op.
func NewTransportError(op string, status int, cause error) *TransportError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &TransportError{Op: op, Status: status, Cause: msg}
}
