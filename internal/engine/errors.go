package engine

import "errors"

// Errors returned by Document operations.
var (
	// ErrUnknownView indicates a view ID that was never opened or is closed.
	ErrUnknownView = errors.New("unknown view")

	// ErrInvalidSelection indicates a selection that does not fit the buffer.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrClosed indicates an operation on a closed document.
	ErrClosed = errors.New("document is closed")
)
