package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrShuttingDown is returned for sessions requested after Shutdown.
	ErrShuttingDown = errors.New("application shutting down")

	// ErrDocumentNotFound indicates a document is neither open nor stored.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidID indicates an unusable document id.
	ErrInvalidID = errors.New("invalid document id")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError records the session operation and document that
// failed.
type OperationError struct {
	Op  string
	ID  string
	Err error
}

func opError(op, id string, err error) error {
	return &OperationError{Op: op, ID: id, Err: err}
}

func (e *OperationError) Error() string {
	if e.ID == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.ID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
