package editor

import "errors"

// Editor errors.
var (
	// ErrNoStorage indicates a storage operation on an editor without one.
	ErrNoStorage = errors.New("editor has no storage")

	// ErrClosed indicates the editor has been closed.
	ErrClosed = errors.New("editor closed")
)
