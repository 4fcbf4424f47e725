package document

import "errors"

// Errors returned by primitive operations. Public mutators report these as
// a false return value.
var (
	// ErrBlockNotFound indicates a block id is not in the document.
	ErrBlockNotFound = errors.New("block not found")

	// ErrDuplicateBlock indicates a block id is already in the document.
	ErrDuplicateBlock = errors.New("duplicate block id")

	// ErrUnknownOperation indicates an operation with an unknown kind.
	ErrUnknownOperation = errors.New("unknown operation")
)
