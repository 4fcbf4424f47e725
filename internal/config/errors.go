package config

import (
	"errors"

	"github.com/dshills/blockedit/internal/config/loader"
)

// Errors returned by configuration operations.
var (
	// ErrValidationFailed indicates a setting has an unusable value.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownBackend indicates storage.backend names no backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// ParseError represents an error while parsing a configuration source.
// Environment values that do not parse as their setting's type are
// reported with Path "environment".
type ParseError = loader.ParseError
