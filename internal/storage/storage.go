// Package storage persists documents.
//
// Every backend stores the JSON form of a document under its id: Memory
// keeps values in a map, Badger in an embedded key-value store, Redis in
// string keys, and Mongo in one collection document per id. Open selects
// a backend from configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/config"
	"github.com/dshills/blockedit/internal/document"
)

// ErrNotFound is returned by LoadDocument when no document has the id.
var ErrNotFound = errors.New("document not found")

// Storage loads and saves documents.
type Storage interface {
	LoadDocument(ctx context.Context, id string) (*document.Document, error)
	SaveDocument(ctx context.Context, id string, doc document.Document) error
}

// Store is a Storage that owns connections.
type Store interface {
	Storage
	// ListDocuments returns the ids of stored documents.
	ListDocuments(ctx context.Context) ([]string, error)
	Close() error
}

// Open connects the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.Storage, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendBadger:
		return OpenBadger(cfg.Path, logger)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.URL, cfg.Prefix)
	case config.BackendMongo:
		return OpenMongo(ctx, cfg.URL, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

// Key returns the key a document is stored under in key-value backends.
func Key(id string) string {
	return "doc:" + id
}
