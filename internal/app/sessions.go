package app

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/editor"
	"github.com/dshills/blockedit/internal/storage"
)

// maxIDLength bounds document ids, which become storage keys.
const maxIDLength = 128

// Sessions keeps one editor per open document.
type Sessions struct {
	mu       sync.Mutex
	editors  map[string]*editor.Editor
	store    storage.Store
	base     []editor.Option
	logger   *zap.Logger
	metrics  *Metrics
	shutdown bool
}

// NewSessions creates a session manager. Every editor gets base, the
// store and a logger tagged with its document id.
func NewSessions(store storage.Store, logger *zap.Logger, metrics *Metrics, base ...editor.Option) *Sessions {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Sessions{
		editors: make(map[string]*editor.Editor),
		store:   store,
		base:    base,
		logger:  logger,
		metrics: metrics,
	}
}

// ValidID reports whether id can name a document: 1 to 128 letters,
// digits, '-', '_' or '.'.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// Open returns the editor for id, loading the stored document on first
// use. An unknown id starts an empty document that is saved on its first
// edit.
func (s *Sessions) Open(ctx context.Context, id string) (*editor.Editor, error) {
	if !ValidID(id) {
		return nil, opError("open", id, ErrInvalidID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return nil, ErrShuttingDown
	}
	if ed, ok := s.editors[id]; ok {
		return ed, nil
	}

	ed := s.newEditor(id)
	found, err := ed.Load(ctx, id)
	if err != nil {
		_ = ed.Close(ctx)
		return nil, opError("open", id, err)
	}
	s.editors[id] = ed
	s.metrics.RecordOpen()
	s.logger.Info("session opened", zap.String("document", id), zap.Bool("stored", found))
	return ed, nil
}

// Create opens a session for a new document with a generated id.
func (s *Sessions) Create(ctx context.Context) (*editor.Editor, error) {
	return s.Open(ctx, document.NewID())
}

func (s *Sessions) newEditor(id string) *editor.Editor {
	logger := s.logger.With(zap.String("document", id))
	opts := append([]editor.Option{}, s.base...)
	opts = append(opts,
		editor.WithID(id),
		editor.WithLogger(logger),
		editor.WithStorage(s.store),
		editor.WithOnSaveError(func(error) { s.metrics.RecordSaveError() }),
	)
	return editor.New(opts...)
}

// Get returns the editor for an open document.
func (s *Sessions) Get(id string) (*editor.Editor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.editors[id]
	return ed, ok
}

// IDs returns the open document ids in sorted order.
func (s *Sessions) IDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.editors))
	for id := range s.editors {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// Documents lists stored and open documents.
func (s *Sessions) Documents(ctx context.Context) ([]string, error) {
	stored, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, opError("list", "", err)
	}
	seen := make(map[string]bool, len(stored))
	for _, id := range stored {
		seen[id] = true
	}
	for _, id := range s.IDs() {
		if !seen[id] {
			stored = append(stored, id)
		}
	}
	sort.Strings(stored)
	return stored, nil
}

// Close saves and closes one session.
func (s *Sessions) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	ed, ok := s.editors[id]
	delete(s.editors, id)
	s.mu.Unlock()
	if !ok {
		return opError("close", id, ErrDocumentNotFound)
	}
	return s.closeEditor(ctx, id, ed)
}

func (s *Sessions) closeEditor(ctx context.Context, id string, ed *editor.Editor) error {
	s.metrics.RecordClose()
	if err := ed.Close(ctx); err != nil {
		s.logger.Error("session close failed", zap.String("document", id), zap.Error(err))
		return opError("close", id, err)
	}
	s.logger.Debug("session closed", zap.String("document", id))
	return nil
}

// CloseAll closes every session and refuses new ones.
func (s *Sessions) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	editors := s.editors
	s.editors = make(map[string]*editor.Editor)
	s.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for id, ed := range editors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.closeEditor(ctx, id, ed); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
