package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/document"
)

// gcInterval is how often the value log is compacted.
const gcInterval = 5 * time.Minute

// Badger is a Store backed by an embedded BadgerDB.
type Badger struct {
	db     *badger.DB
	logger *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// OpenBadger opens the database at path. An empty path or ":memory:"
// keeps the database in memory.
func OpenBadger(path string, logger *zap.Logger) (*Badger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(path)
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = badgerLogger{logger.Sugar()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	b := &Badger{db: db, logger: logger, stop: make(chan struct{})}
	if !opts.InMemory {
		b.wg.Add(1)
		go b.runGC()
	}
	return b, nil
}

// LoadDocument implements Storage.
func (b *Badger) LoadDocument(_ context.Context, id string) (*document.Document, error) {
	var doc document.Document
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return &doc, nil
}

// SaveDocument implements Storage.
func (b *Badger) SaveDocument(_ context.Context, id string, doc document.Document) error {
	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", id, err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key(id)), value)
	})
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// ListDocuments implements Store.
func (b *Badger) ListDocuments(context.Context) ([]string, error) {
	var ids []string
	prefix := []byte(Key(""))
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return ids, nil
}

// Close stops garbage collection and closes the database.
func (b *Badger) Close() error {
	close(b.stop)
	b.wg.Wait()
	return b.db.Close()
}

func (b *Badger) runGC() {
	defer b.wg.Done()
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			for b.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

// badgerLogger routes badger's log output to zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}
