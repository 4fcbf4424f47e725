package keymap

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a keymap file into a table when it changes.
type Watcher struct {
	table  *Table
	base   []*Keymap
	path   string
	logger *zap.Logger

	fsw      *fsnotify.Watcher
	closeCh  chan struct{}
	closedWg sync.WaitGroup
	once     sync.Once
}

// Watch loads path on top of base into table and keeps it current. The
// directory is watched rather than the file so that editors that save by
// renaming are seen.
func Watch(table *Table, path string, logger *zap.Logger, base ...*Keymap) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		table:   table,
		base:    base,
		path:    abs,
		logger:  logger,
		fsw:     fsw,
		closeCh: make(chan struct{}),
	}
	if err := w.Reload(); err != nil {
		logger.Warn("keymap load failed, using defaults", zap.String("path", abs), zap.Error(err))
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Reload reads the file and replaces the table contents. A failed reload
// leaves the previous bindings in place.
func (w *Watcher) Reload() error {
	km, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	keymaps := append(append([]*Keymap(nil), w.base...), km)
	return w.table.Replace(keymaps...)
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		w.closedWg.Wait()
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Warn("keymap reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.logger.Info("keymap reloaded", zap.String("path", w.path), zap.Int("bindings", w.table.Len()))

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("keymap watcher error", zap.Error(err))
		}
	}
}
