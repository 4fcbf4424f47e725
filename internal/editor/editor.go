package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/highlight"
	"github.com/dshills/blockedit/internal/input"
	"github.com/dshills/blockedit/internal/input/key"
	"github.com/dshills/blockedit/internal/input/keymap"
	"github.com/dshills/blockedit/internal/input/palette"
	"github.com/dshills/blockedit/internal/render"
	"github.com/dshills/blockedit/internal/selection"
	"github.com/dshills/blockedit/internal/storage"
	"github.com/dshills/blockedit/internal/surface"
)

// recentCommands is how many executed commands rank higher in
// SearchCommands.
const recentCommands = 10

// Editor is one editing session over one document.
type Editor struct {
	// mu serializes host events and file read completions.
	mu sync.Mutex

	doc      *document.Model
	surf     *surface.Surface
	sel      *selection.Manager
	renderer *render.Renderer
	sync     *render.Sync
	input    *input.Handler
	keys     *keymap.Table
	watcher  *keymap.Watcher
	palette  *palette.Palette

	store       storage.Storage
	toolbar     Toolbar
	logger      *zap.Logger
	linkPrompt  func(string) (string, bool)
	onSaveError func(error)
	saveDelay   time.Duration
	saveTimeout time.Duration

	// lastChanged is the block touched by the most recent change.
	lastChanged atomic.Value
	loading     atomic.Bool

	saveMu       sync.Mutex
	saveTimer    *time.Timer
	saveGen      uint64
	savedVersion int64
	closed       bool
	saves        sync.WaitGroup
}

// New creates an editor.
func New(opts ...Option) *Editor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	docOpts := []document.Option{
		document.WithHistorySize(o.historySize),
		document.WithLogger(o.logger),
	}
	if o.id != "" {
		docOpts = append(docOpts, document.WithID(o.id))
	}
	if o.clock != nil {
		docOpts = append(docOpts, document.WithClock(o.clock))
	}
	blocks := o.blocks
	if blocks == nil {
		blocks = []document.Block{document.NewTextBlock(document.Paragraph, "")}
	}
	docOpts = append(docOpts, document.WithBlocks(blocks...))

	e := &Editor{
		doc:         document.New(docOpts...),
		surf:        surface.New(),
		store:       o.store,
		toolbar:     o.toolbar,
		logger:      o.logger,
		linkPrompt:  o.linkPrompt,
		onSaveError: o.onSaveError,
		saveDelay:   o.saveDelay,
		saveTimeout: o.saveTimeout,
	}
	e.lastChanged.Store("")
	e.savedVersion = e.doc.Version()

	highlighter := o.highlighter
	if highlighter == nil {
		highlighter = highlight.NewRegistry()
	}
	adapter := selection.NewAdapter(e.surf)
	registry := render.DefaultRegistry(render.Collaborators{
		Highlighter: highlighter,
		Formula:     o.formula,
		Logger:      o.logger,
	})
	e.renderer = render.NewRenderer(registry, adapter, o.logger)
	e.sync = render.Attach(e.doc, e.surf, e.renderer, o.logger)
	e.sel = selection.NewManager(e.doc, adapter)
	e.keys = e.buildKeymap(o)
	e.palette = palette.New(recentCommands, commandEntries...)

	e.input = input.NewHandler(e.doc, e.sel, input.Config{
		Keymap:   e.keys,
		Commands: input.ExecutorFunc(func(name string) bool { return e.execute(name) }),
		Logger:   o.logger,
		Post:     e.post,
	})
	e.doc.OnChange(e.changed)
	return e
}

func (e *Editor) buildKeymap(o options) *keymap.Table {
	if o.keys != nil {
		return o.keys
	}
	platform := o.platform
	if platform == "" {
		platform = key.HostPlatform()
	}
	table, err := keymap.NewTable(platform, keymap.Default())
	if err != nil {
		e.logger.Error("default keymap invalid", zap.Error(err))
		table, _ = keymap.NewTable(platform)
	}
	if o.keymapFile == "" {
		return table
	}

	if o.watchKeymap {
		w, err := keymap.Watch(table, o.keymapFile, e.logger, keymap.Default())
		if err != nil {
			e.logger.Warn("keymap watch failed", zap.String("path", o.keymapFile), zap.Error(err))
		} else {
			e.watcher = w
			return table
		}
	}
	km, err := keymap.LoadFile(o.keymapFile)
	if err == nil {
		err = table.Replace(keymap.Default(), km)
	}
	if err != nil {
		e.logger.Warn("keymap load failed, using defaults", zap.String("path", o.keymapFile), zap.Error(err))
	}
	return table
}

// ID returns the document id.
func (e *Editor) ID() string {
	return e.doc.ID()
}

// Document returns the document model. Mutations made through it bypass
// the editor's event serialization.
func (e *Editor) Document() *document.Model {
	return e.doc
}

// Surface returns the editing surface.
func (e *Editor) Surface() *surface.Surface {
	return e.surf
}

// Keymap returns the chord table.
func (e *Editor) Keymap() *keymap.Table {
	return e.keys
}

// Selection returns the current selection.
func (e *Editor) Selection() (selection.Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.GetSelection()
}

// Select places the selection. It returns false when a block is unknown.
func (e *Editor) Select(sel selection.Selection) bool {
	return e.event(func() bool {
		if _, ok := e.doc.Block(sel.BlockID); !ok {
			return false
		}
		if sel.MultiBlock() {
			if _, ok := e.doc.Block(sel.FocusBlockID); !ok {
				return false
			}
		}
		return e.sel.Adapter().Write(sel)
	})
}

// Focus places the caret in a block; a negative offset means the end.
func (e *Editor) Focus(blockID string, offset int) bool {
	return e.event(func() bool { return e.sel.Focus(blockID, offset) })
}

// Blur removes focus from the surface.
func (e *Editor) Blur() {
	e.event(func() bool {
		e.surf.Blur()
		return true
	})
}

// HandleKeyDown processes a key press. It returns true when the host
// should suppress its default behavior.
func (e *Editor) HandleKeyDown(ev key.Event) bool {
	return e.event(func() bool { return e.input.HandleKeyDown(ev) })
}

// MoveCaret moves the caret for an arrow key when the host has no native
// caret handling.
func (e *Editor) MoveCaret(ev key.Event) bool {
	return e.event(func() bool { return e.input.MoveCaret(ev) })
}

// HandleInput reads the focused block back after the host edited the
// surface directly.
func (e *Editor) HandleInput() bool {
	return e.event(e.input.HandleInput)
}

// TypeText inserts text at the caret as if typed.
func (e *Editor) TypeText(text string) bool {
	return e.event(func() bool { return e.input.TypeText(text) })
}

// Paste inserts clipboard content at the caret.
func (e *Editor) Paste(clip input.Clipboard) bool {
	return e.event(func() bool { return e.input.Paste(clip) })
}

// Drop inserts dropped image files after the focused block.
func (e *Editor) Drop(files []input.File) bool {
	return e.event(func() bool { return e.input.Drop(files) })
}

// InsertBlock inserts b at index, or appends it.
func (e *Editor) InsertBlock(b document.Block, index ...int) bool {
	return e.event(func() bool { return e.doc.InsertBlock(b, index...) })
}

// UpdateBlock applies patch to a block as one undo step.
func (e *Editor) UpdateBlock(id string, patch document.BlockPatch) bool {
	return e.event(func() bool { return e.doc.UpdateBlock(id, patch) })
}

// DeleteBlock removes a block. The last block of a document is replaced
// by an empty paragraph.
func (e *Editor) DeleteBlock(id string) bool {
	return e.event(func() bool {
		if e.doc.Len() > 1 {
			return e.doc.DeleteBlock(id)
		}
		if _, ok := e.doc.Block(id); !ok {
			return false
		}
		ok := false
		e.doc.Batch("Delete block", func() {
			ok = e.doc.DeleteBlock(id) && e.doc.InsertBlock(document.NewTextBlock(document.Paragraph, ""))
		})
		return ok
	})
}

// Wait blocks until pending file reads have been inserted.
func (e *Editor) Wait() {
	e.input.Wait()
}

// event runs fn as one serialized host event and updates the toolbar.
func (e *Editor) event(fn func() bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := fn()
	e.notify()
	return ok
}

// post delivers file read completions as events.
func (e *Editor) post(fn func()) {
	e.event(func() bool {
		fn()
		return true
	})
}

func (e *Editor) changed(c document.Change) {
	if c.BlockID != "" {
		e.lastChanged.Store(c.BlockID)
	}
	if !e.loading.Load() {
		e.scheduleSave()
	}
}

// Close stops auto-save and keymap watching, then saves unsaved changes.
func (e *Editor) Close(ctx context.Context) error {
	e.saveMu.Lock()
	if e.closed {
		e.saveMu.Unlock()
		return nil
	}
	e.closed = true
	e.stopTimerLocked()
	e.saveMu.Unlock()

	var err error
	if e.store != nil && e.Dirty() {
		err = e.save(ctx, e.bumpGeneration())
	}
	e.saves.Wait()
	if e.watcher != nil {
		if werr := e.watcher.Close(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
