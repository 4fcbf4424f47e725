package editor

import (
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/config"
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/input/keymap"
	"github.com/dshills/blockedit/internal/render"
	"github.com/dshills/blockedit/internal/storage"
)

// Option configures an Editor.
type Option func(*options)

type options struct {
	id          string
	blocks      []document.Block
	historySize int
	logger      *zap.Logger
	store       storage.Storage
	toolbar     Toolbar
	onSaveError func(error)
	saveDelay   time.Duration
	saveTimeout time.Duration
	platform    string
	keys        *keymap.Table
	keymapFile  string
	watchKeymap bool
	highlighter render.Highlighter
	formula     render.FormulaRenderer
	linkPrompt  func(current string) (string, bool)
	clock       func() time.Time
}

func defaultOptions() options {
	return options{
		historySize: 100,
		logger:      zap.NewNop(),
		saveDelay:   time.Second,
		saveTimeout: 10 * time.Second,
	}
}

// WithID sets the document id.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithBlocks sets the initial blocks. Without it the document starts with
// one empty paragraph.
func WithBlocks(blocks ...document.Block) Option {
	return func(o *options) {
		o.blocks = blocks
	}
}

// WithHistorySize caps the undo stack.
func WithHistorySize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historySize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStorage enables Load, Save and auto-save.
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithToolbar receives the editor state after every event.
func WithToolbar(t Toolbar) Option {
	return func(o *options) {
		o.toolbar = t
	}
}

// WithOnSaveError receives auto-save failures. It is called on the
// saving goroutine.
func WithOnSaveError(fn func(error)) Option {
	return func(o *options) {
		o.onSaveError = fn
	}
}

// WithAutoSaveDelay sets the quiet period before an automatic save. Zero
// disables auto-save.
func WithAutoSaveDelay(d time.Duration) Option {
	return func(o *options) {
		o.saveDelay = max(d, 0)
	}
}

// WithSaveTimeout bounds each automatic save.
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveTimeout = d
		}
	}
}

// WithPlatform selects the primary modifier of the default keymap.
func WithPlatform(platform string) Option {
	return func(o *options) {
		o.platform = platform
	}
}

// WithKeymap uses table for chord lookup instead of building one.
func WithKeymap(table *keymap.Table) Option {
	return func(o *options) {
		o.keys = table
	}
}

// WithKeymapFile layers a keymap file over the defaults, reloading it on
// change when watch is set.
func WithKeymapFile(path string, watch bool) Option {
	return func(o *options) {
		o.keymapFile = path
		o.watchKeymap = watch
	}
}

// WithHighlighter sets the code block highlighter. Default: the built-in
// lexers.
func WithHighlighter(h render.Highlighter) Option {
	return func(o *options) {
		o.highlighter = h
	}
}

// WithFormula sets the math renderer. Without one math blocks show their
// source.
func WithFormula(f render.FormulaRenderer) Option {
	return func(o *options) {
		o.formula = f
	}
}

// WithLinkPrompt asks the host for a link target when "link" is executed
// without one. current is the target under the selection, if any.
func WithLinkPrompt(fn func(current string) (string, bool)) Option {
	return func(o *options) {
		o.linkPrompt = fn
	}
}

// WithClock sets the document clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// FromConfig returns the options for an editor configuration.
func FromConfig(cfg config.Config) []Option {
	opts := []Option{
		WithHistorySize(cfg.Editor.HistorySize),
		WithAutoSaveDelay(cfg.Editor.AutoSaveDelay.Std()),
		WithPlatform(cfg.Editor.Platform),
	}
	if cfg.Keymap.File != "" {
		opts = append(opts, WithKeymapFile(cfg.Keymap.File, cfg.Keymap.Watch))
	}
	return opts
}
