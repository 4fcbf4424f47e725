package input

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/input/key"
	"github.com/dshills/blockedit/internal/input/keymap"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
	"github.com/dshills/blockedit/internal/surface"
)

// Executor runs named editor commands.
type Executor interface {
	ExecuteCommand(name string) bool
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(name string) bool

// ExecuteCommand implements Executor.
func (f ExecutorFunc) ExecuteCommand(name string) bool {
	return f(name)
}

// Config configures the input handler.
type Config struct {
	// Keymap resolves chords to commands. Default: the built-in bindings
	// for the host platform.
	Keymap *keymap.Table

	// Commands runs bound commands. Without it bound chords are still
	// reported as handled but do nothing.
	Commands Executor

	// Logger receives paste degradation and file read warnings.
	Logger *zap.Logger

	// Post delivers the completion of an asynchronous file read. The
	// default runs it on the reading goroutine.
	Post func(func())

	// MaxIndent caps list indentation. Default: 8.
	MaxIndent int
}

// DefaultConfig returns a configuration with the built-in keymap.
func DefaultConfig() Config {
	return Config{MaxIndent: 8}
}

// Handler is the entry point for input processing.
type Handler struct {
	doc      *document.Model
	sel      *selection.Manager
	keys     *keymap.Table
	commands Executor
	logger   *zap.Logger
	post     func(func())
	indent   int

	reads sync.WaitGroup
}

// NewHandler creates an input handler editing doc through sel.
func NewHandler(doc *document.Model, sel *selection.Manager, config Config) *Handler {
	h := &Handler{
		doc:      doc,
		sel:      sel,
		keys:     config.Keymap,
		commands: config.Commands,
		logger:   config.Logger,
		post:     config.Post,
		indent:   config.MaxIndent,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.post == nil {
		h.post = func(fn func()) { fn() }
	}
	if h.indent <= 0 {
		h.indent = 8
	}
	if h.keys == nil {
		t, err := keymap.NewTable(key.HostPlatform(), keymap.Default())
		if err != nil {
			h.logger.Error("default keymap invalid", zap.Error(err))
			t, _ = keymap.NewTable(key.HostPlatform())
		}
		h.keys = t
	}
	return h
}

// Keymap returns the chord table.
func (h *Handler) Keymap() *keymap.Table {
	return h.keys
}

// HandleKeyDown processes a key press and reports whether it was handled,
// in which case the host suppresses its default behavior. Bound chords and
// the structural keys Enter, Backspace, Delete and Tab are handled; every
// other key falls through to the host.
func (h *Handler) HandleKeyDown(ev key.Event) bool {
	if ev.IsNone() {
		return false
	}
	if b, ok := h.keys.Lookup(ev); ok {
		if h.commands != nil && !h.commands.ExecuteCommand(b.Action) {
			h.logger.Debug("bound command did nothing",
				zap.String("chord", ev.Chord()), zap.String("action", b.Action))
		}
		return true
	}

	shift := ev.Modifiers.Has(key.ModShift)
	word := ev.Modifiers.Has(key.ModAlt)
	switch ev.Key {
	case key.KeyEnter:
		if shift {
			return h.TypeText("\n")
		}
		return h.enter()
	case key.KeyBackspace:
		return h.backspace(word)
	case key.KeyDelete:
		return h.deleteForward(word)
	case key.KeyTab:
		return h.tab(shift)
	}
	return false
}

// MoveCaret moves the caret for an arrow key the way native caret handling
// would. Alt moves by word and Shift extends the selection. Other keys
// return false.
func (h *Handler) MoveCaret(ev key.Event) bool {
	unit := selection.Char
	if ev.Modifiers.Has(key.ModAlt) {
		unit = selection.Word
	}
	extend := ev.Modifiers.Has(key.ModShift)
	switch ev.Key {
	case key.KeyLeft:
		return h.sel.MoveCaret(selection.Left, unit, extend)
	case key.KeyRight:
		return h.sel.MoveCaret(selection.Right, unit, extend)
	case key.KeyUp:
		return h.sel.MoveCaret(selection.Up, selection.Char, extend)
	case key.KeyDown:
		return h.sel.MoveCaret(selection.Down, selection.Char, extend)
	}
	return false
}

// TypeText replaces the selection with text and checks the block for
// markdown shortcuts.
func (h *Handler) TypeText(text string) bool {
	if !h.sel.ReplaceSelection(text) {
		return false
	}
	if sel, ok := h.sel.GetSelection(); ok && sel.IsCollapsed {
		h.shortcut(sel.BlockID, sel.FocusOffset)
	}
	return true
}

// HandleInput reads the focused block back from the surface after the
// host edited it, records the change and checks for markdown shortcuts.
// It reports whether the model changed.
func (h *Handler) HandleInput() bool {
	sel, ok := h.sel.GetSelection()
	if !ok || sel.MultiBlock() {
		return false
	}
	b, ok := h.doc.Block(sel.BlockID)
	if !ok {
		return false
	}
	el := h.sel.Adapter().Surface().Element(b.ID)
	if el == nil {
		return false
	}

	before := h.doc.Version()
	switch {
	case b.Type == document.Table:
		attrs := b.Attributes.ShapeTable()
		readCells(el, attrs.Cells)
		h.doc.SetAttributes(b.ID, attrs)
	case b.Type.HasText():
		ed := surface.Editable(el)
		if ed == nil {
			return false
		}
		var c richtext.Content
		if b.Type.SupportsInlineStyles() {
			c = richtext.ParseNodes(childNodes(ed))
			c.Rich = c.Rich || b.Content.Rich
		} else {
			c = richtext.Plain(surface.TextContent(ed))
		}
		h.doc.SetContent(b.ID, c)
	}
	changed := h.doc.Version() != before

	if sel.IsCollapsed {
		if h.shortcut(b.ID, sel.FocusOffset) {
			changed = true
		}
	}
	return changed
}

func childNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func readCells(table *html.Node, cells [][]string) {
	body := surface.ElementChildren(table)
	if len(body) == 0 {
		return
	}
	for r, tr := range surface.ElementChildren(body[0]) {
		if r >= len(cells) {
			return
		}
		for c, td := range surface.ElementChildren(tr) {
			if c >= len(cells[r]) {
				break
			}
			cells[r][c] = surface.TextContent(td)
		}
	}
}

// Wait blocks until every file read started by Paste or Drop has been
// delivered.
func (h *Handler) Wait() {
	h.reads.Wait()
}
