package editor

import (
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
)

// Toolbar reflects the editor state, typically as button highlights.
type Toolbar interface {
	Update(State)
}

// ToolbarFunc adapts a function to Toolbar.
type ToolbarFunc func(State)

// Update implements Toolbar.
func (f ToolbarFunc) Update(s State) { f(s) }

// State is what a toolbar shows for the current selection.
type State struct {
	// Focused is false when the caret is outside the surface; the other
	// selection fields are then empty.
	Focused   bool               `json:"focused"`
	BlockID   string             `json:"blockId,omitempty"`
	BlockType document.BlockType `json:"blockType,omitempty"`
	Styles    []richtext.Style   `json:"styles,omitempty"`
	CanUndo   bool               `json:"canUndo"`
	CanRedo   bool               `json:"canRedo"`
}

// Active reports whether style is in effect.
func (s State) Active(style richtext.Style) bool {
	for _, st := range s.Styles {
		if st == style {
			return true
		}
	}
	return false
}

// State returns the current toolbar state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state()
}

func (e *Editor) state() State {
	s := State{CanUndo: e.doc.CanUndo(), CanRedo: e.doc.CanRedo()}
	sel, ok := e.sel.GetSelection()
	if !ok {
		return s
	}
	b, ok := e.doc.Block(sel.FocusBlock())
	if !ok {
		return s
	}
	s.Focused = true
	s.BlockID = b.ID
	s.BlockType = b.Type
	if !b.Type.SupportsInlineStyles() || b.IsEmpty() {
		return s
	}
	start, end := sel.FocusOffset, sel.FocusOffset
	if !sel.MultiBlock() {
		start, end = sel.Start(), sel.End()
	}
	s.Styles = richtext.ActiveStyles(b.Content, start, end)
	return s
}

// notify pushes the state to the toolbar. The caller holds e.mu.
func (e *Editor) notify() {
	if e.toolbar == nil {
		return
	}
	e.toolbar.Update(e.state())
}
