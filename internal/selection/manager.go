package selection

import (
	"unicode/utf8"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
)

// Direction is a caret movement direction.
type Direction int

// Directions.
const (
	Left Direction = iota
	Right
	Up
	Down
)

// Unit is the step size of a caret movement.
type Unit int

// Units. Up and Down always move by line.
const (
	Char Unit = iota
	Word
)

// Manager implements selection queries and edits against a document.
type Manager struct {
	doc     *document.Model
	adapter *Adapter
}

// NewManager returns a manager for doc presented through adapter.
func NewManager(doc *document.Model, adapter *Adapter) *Manager {
	return &Manager{doc: doc, adapter: adapter}
}

// Adapter returns the surface adapter.
func (m *Manager) Adapter() *Adapter {
	return m.adapter
}

// GetSelection returns the current selection. ok is false when focus is
// outside the editing surface.
func (m *Manager) GetSelection() (Selection, bool) {
	return m.adapter.Read()
}

// SetSelection selects [start, end) of a block, or places a caret at start
// when end is omitted. Offsets are clamped to the block text.
func (m *Manager) SetSelection(blockID string, start int, end ...int) bool {
	b, ok := m.doc.Block(blockID)
	if !ok {
		return false
	}
	n := b.Len()
	focus := start
	if len(end) > 0 {
		focus = end[0]
	}
	return m.adapter.Write(Range(blockID, clamp(start, 0, n), clamp(focus, 0, n)))
}

// SelectBlock selects the whole text of a block.
func (m *Manager) SelectBlock(blockID string) bool {
	b, ok := m.doc.Block(blockID)
	if !ok {
		return false
	}
	return m.adapter.Write(Range(blockID, 0, b.Len()))
}

// SelectAll selects from the start of the first block to the end of the
// last.
func (m *Manager) SelectAll() bool {
	blocks := m.doc.Blocks()
	if len(blocks) == 0 {
		return false
	}
	first, last := blocks[0], blocks[len(blocks)-1]
	if first.ID == last.ID {
		return m.adapter.Write(Range(first.ID, 0, first.Len()))
	}
	return m.adapter.Write(Selection{
		BlockID:      first.ID,
		FocusBlockID: last.ID,
		FocusOffset:  last.Len(),
	})
}

// Focus places a caret in a block. Offsets past the end place it at the
// end.
func (m *Manager) Focus(blockID string, offset int) bool {
	if offset < 0 {
		return m.FocusEnd(blockID)
	}
	return m.SetSelection(blockID, offset)
}

// FocusEnd places a caret at the end of a block.
func (m *Manager) FocusEnd(blockID string) bool {
	b, ok := m.doc.Block(blockID)
	if !ok {
		return false
	}
	return m.adapter.Write(Caret(blockID, b.Len()))
}

// MoveCaret moves the focus point. Moving left or up from the start of a
// block focuses the end of the previous block; moving right or down from
// the end focuses the start of the next one. With extend the anchor stays
// put. It returns false when the caret cannot move.
func (m *Manager) MoveCaret(dir Direction, unit Unit, extend bool) bool {
	sel, ok := m.GetSelection()
	if !ok {
		return false
	}
	if !extend && !sel.IsCollapsed && !sel.MultiBlock() {
		off := sel.Start()
		if dir == Right || dir == Down {
			off = sel.End()
		}
		return m.adapter.Write(Caret(sel.BlockID, off))
	}

	b, ok := m.doc.Block(sel.FocusBlock())
	if !ok {
		return false
	}
	id, off, moved := m.step(b, sel.FocusOffset, dir, unit)
	if !moved {
		return false
	}
	if !extend {
		return m.adapter.Write(Caret(id, off))
	}
	next := Selection{BlockID: sel.BlockID, AnchorOffset: sel.AnchorOffset, FocusOffset: off}
	if id != sel.BlockID {
		next.FocusBlockID = id
	} else {
		next.IsCollapsed = next.AnchorOffset == off
	}
	return m.adapter.Write(next)
}

func (m *Manager) step(b document.Block, off int, dir Direction, unit Unit) (string, int, bool) {
	text := b.Text()
	n := utf8.RuneCountInString(text)
	off = clamp(off, 0, n)

	switch dir {
	case Left:
		if off == 0 {
			return m.prevEnd(b.ID)
		}
		if unit == Word {
			return b.ID, PrevWordBoundary(text, off), true
		}
		return b.ID, off - 1, true
	case Right:
		if off == n {
			return m.nextStart(b.ID)
		}
		if unit == Word {
			return b.ID, NextWordBoundary(text, off), true
		}
		return b.ID, off + 1, true
	case Up:
		line, col := lineColumn(text, off)
		if line == 0 {
			return m.prevEnd(b.ID)
		}
		return b.ID, offsetAt(text, line-1, col), true
	case Down:
		line, col := lineColumn(text, off)
		if line == lineCount(text)-1 {
			return m.nextStart(b.ID)
		}
		return b.ID, offsetAt(text, line+1, col), true
	}
	return b.ID, off, false
}

func (m *Manager) prevEnd(id string) (string, int, bool) {
	prev, ok := m.doc.Neighbor(id, -1)
	if !ok {
		return id, 0, false
	}
	return prev.ID, prev.Len(), true
}

func (m *Manager) nextStart(id string) (string, int, bool) {
	next, ok := m.doc.Neighbor(id, 1)
	if !ok {
		return id, 0, false
	}
	return next.ID, 0, true
}

// InsertAtCursor replaces the current selection with text.
func (m *Manager) InsertAtCursor(text string) bool {
	return m.ReplaceSelection(text)
}

// ReplaceSelection deletes the selected content, inserts text at the start
// of the deleted span and collapses the caret after the inserted text. The
// whole edit is one undo step.
func (m *Manager) ReplaceSelection(text string) bool {
	sel, ok := m.GetSelection()
	if !ok {
		return false
	}
	var (
		id string
		at int
	)
	m.doc.Batch("Type", func() {
		id, at, ok = m.DeleteSelection(sel)
		if !ok || text == "" {
			return
		}
		b, found := m.doc.Block(id)
		if !found || !b.Type.HasText() {
			ok = false
			return
		}
		ok = m.doc.SetContent(id, richtext.InsertText(b.Content, at, text))
		at += utf8.RuneCountInString(text)
	})
	if !ok {
		return false
	}
	return m.adapter.Write(Caret(id, at))
}

// DeleteSelection removes the content covered by sel and returns the
// block and offset where the caret belongs afterwards. A collapsed
// selection deletes nothing.
func (m *Manager) DeleteSelection(sel Selection) (string, int, bool) {
	if !sel.MultiBlock() {
		b, ok := m.doc.Block(sel.BlockID)
		if !ok {
			return "", 0, false
		}
		if sel.IsCollapsed || sel.Length() == 0 || !b.Type.HasText() {
			return b.ID, clamp(sel.Start(), 0, b.Len()), true
		}
		ok = m.doc.SetContent(b.ID, richtext.DeleteText(b.Content, sel.Start(), sel.End()))
		return b.ID, sel.Start(), ok
	}

	ai, fi := m.doc.IndexOf(sel.BlockID), m.doc.IndexOf(sel.FocusBlockID)
	if ai < 0 || fi < 0 {
		return "", 0, false
	}
	startIdx, startOff, endIdx, endOff := ai, sel.AnchorOffset, fi, sel.FocusOffset
	if fi < ai {
		startIdx, startOff, endIdx, endOff = fi, sel.FocusOffset, ai, sel.AnchorOffset
	}
	blocks := m.doc.Blocks()
	first, last := blocks[startIdx], blocks[endIdx]
	startOff = clamp(startOff, 0, first.Len())
	endOff = clamp(endOff, 0, last.Len())

	m.doc.Batch("Delete", func() {
		for _, b := range blocks[startIdx+1 : endIdx+1] {
			m.doc.DeleteBlock(b.ID)
		}
		head := richtext.Slice(first.Content, 0, startOff)
		if last.Type.HasText() && first.Type.HasText() {
			head = richtext.Concat(head, richtext.Slice(last.Content, endOff, last.Len()))
		}
		m.doc.SetContent(first.ID, head)
	})
	return first.ID, startOff, true
}
