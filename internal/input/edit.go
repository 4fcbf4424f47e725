package input

import (
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
)

// caret collapses a range selection by deleting it and returns the block
// and caret offset. ok is false when focus is outside the surface.
func (h *Handler) caret() (document.Block, int, bool) {
	sel, ok := h.sel.GetSelection()
	if !ok {
		return document.Block{}, 0, false
	}
	id, at := sel.BlockID, sel.FocusOffset
	if !sel.IsCollapsed {
		id, at, ok = h.sel.DeleteSelection(sel)
		if !ok {
			return document.Block{}, 0, false
		}
	}
	b, ok := h.doc.Block(id)
	return b, at, ok
}

// enter splits the block at the caret. List items continue the list; an
// empty list item is demoted to a paragraph instead. Code blocks take a
// newline.
func (h *Handler) enter() bool {
	var (
		focusID string
		focusAt int
		ok      bool
	)
	h.doc.Batch("Split block", func() {
		var b document.Block
		var at int
		b, at, ok = h.caret()
		if !ok {
			return
		}
		focusID, focusAt = b.ID, at

		switch {
		case b.Type == document.Paragraph && fenceLine.MatchString(b.Text()):
			lang := fenceLine.FindStringSubmatch(b.Text())[1]
			t := document.CodeBlock
			empty := richtext.Content{}
			attrs := document.Attributes{Language: lang, Indent: b.Attributes.Indent}
			h.doc.UpdateBlock(b.ID, document.BlockPatch{Type: &t, Content: &empty, Attributes: &attrs})
			focusAt = 0
			return

		case b.Type == document.CodeBlock || b.Type == document.Math:
			h.doc.SetContent(b.ID, richtext.InsertText(b.Content, at, "\n"))
			focusAt = at + 1
			return

		case b.Type.IsList() && b.IsEmpty():
			t := document.Paragraph
			attrs := document.Attributes{}
			h.doc.UpdateBlock(b.ID, document.BlockPatch{Type: &t, Attributes: &attrs})
			focusAt = 0
			return

		case !b.Type.HasText():
			next := document.NewTextBlock(document.Paragraph, "")
			h.doc.InsertBlock(next, h.doc.IndexOf(b.ID)+1)
			focusID, focusAt = next.ID, 0
			return
		}

		next := document.CreateBlock(splitType(b.Type), richtext.Slice(b.Content, at, b.Len()), splitAttributes(b))
		h.doc.SetContent(b.ID, richtext.Slice(b.Content, 0, at))
		h.doc.InsertBlock(next, h.doc.IndexOf(b.ID)+1)
		focusID, focusAt = next.ID, 0
	})
	if !ok {
		return false
	}
	h.sel.Focus(focusID, focusAt)
	return true
}

// splitType is the type of the block created by splitting a block of
// type t.
func splitType(t document.BlockType) document.BlockType {
	if t.IsList() {
		return t
	}
	return document.Paragraph
}

func splitAttributes(b document.Block) document.Attributes {
	if !b.Type.IsList() {
		return document.Attributes{}
	}
	return document.Attributes{Indent: b.Attributes.Indent}
}

// backspace deletes backwards. At the start of a block it deletes an
// empty block, demotes a leading non-paragraph, or merges the block into
// its predecessor.
func (h *Handler) backspace(word bool) bool {
	sel, ok := h.sel.GetSelection()
	if !ok {
		return false
	}
	if !sel.IsCollapsed {
		return h.sel.ReplaceSelection("")
	}
	b, ok := h.doc.Block(sel.BlockID)
	if !ok {
		return false
	}
	at := sel.FocusOffset
	if at > 0 && b.Type.HasText() {
		from := at - 1
		if word {
			from = selection.PrevWordBoundary(b.Text(), at)
		}
		return h.sel.SetSelection(b.ID, from, at) && h.sel.ReplaceSelection("")
	}

	idx := h.doc.IndexOf(b.ID)
	prev, hasPrev := h.doc.Neighbor(b.ID, -1)
	switch {
	case hasPrev && b.IsEmpty():
		h.doc.DeleteBlock(b.ID)
		return h.sel.FocusEnd(prev.ID)

	case idx == 0 && b.Type != document.Paragraph:
		t := document.Paragraph
		attrs := document.Attributes{}
		h.doc.UpdateBlock(b.ID, document.BlockPatch{Type: &t, Attributes: &attrs})
		return h.sel.Focus(b.ID, 0)

	case hasPrev && !prev.Type.HasText():
		h.doc.DeleteBlock(prev.ID)
		return h.sel.Focus(b.ID, 0)

	case hasPrev && b.Type.HasText():
		return h.merge(prev, b)
	}
	return false
}

// deleteForward deletes forwards. At the end of a block the next block is
// merged into it, or removed when it has no text.
func (h *Handler) deleteForward(word bool) bool {
	sel, ok := h.sel.GetSelection()
	if !ok {
		return false
	}
	if !sel.IsCollapsed {
		return h.sel.ReplaceSelection("")
	}
	b, ok := h.doc.Block(sel.BlockID)
	if !ok {
		return false
	}
	at := sel.FocusOffset
	if at < b.Len() {
		to := at + 1
		if word {
			to = selection.NextWordBoundary(b.Text(), at)
		}
		return h.sel.SetSelection(b.ID, at, to) && h.sel.ReplaceSelection("")
	}

	next, ok := h.doc.Neighbor(b.ID, 1)
	if !ok {
		return false
	}
	if !next.Type.HasText() {
		h.doc.DeleteBlock(next.ID)
		return h.sel.Focus(b.ID, at)
	}
	if !b.Type.HasText() {
		return false
	}
	return h.merge(b, next)
}

// merge appends the content of src to dst, deletes src and puts the caret
// at the join.
func (h *Handler) merge(dst, src document.Block) bool {
	join := dst.Len()
	content := richtext.Concat(dst.Content, src.Content)
	if !dst.Type.SupportsInlineStyles() {
		content = richtext.Plain(content.Text)
	}
	h.doc.Batch("Merge blocks", func() {
		h.doc.SetContent(dst.ID, content)
		h.doc.DeleteBlock(src.ID)
	})
	return h.sel.Focus(dst.ID, join)
}

// tab indents list items and inserts a tab in code blocks.
func (h *Handler) tab(outdent bool) bool {
	sel, ok := h.sel.GetSelection()
	if !ok || sel.MultiBlock() {
		return false
	}
	b, ok := h.doc.Block(sel.BlockID)
	if !ok {
		return false
	}
	switch {
	case b.Type == document.CodeBlock && !outdent:
		return h.TypeText("\t")
	case b.Type.IsList():
		attrs := b.Attributes.Clone()
		if outdent {
			attrs.Indent = max(attrs.Indent-1, 0)
		} else {
			attrs.Indent = min(attrs.Indent+1, h.indent)
		}
		h.doc.SetAttributes(b.ID, attrs)
		return h.sel.Adapter().Write(sel)
	}
	return false
}
