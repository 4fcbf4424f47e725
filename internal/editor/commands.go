package editor

import (
	"fmt"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/input/palette"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
)

// Command names accepted by ExecuteCommand.
const (
	CmdBold          = "bold"
	CmdItalic        = "italic"
	CmdStrikethrough = "strikethrough"
	CmdCode          = "code"
	CmdLink          = "link"
	CmdHeading1      = "heading1"
	CmdHeading2      = "heading2"
	CmdHeading3      = "heading3"
	CmdHeading4      = "heading4"
	CmdParagraph     = "paragraph"
	CmdQuote         = "quote"
	CmdBullet        = "bullet"
	CmdNumber        = "number"
	CmdCheckbox      = "checkbox"
	CmdCodeBlock     = "codeblock"
	CmdImage         = "image"
	CmdTable         = "table"
	CmdDivider       = "divider"
	CmdUndo          = "undo"
	CmdRedo          = "redo"
	CmdSelectAll     = "selectAll"
)

var styleCommands = map[string]richtext.Style{
	CmdBold:          richtext.Bold,
	CmdItalic:        richtext.Italic,
	CmdStrikethrough: richtext.Strikethrough,
	CmdCode:          richtext.Code,
}

var blockCommands = map[string]document.BlockType{
	CmdHeading1:  document.Heading1,
	CmdHeading2:  document.Heading2,
	CmdHeading3:  document.Heading3,
	CmdHeading4:  document.Heading4,
	CmdParagraph: document.Paragraph,
	CmdQuote:     document.Quote,
	CmdBullet:    document.Bullet,
	CmdNumber:    document.Number,
	CmdCheckbox:  document.Checkbox,
	CmdCodeBlock: document.CodeBlock,
}

// commandEntries lists the commands as shown in a command menu.
var commandEntries = []palette.Entry{
	{Name: CmdParagraph, Title: "Text", Group: "Blocks"},
	{Name: CmdHeading1, Title: "Heading 1", Group: "Blocks"},
	{Name: CmdHeading2, Title: "Heading 2", Group: "Blocks"},
	{Name: CmdHeading3, Title: "Heading 3", Group: "Blocks"},
	{Name: CmdHeading4, Title: "Heading 4", Group: "Blocks"},
	{Name: CmdQuote, Title: "Quote", Group: "Blocks"},
	{Name: CmdBullet, Title: "Bulleted list", Group: "Blocks"},
	{Name: CmdNumber, Title: "Numbered list", Group: "Blocks"},
	{Name: CmdCheckbox, Title: "To-do list", Group: "Blocks"},
	{Name: CmdCodeBlock, Title: "Code block", Group: "Blocks"},
	{Name: CmdImage, Title: "Image", Group: "Insert"},
	{Name: CmdTable, Title: "Table", Group: "Insert"},
	{Name: CmdDivider, Title: "Divider", Group: "Insert"},
	{Name: CmdBold, Title: "Bold", Group: "Format"},
	{Name: CmdItalic, Title: "Italic", Group: "Format"},
	{Name: CmdStrikethrough, Title: "Strikethrough", Group: "Format"},
	{Name: CmdCode, Title: "Inline code", Group: "Format"},
	{Name: CmdLink, Title: "Link", Group: "Format"},
	{Name: CmdUndo, Title: "Undo", Group: "Edit"},
	{Name: CmdRedo, Title: "Redo", Group: "Edit"},
	{Name: CmdSelectAll, Title: "Select all", Group: "Edit"},
}

// Commands returns every command name.
func Commands() []string {
	out := make([]string, len(commandEntries))
	for i, e := range commandEntries {
		out[i] = e.Name
	}
	return out
}

// SearchCommands returns up to limit commands matching query, best
// first, with their current key bindings. Recently run commands rank
// higher.
func (e *Editor) SearchCommands(query string, limit int) []palette.Match {
	matches := e.palette.Search(query, limit)
	for i := range matches {
		matches[i].Entry.Keys = e.keys.ChordsFor(matches[i].Entry.Name)
	}
	return matches
}

// ExecuteCommand runs a named command against the current selection and
// reports whether it changed anything. Arguments are command specific:
// link takes a target, image a source and alt text, and table a shape
// such as "3x4".
func (e *Editor) ExecuteCommand(name string, args ...string) bool {
	return e.event(func() bool { return e.execute(name, args...) })
}

func (e *Editor) execute(name string, args ...string) bool {
	ok := e.run(name, args...)
	if ok {
		e.palette.Record(name)
	}
	return ok
}

func (e *Editor) run(name string, args ...string) bool {
	if style, ok := styleCommands[name]; ok {
		return e.toggleStyle(style)
	}
	if t, ok := blockCommands[name]; ok {
		return e.setBlockType(t)
	}

	switch name {
	case CmdLink:
		return e.link(args)
	case CmdImage:
		var attrs document.Attributes
		if len(args) > 0 {
			attrs.Src = args[0]
		}
		if len(args) > 1 {
			attrs.Alt = args[1]
		}
		return e.insertAfterFocus(document.CreateBlock(document.Image, richtext.Content{}, attrs))
	case CmdTable:
		var attrs document.Attributes
		if len(args) > 0 {
			if _, err := fmt.Sscanf(args[0], "%dx%d", &attrs.Rows, &attrs.Cols); err != nil {
				return false
			}
			if attrs.Rows < 1 || attrs.Cols < 1 || !attrs.TableFits() {
				return false
			}
		}
		return e.insertAfterFocus(document.CreateBlock(document.Table, richtext.Content{}, attrs))
	case CmdDivider:
		return e.insertAfterFocus(document.CreateBlock(document.Divider, richtext.Content{}, document.Attributes{}))
	case CmdUndo:
		if !e.doc.Undo() {
			return false
		}
		e.refocus()
		return true
	case CmdRedo:
		if !e.doc.Redo() {
			return false
		}
		e.refocus()
		return true
	case CmdSelectAll:
		return e.sel.SelectAll()
	}
	return false
}

// span is the part of one block covered by a selection.
type span struct {
	id       string
	from, to int
}

// spans returns the covered part of every block in sel, in document
// order.
func (e *Editor) spans(sel selection.Selection) []span {
	if !sel.MultiBlock() {
		return []span{{id: sel.BlockID, from: sel.Start(), to: sel.End()}}
	}
	ai, fi := e.doc.IndexOf(sel.BlockID), e.doc.IndexOf(sel.FocusBlockID)
	if ai < 0 || fi < 0 {
		return nil
	}
	first, firstOff, last, lastOff := ai, sel.AnchorOffset, fi, sel.FocusOffset
	if fi < ai {
		first, firstOff, last, lastOff = fi, sel.FocusOffset, ai, sel.AnchorOffset
	}

	var out []span
	for i := first; i <= last; i++ {
		b, ok := e.doc.At(i)
		if !ok {
			break
		}
		s := span{id: b.ID, from: 0, to: b.Len()}
		if i == first {
			s.from = min(firstOff, b.Len())
		}
		if i == last {
			s.to = min(lastOff, b.Len())
		}
		out = append(out, s)
	}
	return out
}

// styleSpans returns the non-empty spans of sel in blocks that take
// inline styles.
func (e *Editor) styleSpans(sel selection.Selection) []span {
	var out []span
	for _, s := range e.spans(sel) {
		b, ok := e.doc.Block(s.id)
		if !ok || !b.Type.SupportsInlineStyles() || s.to <= s.from {
			continue
		}
		out = append(out, s)
	}
	return out
}

// toggleStyle removes style when it covers the whole selection and
// applies it otherwise.
func (e *Editor) toggleStyle(style richtext.Style) bool {
	sel, ok := e.sel.GetSelection()
	if !ok || sel.IsCollapsed {
		return false
	}
	spans := e.styleSpans(sel)
	if len(spans) == 0 {
		return false
	}

	covered := true
	for _, s := range spans {
		b, _ := e.doc.Block(s.id)
		if !richtext.Covered(b.Content, s.from, s.to-s.from, style) {
			covered = false
			break
		}
	}

	changed := false
	e.doc.Batch("Format", func() {
		for _, s := range spans {
			if covered {
				changed = e.doc.RemoveInlineStyle(s.id, s.from, s.to-s.from, style) || changed
			} else {
				changed = e.doc.ApplyInlineStyle(s.id, s.from, s.to-s.from, style, "") || changed
			}
		}
	})
	e.sel.Adapter().Write(sel)
	return changed
}

// link sets the link target of the selection. Without a target the link
// prompt is asked; an empty target removes links.
func (e *Editor) link(args []string) bool {
	sel, ok := e.sel.GetSelection()
	if !ok || sel.IsCollapsed {
		return false
	}
	spans := e.styleSpans(sel)
	if len(spans) == 0 {
		return false
	}

	var href string
	switch {
	case len(args) > 0:
		href = args[0]
	case e.linkPrompt != nil:
		href, ok = e.linkPrompt(e.currentLink(spans[0]))
		if !ok {
			return false
		}
	default:
		return false
	}

	changed := false
	e.doc.Batch("Link", func() {
		for _, s := range spans {
			if href == "" {
				changed = e.doc.RemoveInlineStyle(s.id, s.from, s.to-s.from, richtext.Link) || changed
			} else {
				changed = e.doc.ApplyInlineStyle(s.id, s.from, s.to-s.from, richtext.Link, href) || changed
			}
		}
	})
	e.sel.Adapter().Write(sel)
	return changed
}

func (e *Editor) currentLink(s span) string {
	b, ok := e.doc.Block(s.id)
	if !ok {
		return ""
	}
	for _, r := range b.Content.Styles {
		if r.Style == richtext.Link && r.Offset <= s.from && s.from < r.End() {
			return r.Href
		}
	}
	return ""
}

// setBlockType converts the selected text blocks to t. When every one of
// them already has type t they are converted back to paragraphs.
func (e *Editor) setBlockType(t document.BlockType) bool {
	sel, ok := e.sel.GetSelection()
	if !ok {
		return false
	}
	var ids []string
	same := true
	for _, s := range e.spans(sel) {
		b, ok := e.doc.Block(s.id)
		if !ok || !b.Type.HasText() {
			continue
		}
		ids = append(ids, b.ID)
		same = same && b.Type == t
	}
	if len(ids) == 0 {
		return false
	}
	target := t
	if same {
		if t == document.Paragraph {
			return false
		}
		target = document.Paragraph
	}

	changed := false
	e.doc.Batch("Change block type", func() {
		for _, id := range ids {
			changed = e.doc.ChangeType(id, target) || changed
		}
	})
	e.sel.Adapter().Write(sel)
	return changed
}

// insertAfterFocus inserts b after the focused block, or appends it. A
// divider at the end of the document gets a paragraph after it to hold
// the caret.
func (e *Editor) insertAfterFocus(b document.Block) bool {
	idx := e.doc.Len()
	if sel, ok := e.sel.GetSelection(); ok {
		if i := e.doc.IndexOf(sel.FocusBlock()); i >= 0 {
			idx = i + 1
		}
	}

	var next document.Block
	e.doc.Batch("Insert "+string(b.Type), func() {
		e.doc.InsertBlock(b, idx)
		if b.Type == document.Divider && idx == e.doc.Len()-1 {
			next = document.NewTextBlock(document.Paragraph, "")
			e.doc.InsertBlock(next, idx+1)
		}
	})
	if next.ID != "" {
		e.sel.Focus(next.ID, 0)
	}
	return true
}

// refocus puts the caret at the end of the block undo or redo touched, or
// of the last block when that block is gone.
func (e *Editor) refocus() {
	if id, _ := e.lastChanged.Load().(string); id != "" {
		if b, ok := e.doc.Block(id); ok && b.Type.HasText() {
			e.sel.FocusEnd(id)
			return
		}
	}
	if n := e.doc.Len(); n > 0 {
		last, _ := e.doc.At(n - 1)
		e.sel.FocusEnd(last.ID)
	}
}
