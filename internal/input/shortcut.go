package input

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
)

// Shortcut is a markdown trigger that retypes a paragraph.
type Shortcut struct {
	Trigger string
	Type    document.BlockType
	Checked bool
}

// Shortcuts lists the markdown triggers in match order. The code fence is
// matched separately, after the checkbox triggers.
var Shortcuts = []Shortcut{
	{Trigger: "# ", Type: document.Heading1},
	{Trigger: "## ", Type: document.Heading2},
	{Trigger: "### ", Type: document.Heading3},
	{Trigger: "#### ", Type: document.Heading4},
	{Trigger: "> ", Type: document.Quote},
	{Trigger: "- ", Type: document.Bullet},
	{Trigger: "* ", Type: document.Bullet},
	{Trigger: "1. ", Type: document.Number},
	{Trigger: "[] ", Type: document.Checkbox},
	{Trigger: "[ ] ", Type: document.Checkbox},
	{Trigger: "[x] ", Type: document.Checkbox, Checked: true},
	{Trigger: "---", Type: document.Divider},
	{Trigger: "$$", Type: document.Math},
}

var (
	fenceOpen = regexp.MustCompile("^```([A-Za-z0-9_+#.-]*)[ \n]")
	fenceLine = regexp.MustCompile("^```([A-Za-z0-9_+#.-]*)$")
)

// Match is the result of matching a block's text against the shortcuts.
type Match struct {
	Type     document.BlockType
	Checked  bool
	Language string
	// Len is the trigger length in code points.
	Len int
}

// MatchShortcut returns the first shortcut whose trigger starts text.
func MatchShortcut(text string) (Match, bool) {
	for _, s := range Shortcuts {
		if s.Type == document.Divider {
			if m := fenceOpen.FindStringSubmatch(text); m != nil {
				return Match{Type: document.CodeBlock, Language: m[1], Len: utf8.RuneCountInString(m[0])}, true
			}
		}
		if strings.HasPrefix(text, s.Trigger) {
			return Match{Type: s.Type, Checked: s.Checked, Len: utf8.RuneCountInString(s.Trigger)}, true
		}
	}
	return Match{}, false
}

// shortcut applies a markdown shortcut to a paragraph when the caret is
// past its trigger. It reports whether the block was retyped.
func (h *Handler) shortcut(id string, caret int) bool {
	b, ok := h.doc.Block(id)
	if !ok || b.Type != document.Paragraph {
		return false
	}
	m, ok := MatchShortcut(b.Text())
	if !ok || caret < m.Len {
		return false
	}
	h.retype(b, m, richtext.Slice(b.Content, m.Len, b.Len()), caret-m.Len)
	return true
}

// retype converts b according to m with rest as its new content, as one
// undo step, and places the caret at offset.
func (h *Handler) retype(b document.Block, m Match, rest richtext.Content, offset int) {
	attrs := document.Attributes{Indent: b.Attributes.Indent}
	switch m.Type {
	case document.Checkbox:
		attrs.Checked = m.Checked
	case document.CodeBlock:
		attrs.Language = m.Language
	}
	if !m.Type.SupportsInlineStyles() {
		rest = richtext.Plain(rest.Text)
	}

	t := m.Type
	var next document.Block
	h.doc.Batch("Markdown shortcut", func() {
		if t == document.Divider {
			empty := richtext.Content{}
			h.doc.UpdateBlock(b.ID, document.BlockPatch{Type: &t, Content: &empty, Attributes: &document.Attributes{}})
			next = document.CreateBlock(document.Paragraph, rest, document.Attributes{})
			h.doc.InsertBlock(next, h.doc.IndexOf(b.ID)+1)
			return
		}
		h.doc.UpdateBlock(b.ID, document.BlockPatch{Type: &t, Content: &rest, Attributes: &attrs})
	})

	if t == document.Divider {
		h.sel.Focus(next.ID, 0)
		return
	}
	h.sel.Focus(b.ID, max(offset, 0))
}
