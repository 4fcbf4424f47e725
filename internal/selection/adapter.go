package selection

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockedit/internal/surface"
)

// Adapter converts between surface points and block offsets.
type Adapter struct {
	s *surface.Surface
}

// NewAdapter returns an adapter for s.
func NewAdapter(s *surface.Surface) *Adapter {
	return &Adapter{s: s}
}

// Surface returns the surface the adapter reads.
func (a *Adapter) Surface() *surface.Surface {
	return a.s
}

// Read returns the live selection in block coordinates. ok is false when
// focus is outside the surface or a point cannot be mapped to a block.
func (a *Adapter) Read() (Selection, bool) {
	anchor, focus, ok := a.s.Selection()
	if !ok {
		return Selection{}, false
	}
	aid, aoff, ok := a.OffsetOf(anchor)
	if !ok {
		return Selection{}, false
	}
	fid, foff, ok := a.OffsetOf(focus)
	if !ok {
		return Selection{}, false
	}
	if aid == fid {
		return Range(aid, aoff, foff), true
	}
	return Selection{BlockID: aid, AnchorOffset: aoff, FocusBlockID: fid, FocusOffset: foff}, true
}

// Write places the live selection. Offsets past the end of a block are
// clamped; the result is false when a block has no element.
func (a *Adapter) Write(sel Selection) bool {
	anchorEl := a.s.Element(sel.BlockID)
	focusEl := a.s.Element(sel.FocusBlock())
	if anchorEl == nil || focusEl == nil {
		return false
	}
	anchor, _ := a.PointAt(anchorEl, sel.AnchorOffset)
	focus, _ := a.PointAt(focusEl, sel.FocusOffset)
	return a.s.SetSelection(anchor, focus)
}

// OffsetOf maps a point to the block holding it and the code point offset
// within the block's editable text.
func (a *Adapter) OffsetOf(p surface.Point) (string, int, bool) {
	el := p.Node
	for el != nil && !a.s.IsBlockElement(el) {
		el = el.Parent
	}
	if el == nil {
		return "", 0, false
	}
	id := surface.BlockID(el)
	ed := surface.Editable(el)
	if ed == nil || !surface.Contains(ed, p.Node) {
		return id, 0, true
	}

	if p.Node.Type == html.TextNode {
		before := textBefore(ed, p.Node)
		return id, before + clamp(p.Offset, 0, utf8.RuneCountInString(p.Node.Data)), true
	}
	if child := surface.ChildAt(p.Node, p.Offset); child != nil {
		return id, textBefore(ed, child), true
	}
	return id, textBefore(ed, p.Node) + utf8.RuneCountInString(surface.TextContent(p.Node)), true
}

// PointAt maps offset within a block element to a surface point. ok is
// false when the offset is past the end of the text; the point is then the
// end of the editable region.
func (a *Adapter) PointAt(el *html.Node, offset int) (surface.Point, bool) {
	ed := surface.Editable(el)
	if ed == nil {
		return surface.Point{Node: el}, offset == 0
	}
	remaining := offset
	var found *surface.Point
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		switch {
		case n.Type == html.TextNode:
			l := utf8.RuneCountInString(n.Data)
			if remaining <= l {
				found = &surface.Point{Node: n, Offset: remaining}
				return true
			}
			remaining -= l
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			if remaining == 0 {
				found = &surface.Point{Node: n.Parent, Offset: surface.ChildIndex(n.Parent, n)}
				return true
			}
			remaining--
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if offset >= 0 && walk(ed) {
		return *found, true
	}
	end := surface.Point{Node: ed, Offset: surface.ChildCount(ed)}
	return end, offset >= 0 && remaining == 0
}

// SaveCaret returns the focus offset when the caret is inside the block.
func (a *Adapter) SaveCaret(blockID string) (int, bool) {
	_, focus, ok := a.s.Selection()
	if !ok {
		return 0, false
	}
	id, off, ok := a.OffsetOf(focus)
	if !ok || id != blockID {
		return 0, false
	}
	return off, true
}

// RestoreCaret collapses the caret at offset in the block. It reports
// whether the offset still exists in the block's text.
func (a *Adapter) RestoreCaret(blockID string, offset int) bool {
	el := a.s.Element(blockID)
	if el == nil {
		return false
	}
	p, ok := a.PointAt(el, offset)
	if !ok {
		return false
	}
	return a.s.Collapse(p)
}

// CaretToEnd collapses the caret at the end of the block.
func (a *Adapter) CaretToEnd(blockID string) bool {
	el := a.s.Element(blockID)
	if el == nil {
		return false
	}
	ed := surface.Editable(el)
	if ed == nil {
		return a.s.Collapse(surface.Point{Node: el})
	}
	return a.s.Collapse(surface.Point{Node: ed, Offset: surface.ChildCount(ed)})
}

// textBefore counts the code points of ed that precede target in document
// order.
func textBefore(ed, target *html.Node) int {
	count := 0
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target {
			return true
		}
		switch {
		case n.Type == html.TextNode:
			count += utf8.RuneCountInString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(ed)
	return count
}
