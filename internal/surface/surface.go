// Package surface provides the in-memory editing surface.
//
// A Surface is an HTML node tree whose root is the editable region. Each
// direct element child of the root presents one block and is tagged with
// the block id. The surface also tracks focus and the live selection as a
// pair of (node, offset) points, the way a browser does. Only the
// selection adapter reads or writes the live selection.
package surface

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Point is a position in the tree. For a text node Offset counts code
// points into its data; for an element it counts children.
type Point struct {
	Node   *html.Node
	Offset int
}

// IsZero reports whether p points nowhere.
func (p Point) IsZero() bool {
	return p.Node == nil
}

// Surface is an editable block container.
type Surface struct {
	root    *html.Node
	focused bool
	anchor  Point
	focus   Point
}

// New returns an empty surface.
func New() *Surface {
	root := NewElement("div",
		html.Attribute{Key: "class", Val: "blockedit"},
		html.Attribute{Key: AttrEditable, Val: "true"},
	)
	return &Surface{root: root}
}

// Root returns the editable region.
func (s *Surface) Root() *html.Node {
	return s.root
}

// Elements returns the block elements in order.
func (s *Surface) Elements() []*html.Node {
	var out []*html.Node
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if BlockID(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

// Element returns the element presenting the block, or nil.
func (s *Surface) Element(id string) *html.Node {
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if BlockID(c) == id {
			return c
		}
	}
	return nil
}

// Index returns the position of the block element, or -1.
func (s *Surface) Index(id string) int {
	for i, el := range s.Elements() {
		if BlockID(el) == id {
			return i
		}
	}
	return -1
}

// Len returns the number of block elements.
func (s *Surface) Len() int {
	return len(s.Elements())
}

// InsertAt inserts el as the index-th block element.
func (s *Surface) InsertAt(index int, el *html.Node) {
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
	elems := s.Elements()
	if index < 0 || index >= len(elems) {
		s.root.AppendChild(el)
		return
	}
	s.root.InsertBefore(el, elems[index])
}

// Replace swaps old for el. The selection is dropped if it was inside old.
func (s *Surface) Replace(old, el *html.Node) {
	if old == nil || old.Parent != s.root {
		return
	}
	s.root.InsertBefore(el, old)
	s.root.RemoveChild(old)
	s.dropSelectionIn(old)
}

// Remove deletes the element presenting the block.
func (s *Surface) Remove(id string) bool {
	el := s.Element(id)
	if el == nil {
		return false
	}
	s.root.RemoveChild(el)
	s.dropSelectionIn(el)
	return true
}

// Move repositions the block element to index.
func (s *Surface) Move(id string, index int) bool {
	el := s.Element(id)
	if el == nil {
		return false
	}
	s.root.RemoveChild(el)
	s.InsertAt(index, el)
	return true
}

// Clear removes every block element.
func (s *Surface) Clear() {
	SetChildren(s.root)
	s.anchor, s.focus = Point{}, Point{}
}

// Focus gives the editable region input focus.
func (s *Surface) Focus() {
	s.focused = true
}

// Blur removes input focus and the selection with it.
func (s *Surface) Blur() {
	s.focused = false
	s.anchor, s.focus = Point{}, Point{}
}

// Focused reports whether the editable region has focus.
func (s *Surface) Focused() bool {
	return s.focused
}

// SetSelection places the live selection. Points outside the surface are
// ignored. Setting a selection focuses the surface.
func (s *Surface) SetSelection(anchor, focus Point) bool {
	if !Contains(s.root, anchor.Node) || !Contains(s.root, focus.Node) {
		return false
	}
	s.anchor, s.focus = anchor, focus
	s.focused = true
	return true
}

// Collapse places a caret at p.
func (s *Surface) Collapse(p Point) bool {
	return s.SetSelection(p, p)
}

// Selection returns the live selection. ok is false when the surface is
// not focused or has no selection.
func (s *Surface) Selection() (anchor, focus Point, ok bool) {
	if !s.focused || s.anchor.IsZero() {
		return Point{}, Point{}, false
	}
	return s.anchor, s.focus, true
}

// HTML renders the block elements.
func (s *Surface) HTML() string {
	return InnerHTML(s.root)
}

func (s *Surface) dropSelectionIn(n *html.Node) {
	if Contains(n, s.anchor.Node) || Contains(n, s.focus.Node) {
		s.anchor, s.focus = Point{}, Point{}
	}
}

// IsBlockElement reports whether n is a direct block child of root.
func (s *Surface) IsBlockElement(n *html.Node) bool {
	return n != nil && n.Parent == s.root && n.Type == html.ElementNode && BlockID(n) != ""
}

// Checkbox returns the checkbox input of a block element, or nil.
func Checkbox(el *html.Node) *html.Node {
	in := FindElement(el, atom.Input)
	if v, _ := Attr(in, "type"); v != "checkbox" {
		return nil
	}
	return in
}
