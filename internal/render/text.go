package render

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/surface"
)

func element(tag string, b document.Block, editable bool) *html.Node {
	flag := "false"
	if editable {
		flag = "true"
	}
	el := surface.NewElement(tag,
		html.Attribute{Key: surface.AttrBlockID, Val: b.ID},
		html.Attribute{Key: surface.AttrBlockType, Val: string(b.Type)},
		html.Attribute{Key: surface.AttrEditable, Val: flag},
	)
	setIndent(el, b.Attributes.Indent)
	return el
}

func setIndent(el *html.Node, indent int) {
	if indent > 0 {
		surface.SetAttr(el, "data-indent", strconv.Itoa(indent))
	} else {
		surface.RemoveAttr(el, "data-indent")
	}
}

// syncRich rewrites the children of el when their markup differs from c.
func syncRich(el *html.Node, c richtext.Content) bool {
	if surface.InnerHTML(el) == richtext.Render(c) {
		return false
	}
	surface.SetChildren(el, richtext.RenderNodes(c)...)
	return true
}

// syncText rewrites the children of el with plain text when it differs.
func syncText(el *html.Node, text string) bool {
	if surface.TextContent(el) == text && surface.ChildCount(el) <= 1 {
		return false
	}
	if text == "" {
		surface.SetChildren(el)
	} else {
		surface.SetChildren(el, surface.NewText(text))
	}
	return true
}

// TextStrategy renders paragraphs, headings and quotes as one editable
// element holding inline markup.
type TextStrategy struct {
	Tag string
}

// Render implements Strategy.
func (s TextStrategy) Render(b document.Block) *html.Node {
	el := element(s.Tag, b, true)
	surface.SetChildren(el, richtext.RenderNodes(b.Content)...)
	return el
}

// Update implements Strategy.
func (s TextStrategy) Update(el *html.Node, b document.Block) (bool, error) {
	setIndent(el, b.Attributes.Indent)
	return syncRich(el, b.Content), nil
}

// ListStrategy renders bullet and numbered list items.
type ListStrategy struct{}

// Render implements Strategy.
func (ListStrategy) Render(b document.Block) *html.Node {
	el := element("li", b, true)
	surface.SetAttr(el, "data-list", string(b.Type))
	SetListNumber(el, b.Attributes.ListIndex)
	surface.SetChildren(el, richtext.RenderNodes(b.Content)...)
	return el
}

// Update implements Strategy.
func (ListStrategy) Update(el *html.Node, b document.Block) (bool, error) {
	setIndent(el, b.Attributes.Indent)
	return syncRich(el, b.Content), nil
}

// SetListNumber sets the displayed number of a numbered list item.
// Zero removes it.
func SetListNumber(el *html.Node, n int) {
	if n > 0 {
		surface.SetAttr(el, "value", strconv.Itoa(n))
	} else {
		surface.RemoveAttr(el, "value")
	}
}

// CheckboxStrategy renders a list item with a checkbox and an editable
// label.
type CheckboxStrategy struct{}

// Render implements Strategy.
func (CheckboxStrategy) Render(b document.Block) *html.Node {
	el := element("li", b, false)
	surface.SetAttr(el, "data-list", string(document.Checkbox))
	box := surface.NewElement("input", html.Attribute{Key: "type", Val: "checkbox"})
	label := surface.NewElement("span", html.Attribute{Key: surface.AttrEditable, Val: "true"})
	surface.SetChildren(label, richtext.RenderNodes(b.Content)...)
	el.AppendChild(box)
	el.AppendChild(label)
	setChecked(el, box, b.Attributes.Checked)
	return el
}

// Update implements Strategy.
func (CheckboxStrategy) Update(el *html.Node, b document.Block) (bool, error) {
	setIndent(el, b.Attributes.Indent)
	box := surface.Checkbox(el)
	label := surface.Editable(el)
	if box == nil || label == nil {
		return false, errMalformed(b, "checkbox")
	}
	setChecked(el, box, b.Attributes.Checked)
	return syncRich(label, b.Content), nil
}

func setChecked(el, box *html.Node, checked bool) {
	surface.SetAttr(el, "data-checked", strconv.FormatBool(checked))
	if checked {
		surface.SetAttr(box, "checked", "")
	} else {
		surface.RemoveAttr(box, "checked")
	}
}

// DividerStrategy renders a horizontal rule.
type DividerStrategy struct{}

// Render implements Strategy.
func (DividerStrategy) Render(b document.Block) *html.Node {
	return element("hr", b, false)
}

// Update implements Strategy.
func (DividerStrategy) Update(*html.Node, document.Block) (bool, error) {
	return false, nil
}

func firstChildElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}
