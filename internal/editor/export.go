package editor

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/surface"
)

// ExportHTML renders blocks as semantic HTML. Consecutive list items of
// one kind share a ul or ol, checkbox items carrying a checkbox input.
// Math blocks keep only their source, in a div of class "math".
func ExportHTML(blocks []document.Block) string {
	var (
		out  []*html.Node
		list *html.Node
		kind document.BlockType
	)
	for _, b := range blocks {
		if !b.Type.IsList() {
			list = nil
			out = append(out, exportBlock(b))
			continue
		}
		if list == nil || kind != listKind(b.Type) {
			kind = listKind(b.Type)
			list = surface.NewElement(listTag(kind))
			out = append(out, list)
		}
		list.AppendChild(exportItem(b))
	}

	var sb strings.Builder
	for _, n := range out {
		if err := html.Render(&sb, n); err != nil {
			continue
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// listKind merges bullet and checkbox items into one unordered list.
func listKind(t document.BlockType) document.BlockType {
	if t == document.Number {
		return document.Number
	}
	return document.Bullet
}

func listTag(kind document.BlockType) string {
	if kind == document.Number {
		return "ol"
	}
	return "ul"
}

func exportItem(b document.Block) *html.Node {
	li := surface.NewElement("li")
	if b.Attributes.Indent > 0 {
		surface.SetAttr(li, "data-indent", strconv.Itoa(b.Attributes.Indent))
	}
	if b.Type == document.Checkbox {
		box := surface.NewElement("input", html.Attribute{Key: "type", Val: "checkbox"})
		if b.Attributes.Checked {
			surface.SetAttr(box, "checked", "")
		}
		li.AppendChild(box)
	}
	appendAll(li, richtext.RenderNodes(b.Content))
	return li
}

func exportBlock(b document.Block) *html.Node {
	if lvl := b.Type.HeadingLevel(); lvl > 0 {
		return wrap("h"+strconv.Itoa(lvl), richtext.RenderNodes(b.Content))
	}

	switch b.Type {
	case document.Quote:
		return wrap("blockquote", richtext.RenderNodes(b.Content))
	case document.CodeBlock:
		code := surface.NewElement("code")
		if b.Attributes.Language != "" {
			surface.SetAttr(code, "class", "language-"+b.Attributes.Language)
		}
		code.AppendChild(surface.NewText(b.Text()))
		pre := surface.NewElement("pre")
		pre.AppendChild(code)
		return pre
	case document.Math:
		div := surface.NewElement("div", html.Attribute{Key: "class", Val: "math"})
		div.AppendChild(surface.NewText(b.Text()))
		return div
	case document.Image:
		img := surface.NewElement("img",
			html.Attribute{Key: "src", Val: b.Attributes.Src},
			html.Attribute{Key: "alt", Val: b.Attributes.Alt})
		if b.Attributes.Caption != "" {
			surface.SetAttr(img, "title", b.Attributes.Caption)
		}
		return img
	case document.Table:
		return exportTable(b.Attributes.ShapeTable())
	case document.Divider:
		return surface.NewElement("hr")
	}
	return wrap("p", richtext.RenderNodes(b.Content))
}

func exportTable(a document.Attributes) *html.Node {
	table := surface.NewElement("table")
	body := surface.NewElement("tbody")
	table.AppendChild(body)
	for _, row := range a.Cells {
		tr := surface.NewElement("tr")
		for _, cell := range row {
			tr.AppendChild(wrap("td", []*html.Node{surface.NewText(cell)}))
		}
		body.AppendChild(tr)
	}
	return table
}

func wrap(tag string, children []*html.Node) *html.Node {
	el := surface.NewElement(tag)
	appendAll(el, children)
	return el
}

func appendAll(parent *html.Node, children []*html.Node) {
	for _, c := range children {
		parent.AppendChild(c)
	}
}
