package richtext

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render converts content to inline HTML markup.
func Render(c Content) string {
	var sb strings.Builder
	for _, n := range RenderNodes(c) {
		_ = html.Render(&sb, n)
	}
	return sb.String()
}

// RenderNodes converts content to detached inline nodes.
//
// Text is split at every range boundary and walked left to right. Each
// segment is emitted inside the elements of the ranges covering it; an
// element stays open for as long as its range keeps covering the following
// segments, so a long bold range around a short italic one produces a
// single strong element.
func RenderNodes(c Content) []*html.Node {
	runes := []rune(c.Text)
	styles := Normalize(c.Styles, len(runes))
	container := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}

	if len(styles) == 0 {
		if len(runes) > 0 {
			container.AppendChild(textNode(c.Text))
		}
		return detachChildren(container)
	}

	points := boundaries(styles, len(runes))
	type open struct {
		rng  StyleRange
		node *html.Node
	}
	var stack []open

	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		active := activeRanges(styles, from, to)

		k := 0
		for k < len(stack) && k < len(active) && stack[k].rng == active[k] {
			k++
		}
		stack = stack[:k]

		parent := container
		if k > 0 {
			parent = stack[k-1].node
		}
		for _, r := range active[k:] {
			el := styleElement(r)
			parent.AppendChild(el)
			stack = append(stack, open{rng: r, node: el})
			parent = el
		}
		parent.AppendChild(textNode(string(runes[from:to])))
	}
	return detachChildren(container)
}

// boundaries returns the sorted, distinct segment boundaries of the text.
func boundaries(styles []StyleRange, n int) []int {
	seen := map[int]bool{0: true, n: true}
	points := []int{0, n}
	for _, r := range styles {
		for _, p := range []int{r.Offset, r.End()} {
			if !seen[p] {
				seen[p] = true
				points = append(points, p)
			}
		}
	}
	sort.Ints(points)
	return points
}

// activeRanges returns the ranges covering [from, to), outermost first.
// Ranges that started earlier (and end later) nest outside the others.
func activeRanges(styles []StyleRange, from, to int) []StyleRange {
	var active []StyleRange
	for _, r := range styles {
		if r.Offset <= from && r.End() >= to {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.End() != b.End() {
			return a.End() > b.End()
		}
		return styleRank[a.Style] < styleRank[b.Style]
	})
	return active
}

func styleElement(r StyleRange) *html.Node {
	el := &html.Node{Type: html.ElementNode}
	switch r.Style {
	case Bold:
		el.Data, el.DataAtom = "strong", atom.Strong
	case Italic:
		el.Data, el.DataAtom = "em", atom.Em
	case Strikethrough:
		el.Data, el.DataAtom = "s", atom.S
	case Code:
		el.Data, el.DataAtom = "code", atom.Code
	case Link:
		el.Data, el.DataAtom = "a", atom.A
		el.Attr = []html.Attribute{{Key: "href", Val: r.Href}}
	}
	return el
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func detachChildren(parent *html.Node) []*html.Node {
	var out []*html.Node
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out
}

// Parse converts inline markup to content. It never fails: markup the
// tokenizer cannot handle is returned as literal text.
func Parse(markup string) Content {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return Plain(SanitizeText(markup))
	}
	return ParseNodes(nodes)
}

// ParseNodes walks the given nodes depth first and collects their text and
// recognized inline styles.
func ParseNodes(nodes []*html.Node) Content {
	var p parser
	for _, n := range nodes {
		p.walk(n)
	}
	styles := Normalize(p.styles, p.length)
	return Sanitize(Content{Text: p.text.String(), Styles: styles, Rich: len(styles) > 0})
}

type parser struct {
	text   strings.Builder
	length int
	styles []StyleRange
}

func (p *parser) appendText(s string) {
	p.text.WriteString(s)
	p.length += utf8.RuneCountInString(s)
}

func (p *parser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.appendText(n.Data)
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			p.appendText("\n")
			return
		case atom.Script, atom.Style, atom.Template:
			return
		}
		start := p.length
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c)
		}
		if style, href, ok := styleOf(n); ok && p.length > start {
			p.styles = append(p.styles, StyleRange{
				Offset: start,
				Length: p.length - start,
				Style:  style,
				Href:   href,
			})
		}
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c)
		}
	}
}

// styleOf maps an element to the inline style it represents.
func styleOf(n *html.Node) (Style, string, bool) {
	switch n.DataAtom {
	case atom.Strong, atom.B:
		return Bold, "", true
	case atom.Em, atom.I:
		return Italic, "", true
	case atom.S, atom.Strike, atom.Del:
		return Strikethrough, "", true
	case atom.Code:
		return Code, "", true
	case atom.A:
		for _, a := range n.Attr {
			if a.Key == "href" {
				return Link, a.Val, true
			}
		}
	}
	return "", "", false
}
