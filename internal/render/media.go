package render

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/surface"
)

// ErrMalformedFragment is returned by Update when a fragment lacks the
// structure its strategy rendered. Callers re-render the block.
var ErrMalformedFragment = errors.New("malformed block fragment")

func errMalformed(b document.Block, kind string) error {
	return fmt.Errorf("%w: %s block %s", ErrMalformedFragment, kind, b.ID)
}

// CodeStrategy renders code blocks, highlighted when a highlighter knows
// the language.
type CodeStrategy struct {
	Highlighter Highlighter
	Logger      *zap.Logger
}

// Render implements Strategy.
func (s *CodeStrategy) Render(b document.Block) *html.Node {
	pre := element("pre", b, false)
	code := surface.NewElement("code", html.Attribute{Key: surface.AttrEditable, Val: "true"})
	pre.AppendChild(code)
	setLanguage(pre, code, b.Attributes.Language)
	s.highlight(code, b, true)
	return pre
}

// Update implements Strategy. The source is re-highlighted and the code
// element rewritten only when the resulting markup differs.
func (s *CodeStrategy) Update(pre *html.Node, b document.Block) (bool, error) {
	code := firstChildElement(pre, atom.Code)
	if code == nil {
		return false, errMalformed(b, "code")
	}
	lang, _ := surface.Attr(pre, "data-language")
	langChanged := lang != b.Attributes.Language
	setLanguage(pre, code, b.Attributes.Language)

	fresh := surface.NewElement("code")
	s.highlight(fresh, b, langChanged)
	if !langChanged && surface.InnerHTML(fresh) == surface.InnerHTML(code) {
		return false, nil
	}
	var nodes []*html.Node
	for c := fresh.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	surface.SetChildren(code, nodes...)
	return true, nil
}

func setLanguage(pre, code *html.Node, lang string) {
	if lang != "" {
		surface.SetAttr(pre, "data-language", lang)
		surface.SetAttr(code, "class", "language-"+lang)
		return
	}
	surface.RemoveAttr(pre, "data-language")
	surface.RemoveAttr(code, "class")
}

func (s *CodeStrategy) highlight(code *html.Node, b document.Block, warn bool) {
	lang := b.Attributes.Language
	if s.Highlighter != nil && lang != "" {
		err := s.Highlighter.Highlight(b.Text(), lang, code)
		if err == nil {
			return
		}
		if warn && s.Logger != nil {
			s.Logger.Warn("highlight failed, showing source",
				zap.String("block", b.ID), zap.String("language", lang), zap.Error(err))
		}
	}
	setLiteral(code, b.Text())
}

func setLiteral(el *html.Node, text string) {
	if text == "" {
		surface.SetChildren(el)
		return
	}
	surface.SetChildren(el, surface.NewText(text))
}

// MathStrategy renders a formula as an editable source line followed by
// its typeset form.
type MathStrategy struct {
	Formula FormulaRenderer
	Logger  *zap.Logger
}

// Render implements Strategy.
func (s *MathStrategy) Render(b document.Block) *html.Node {
	el := element("div", b, false)
	surface.SetAttr(el, "class", "math")
	src := surface.NewElement("div",
		html.Attribute{Key: "class", Val: "math-source"},
		html.Attribute{Key: surface.AttrEditable, Val: "true"},
	)
	out := surface.NewElement("div",
		html.Attribute{Key: "class", Val: "math-render"},
		html.Attribute{Key: surface.AttrEditable, Val: "false"},
	)
	el.AppendChild(src)
	el.AppendChild(out)
	setLiteral(src, b.Text())
	s.typeset(el, out, b)
	return el
}

// Update implements Strategy. The formula is re-typeset only when its
// source changed.
func (s *MathStrategy) Update(el *html.Node, b document.Block) (bool, error) {
	src := surface.Editable(el)
	out := surface.ChildAt(el, 1)
	if src == nil || out == nil {
		return false, errMalformed(b, "math")
	}
	if formula, _ := surface.Attr(el, "data-formula"); formula == b.Text() {
		return false, nil
	}
	changed := syncText(src, b.Text())
	s.typeset(el, out, b)
	return changed, nil
}

func (s *MathStrategy) typeset(el, out *html.Node, b document.Block) {
	source := b.Text()
	surface.SetAttr(el, "data-formula", source)
	surface.SetChildren(out)
	if s.Formula == nil || source == "" {
		setLiteral(out, source)
		return
	}
	if err := s.Formula.Render(source, out, FormulaOptions{Display: true}); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("formula render failed, showing source",
				zap.String("block", b.ID), zap.Error(err))
		}
		setLiteral(out, source)
	}
}

// ImageStrategy renders a figure with an optional caption.
type ImageStrategy struct{}

// Render implements Strategy.
func (ImageStrategy) Render(b document.Block) *html.Node {
	fig := element("figure", b, false)
	fig.AppendChild(surface.NewElement("img"))
	syncImage(fig, b.Attributes)
	return fig
}

// Update implements Strategy.
func (ImageStrategy) Update(fig *html.Node, b document.Block) (bool, error) {
	if firstChildElement(fig, atom.Img) == nil {
		return false, errMalformed(b, "image")
	}
	syncImage(fig, b.Attributes)
	return false, nil
}

func syncImage(fig *html.Node, a document.Attributes) {
	img := firstChildElement(fig, atom.Img)
	surface.SetAttr(img, "src", a.Src)
	surface.SetAttr(img, "alt", a.Alt)

	caption := firstChildElement(fig, atom.Figcaption)
	switch {
	case a.Caption == "" && caption != nil:
		fig.RemoveChild(caption)
	case a.Caption != "" && caption == nil:
		caption = surface.NewElement("figcaption")
		fig.AppendChild(caption)
		fallthrough
	case a.Caption != "":
		syncText(caption, a.Caption)
	}
}

// TableStrategy renders a grid of editable cells. Updates add and remove
// rows and cells in place rather than rebuilding the table.
type TableStrategy struct{}

// Render implements Strategy.
func (TableStrategy) Render(b document.Block) *html.Node {
	table := element("table", b, false)
	table.AppendChild(surface.NewElement("tbody"))
	syncTable(table, b.Attributes.ShapeTable())
	return table
}

// Update implements Strategy.
func (TableStrategy) Update(table *html.Node, b document.Block) (bool, error) {
	if firstChildElement(table, atom.Tbody) == nil {
		return false, errMalformed(b, "table")
	}
	return syncTable(table, b.Attributes.ShapeTable()), nil
}

func syncTable(table *html.Node, a document.Attributes) bool {
	body := firstChildElement(table, atom.Tbody)
	changed := false

	rows := surface.ElementChildren(body)
	for len(rows) > a.Rows {
		body.RemoveChild(rows[len(rows)-1])
		rows = rows[:len(rows)-1]
		changed = true
	}
	for len(rows) < a.Rows {
		tr := surface.NewElement("tr")
		body.AppendChild(tr)
		rows = append(rows, tr)
		changed = true
	}

	for r, tr := range rows {
		cells := surface.ElementChildren(tr)
		for len(cells) > a.Cols {
			tr.RemoveChild(cells[len(cells)-1])
			cells = cells[:len(cells)-1]
			changed = true
		}
		for len(cells) < a.Cols {
			td := surface.NewElement("td", html.Attribute{Key: surface.AttrEditable, Val: "true"})
			tr.AppendChild(td)
			cells = append(cells, td)
			changed = true
		}
		for c, td := range cells {
			if syncText(td, a.Cells[r][c]) {
				changed = true
			}
		}
	}
	surface.SetAttr(table, "data-rows", fmt.Sprint(a.Rows))
	surface.SetAttr(table, "data-cols", fmt.Sprint(a.Cols))
	return changed
}
