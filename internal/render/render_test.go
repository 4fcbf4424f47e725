package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/highlight"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
	"github.com/dshills/blockedit/internal/surface"
)

type fixture struct {
	doc      *document.Model
	surf     *surface.Surface
	adapter  *selection.Adapter
	renderer *Renderer
	sync     *Sync
}

func newFixture(t *testing.T, c Collaborators, blocks ...document.Block) *fixture {
	t.Helper()
	doc := document.New(document.WithBlocks(blocks...))
	surf := surface.New()
	adapter := selection.NewAdapter(surf)
	r := NewRenderer(DefaultRegistry(c), adapter, nil)
	return &fixture{
		doc:      doc,
		surf:     surf,
		adapter:  adapter,
		renderer: r,
		sync:     Attach(doc, surf, r, nil),
	}
}

func markup(t *testing.T, n *html.Node) string {
	t.Helper()
	s, err := surface.RenderNode(n)
	require.NoError(t, err)
	return s
}

func TestUnknownTypeFallsBackWithWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRenderer(DefaultRegistry(Collaborators{Logger: zap.New(core)}), nil, nil)

	b := document.NewTextBlock(document.BlockType("callout"), "hi")
	el := r.Render(b)

	assert.Equal(t, "p", el.Data)
	assert.Equal(t, "hi", surface.TextContent(el))
	assert.Equal(t, 1, logs.FilterMessageSnippet("no strategy").Len())
}

func TestRegistriesArePerInstance(t *testing.T) {
	a := DefaultRegistry(Collaborators{})
	b := DefaultRegistry(Collaborators{})
	a.Register(document.Paragraph, TextStrategy{Tag: "section"})

	blk := document.NewTextBlock(document.Paragraph, "x")
	assert.Equal(t, "section", a.Lookup(document.Paragraph).Render(blk).Data)
	assert.Equal(t, "p", b.Lookup(document.Paragraph).Render(blk).Data)
}

func TestRenderTextBlocks(t *testing.T) {
	r := NewRenderer(DefaultRegistry(Collaborators{}), nil, nil)
	tests := []struct {
		typ  document.BlockType
		want string
	}{
		{document.Paragraph, "<p "},
		{document.Heading2, "<h2 "},
		{document.Quote, "<blockquote "},
		{document.Bullet, `<li `},
		{document.Divider, "<hr "},
	}
	for _, tt := range tests {
		b := document.NewTextBlock(tt.typ, "x")
		got := markup(t, r.Render(b))
		assert.True(t, strings.HasPrefix(got, tt.want), "%s rendered as %s", tt.typ, got)
		assert.Contains(t, got, `data-block-id="`+b.ID+`"`)
		assert.Contains(t, got, `data-block-type="`+string(tt.typ)+`"`)
	}
}

func TestUpdateRewritesOnlyOnDifference(t *testing.T) {
	b := document.NewTextBlock(document.Paragraph, "hello world")
	f := newFixture(t, Collaborators{}, b)
	el := f.surf.Element(b.ID)

	res, err := f.renderer.Update(el, b)
	require.NoError(t, err)
	assert.False(t, res.Rewritten)

	require.True(t, f.adapter.RestoreCaret(b.ID, 4))
	b.Content, _ = richtext.Apply(b.Content, 0, 5, richtext.Bold, "")
	res, err = f.renderer.Update(el, b)
	require.NoError(t, err)
	assert.True(t, res.Rewritten)
	assert.True(t, res.CaretRestored)
	off, ok := f.adapter.SaveCaret(b.ID)
	require.True(t, ok)
	assert.Equal(t, 4, off)
	assert.Equal(t, `<strong>hello</strong> world`, surface.InnerHTML(el))
}

func TestCaretFallsBackToEnd(t *testing.T) {
	b := document.NewTextBlock(document.Paragraph, "hello world")
	f := newFixture(t, Collaborators{}, b)
	el := f.surf.Element(b.ID)
	require.True(t, f.adapter.RestoreCaret(b.ID, 10))

	b.Content = richtext.Plain("hi")
	res, err := f.renderer.Update(el, b)
	require.NoError(t, err)
	assert.True(t, res.Rewritten)
	assert.False(t, res.CaretRestored)
	off, ok := f.adapter.SaveCaret(b.ID)
	require.True(t, ok)
	assert.Equal(t, 2, off)
}

func TestTypeChangeReplacesFragment(t *testing.T) {
	b := document.NewTextBlock(document.Paragraph, "title")
	f := newFixture(t, Collaborators{}, b)
	old := f.surf.Element(b.ID)

	require.True(t, f.doc.ChangeType(b.ID, document.Heading1))
	el := f.surf.Element(b.ID)
	assert.NotSame(t, old, el)
	assert.Equal(t, "h1", el.Data)
	assert.Equal(t, "title", surface.TextContent(el))
}

func TestCheckboxToggle(t *testing.T) {
	b := document.NewTextBlock(document.Checkbox, "task")
	f := newFixture(t, Collaborators{}, b)

	require.True(t, f.doc.SetAttributes(b.ID, document.Attributes{Checked: true}))
	el := f.surf.Element(b.ID)
	checked, _ := surface.Attr(el, "data-checked")
	assert.Equal(t, "true", checked)
	_, has := surface.Attr(surface.Checkbox(el), "checked")
	assert.True(t, has)
	assert.Equal(t, "task", surface.TextContent(surface.Editable(el)))

	require.True(t, f.doc.Undo())
	_, has = surface.Attr(surface.Checkbox(f.surf.Element(b.ID)), "checked")
	assert.False(t, has)
}

func TestCodeRehighlightsOnLanguageChange(t *testing.T) {
	b := document.CreateBlock(document.CodeBlock, richtext.Plain("return nil"), document.Attributes{})
	f := newFixture(t, Collaborators{Highlighter: highlight.NewRegistry()}, b)
	el := f.surf.Element(b.ID)
	assert.NotContains(t, markup(t, el), "tok-keyword")

	require.True(t, f.doc.SetAttributes(b.ID, document.Attributes{Language: "go"}))
	el = f.surf.Element(b.ID)
	got := markup(t, el)
	assert.Contains(t, got, `data-language="go"`)
	assert.Contains(t, got, `<span class="tok-keyword">return</span>`)
	assert.Equal(t, "return nil", surface.TextContent(surface.Editable(el)))
}

func TestCodeUnknownLanguageShowsSource(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	b := document.CreateBlock(document.CodeBlock, richtext.Plain("x <- 1"), document.Attributes{Language: "r"})
	f := newFixture(t, Collaborators{Highlighter: highlight.NewRegistry(), Logger: zap.New(core)}, b)

	el := surface.Editable(f.surf.Element(b.ID))
	assert.Equal(t, "x &lt;- 1", surface.InnerHTML(el))
	assert.Equal(t, 1, logs.FilterMessageSnippet("highlight failed").Len())
}

type fakeFormula struct {
	calls int
	err   error
}

func (f *fakeFormula) Render(source string, target *html.Node, _ FormulaOptions) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	target.AppendChild(surface.NewText("typeset:" + source))
	return nil
}

func TestMathRetypesetsOnChange(t *testing.T) {
	formula := &fakeFormula{}
	b := document.NewTextBlock(document.Math, "x^2")
	f := newFixture(t, Collaborators{Formula: formula}, b)
	assert.Equal(t, 1, formula.calls)

	require.True(t, f.doc.SetAttributes(b.ID, document.Attributes{Indent: 1}))
	assert.Equal(t, 1, formula.calls, "unchanged source must not re-typeset")

	require.True(t, f.doc.SetContent(b.ID, richtext.Plain("y^3")))
	assert.Equal(t, 2, formula.calls)
	el := f.surf.Element(b.ID)
	assert.Contains(t, surface.TextContent(el), "typeset:y^3")
	v, _ := surface.Attr(el, "data-formula")
	assert.Equal(t, "y^3", v)
}

func TestMathFailureShowsSource(t *testing.T) {
	formula := &fakeFormula{err: errors.New("bad formula")}
	b := document.NewTextBlock(document.Math, `\frac{`)
	f := newFixture(t, Collaborators{Formula: formula}, b)

	out := surface.ChildAt(f.surf.Element(b.ID), 1)
	assert.Equal(t, `\frac{`, surface.TextContent(out))
}

func TestTableGridInPlace(t *testing.T) {
	b := document.CreateBlock(document.Table, richtext.Content{}, document.Attributes{})
	f := newFixture(t, Collaborators{}, b)
	el := f.surf.Element(b.ID)
	firstRow := surface.ElementChildren(surface.ElementChildren(el)[0])[0]

	attrs := document.Attributes{Rows: 3, Cols: 3, Cells: [][]string{{"a", "b", "c"}}}
	require.True(t, f.doc.SetAttributes(b.ID, attrs))

	assert.Same(t, el, f.surf.Element(b.ID))
	body := surface.ElementChildren(el)[0]
	rows := surface.ElementChildren(body)
	require.Len(t, rows, 3)
	assert.Same(t, firstRow, rows[0])
	assert.Len(t, surface.ElementChildren(rows[2]), 3)
	assert.Equal(t, "abc", surface.TextContent(rows[0]))

	require.True(t, f.doc.SetAttributes(b.ID, document.Attributes{Rows: 1, Cols: 1}))
	rows = surface.ElementChildren(body)
	require.Len(t, rows, 1)
	assert.Len(t, surface.ElementChildren(rows[0]), 1)
}

func TestImageAttributes(t *testing.T) {
	b := document.CreateBlock(document.Image, richtext.Content{}, document.Attributes{Src: "a.png", Alt: "A"})
	f := newFixture(t, Collaborators{}, b)

	require.True(t, f.doc.SetAttributes(b.ID, document.Attributes{Src: "b.png", Alt: "B", Caption: "cap"}))
	got := markup(t, f.surf.Element(b.ID))
	assert.Contains(t, got, `src="b.png"`)
	assert.Contains(t, got, `alt="B"`)
	assert.Contains(t, got, `<figcaption>cap</figcaption>`)
}

func TestSyncFollowsModel(t *testing.T) {
	a := document.NewTextBlock(document.Paragraph, "A")
	f := newFixture(t, Collaborators{}, a)

	b := document.NewTextBlock(document.Paragraph, "B")
	c := document.NewTextBlock(document.Paragraph, "C")
	f.doc.InsertBlock(b)
	f.doc.InsertBlock(c, 1)
	assert.Equal(t, []string{"A", "C", "B"}, surfaceTexts(f.surf))

	f.doc.MoveBlock(a.ID, 2)
	assert.Equal(t, []string{"C", "B", "A"}, surfaceTexts(f.surf))

	f.doc.DeleteBlock(b.ID)
	assert.Equal(t, []string{"C", "A"}, surfaceTexts(f.surf))

	for f.doc.Undo() {
	}
	assert.Equal(t, []string{"A"}, surfaceTexts(f.surf))
	for f.doc.Redo() {
	}
	assert.Equal(t, []string{"C", "A"}, surfaceTexts(f.surf))
}

func TestSyncBatchUndo(t *testing.T) {
	a := document.NewTextBlock(document.Paragraph, "A")
	f := newFixture(t, Collaborators{}, a)

	x := document.NewTextBlock(document.Paragraph, "X")
	f.doc.Batch("paste", func() {
		f.doc.InsertBlock(x)
		f.doc.SetContent(x.ID, richtext.Plain("XY"))
	})
	assert.Equal(t, []string{"A", "XY"}, surfaceTexts(f.surf))

	require.True(t, f.doc.Undo())
	assert.Equal(t, []string{"A"}, surfaceTexts(f.surf))
	require.True(t, f.doc.Redo())
	assert.Equal(t, []string{"A", "XY"}, surfaceTexts(f.surf))
}

func TestNumbering(t *testing.T) {
	blocks := []document.Block{
		document.NewTextBlock(document.Number, "one"),
		document.NewTextBlock(document.Number, "two"),
		document.NewTextBlock(document.Paragraph, "break"),
		document.NewTextBlock(document.Number, "again"),
	}
	f := newFixture(t, Collaborators{}, blocks...)
	assert.Equal(t, []string{"1", "2", "", "1"}, numbers(f))

	f.doc.ChangeType(blocks[2].ID, document.Number)
	assert.Equal(t, []string{"1", "2", "3", "4"}, numbers(f))
}

func numbers(f *fixture) []string {
	var out []string
	for _, el := range f.surf.Elements() {
		v, _ := surface.Attr(el, "value")
		out = append(out, v)
	}
	return out
}

func surfaceTexts(s *surface.Surface) []string {
	var out []string
	for _, el := range s.Elements() {
		out = append(out, surface.TextContent(el))
	}
	return out
}
