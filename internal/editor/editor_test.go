package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blockedit/internal/config"
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/input/key"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
	"github.com/dshills/blockedit/internal/storage"
)

// fakeStore records saves and can be told to fail.
type fakeStore struct {
	mu    sync.Mutex
	docs  map[string]document.Document
	saves []document.Document
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]document.Document{}}
}

func (s *fakeStore) LoadDocument(_ context.Context, id string) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := doc.Clone()
	return &out, nil
}

func (s *fakeStore) SaveDocument(_ context.Context, id string, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.docs[id] = doc.Clone()
	s.saves = append(s.saves, doc.Clone())
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) lastSave() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[len(s.saves)-1]
}

func paragraph(text string) document.Block {
	return document.NewTextBlock(document.Paragraph, text)
}

func newEditor(t *testing.T, blocks []document.Block, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithBlocks(blocks...), WithPlatform("linux")}, opts...)
	e := New(opts...)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func blockAt(t *testing.T, e *Editor, i int) document.Block {
	t.Helper()
	b, ok := e.Document().At(i)
	require.True(t, ok, "no block at %d", i)
	return b
}

func TestNewStartsWithEmptyParagraph(t *testing.T) {
	e := New()
	defer e.Close(context.Background())

	require.Equal(t, 1, e.Document().Len())
	b := blockAt(t, e, 0)
	assert.Equal(t, document.Paragraph, b.Type)
	assert.True(t, b.IsEmpty())
	assert.NotEmpty(t, e.ID())
}

func TestToggleStyle(t *testing.T) {
	p := paragraph("hello world")
	e := newEditor(t, []document.Block{p})

	require.True(t, e.Select(selection.Range(p.ID, 0, 5)))
	require.True(t, e.ExecuteCommand(CmdBold))

	b := blockAt(t, e, 0)
	assert.True(t, richtext.Covered(b.Content, 0, 5, richtext.Bold))
	assert.False(t, richtext.Covered(b.Content, 5, 1, richtext.Bold))
	assert.True(t, e.State().Active(richtext.Bold))

	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, selection.Range(p.ID, 0, 5), sel)

	require.True(t, e.ExecuteCommand(CmdBold))
	assert.Empty(t, blockAt(t, e, 0).Content.Styles)
}

func TestToggleStyleNeedsRange(t *testing.T) {
	p := paragraph("hello")
	e := newEditor(t, []document.Block{p})

	assert.False(t, e.ExecuteCommand(CmdItalic), "no focus")
	require.True(t, e.Focus(p.ID, 2))
	assert.False(t, e.ExecuteCommand(CmdItalic), "collapsed")
}

func TestToggleStyleAcrossBlocks(t *testing.T) {
	a, c := paragraph("first"), paragraph("second")
	code := document.CreateBlock(document.CodeBlock, richtext.Plain("x := 1"), document.Attributes{})
	e := newEditor(t, []document.Block{a, code, c})

	require.True(t, e.Select(selection.Selection{
		BlockID:      a.ID,
		AnchorOffset: 2,
		FocusBlockID: c.ID,
		FocusOffset:  3,
	}))
	require.True(t, e.ExecuteCommand(CmdItalic))

	assert.True(t, richtext.Covered(blockAt(t, e, 0).Content, 2, 3, richtext.Italic))
	assert.Empty(t, blockAt(t, e, 1).Content.Styles, "code blocks take no styles")
	assert.True(t, richtext.Covered(blockAt(t, e, 2).Content, 0, 3, richtext.Italic))

	require.True(t, e.ExecuteCommand(CmdUndo))
	assert.Empty(t, blockAt(t, e, 0).Content.Styles)
	assert.Empty(t, blockAt(t, e, 2).Content.Styles)
}

func TestLink(t *testing.T) {
	p := paragraph("see docs")
	prompted := ""
	e := newEditor(t, []document.Block{p}, WithLinkPrompt(func(current string) (string, bool) {
		prompted = current
		return "https://b.example", true
	}))

	require.True(t, e.Select(selection.Range(p.ID, 4, 8)))
	require.True(t, e.ExecuteCommand(CmdLink, "https://a.example"))
	styles := blockAt(t, e, 0).Content.Styles
	require.Len(t, styles, 1)
	assert.Equal(t, richtext.StyleRange{Offset: 4, Length: 4, Style: richtext.Link, Href: "https://a.example"}, styles[0])

	require.True(t, e.ExecuteCommand(CmdLink))
	assert.Equal(t, "https://a.example", prompted)
	assert.Equal(t, "https://b.example", blockAt(t, e, 0).Content.Styles[0].Href)

	require.True(t, e.ExecuteCommand(CmdLink, ""))
	assert.Empty(t, blockAt(t, e, 0).Content.Styles)
}

func TestLinkPromptCancelled(t *testing.T) {
	p := paragraph("text")
	e := newEditor(t, []document.Block{p}, WithLinkPrompt(func(string) (string, bool) {
		return "", false
	}))
	require.True(t, e.Select(selection.Range(p.ID, 0, 4)))
	assert.False(t, e.ExecuteCommand(CmdLink))
	assert.False(t, e.Document().CanUndo())
}

func TestBlockTypeCommand(t *testing.T) {
	p := paragraph("Title")
	e := newEditor(t, []document.Block{p})
	require.True(t, e.Focus(p.ID, 2))

	require.True(t, e.ExecuteCommand(CmdHeading1))
	assert.Equal(t, document.Heading1, blockAt(t, e, 0).Type)
	assert.Equal(t, document.Heading1, e.State().BlockType)

	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, selection.Caret(p.ID, 2), sel)

	require.True(t, e.ExecuteCommand(CmdHeading1), "toggles back")
	assert.Equal(t, document.Paragraph, blockAt(t, e, 0).Type)
	assert.False(t, e.ExecuteCommand(CmdParagraph))
}

func TestBlockTypeCommandOverRange(t *testing.T) {
	a, b, c := paragraph("a"), paragraph("b"), paragraph("c")
	e := newEditor(t, []document.Block{a, b, c})
	require.True(t, e.Select(selection.Selection{BlockID: a.ID, FocusBlockID: b.ID, FocusOffset: 1}))

	require.True(t, e.ExecuteCommand(CmdBullet))
	assert.Equal(t, document.Bullet, blockAt(t, e, 0).Type)
	assert.Equal(t, document.Bullet, blockAt(t, e, 1).Type)
	assert.Equal(t, document.Paragraph, blockAt(t, e, 2).Type)

	require.True(t, e.ExecuteCommand(CmdUndo))
	assert.Equal(t, document.Paragraph, blockAt(t, e, 0).Type)
	assert.Equal(t, document.Paragraph, blockAt(t, e, 1).Type)
}

func TestInsertCommands(t *testing.T) {
	p := paragraph("text")
	e := newEditor(t, []document.Block{p})
	require.True(t, e.Focus(p.ID, 0))

	require.True(t, e.ExecuteCommand(CmdDivider))
	require.Equal(t, 3, e.Document().Len())
	assert.Equal(t, document.Divider, blockAt(t, e, 1).Type)
	last := blockAt(t, e, 2)
	assert.Equal(t, document.Paragraph, last.Type)
	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, last.ID, sel.BlockID)

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.ExecuteCommand(CmdTable, "3x4"))
	table := blockAt(t, e, 1)
	assert.Equal(t, document.Table, table.Type)
	assert.Equal(t, 3, table.Attributes.Rows)
	assert.Equal(t, 4, table.Attributes.Cols)
	assert.False(t, e.ExecuteCommand(CmdTable, "wide"))
	assert.False(t, e.ExecuteCommand(CmdTable, "101x2"))
	assert.False(t, e.ExecuteCommand(CmdTable, "2x100000000"))
	assert.False(t, e.ExecuteCommand(CmdTable, "0x3"))
	assert.True(t, e.ExecuteCommand(CmdTable, "100x100"))
	assert.Len(t, blockAt(t, e, 1).Attributes.Cells, document.MaxTableSize)

	require.True(t, e.ExecuteCommand(CmdImage, "cat.png", "a cat"))
	img := blockAt(t, e, 1)
	assert.Equal(t, document.Image, img.Type)
	assert.Equal(t, "cat.png", img.Attributes.Src)
	assert.Equal(t, "a cat", img.Attributes.Alt)

	assert.False(t, e.ExecuteCommand("sparkle"))
}

func TestUndoRedoKeys(t *testing.T) {
	p := paragraph("")
	e := newEditor(t, []document.Block{p})
	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.TypeText("hi"))

	require.True(t, e.HandleKeyDown(key.FromDOM("z", key.ModCtrl)))
	assert.Equal(t, "", blockAt(t, e, 0).Text())
	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, selection.Caret(p.ID, 0), sel)

	require.True(t, e.HandleKeyDown(key.FromDOM("Z", key.ModCtrl|key.ModShift)))
	assert.Equal(t, "hi", blockAt(t, e, 0).Text())
	sel, _ = e.Selection()
	assert.Equal(t, selection.Caret(p.ID, 2), sel)

	assert.False(t, e.ExecuteCommand(CmdRedo))
}

func TestSelectAll(t *testing.T) {
	a, b := paragraph("one"), paragraph("two")
	e := newEditor(t, []document.Block{a, b})
	require.True(t, e.ExecuteCommand(CmdSelectAll))

	sel, ok := e.Selection()
	require.True(t, ok)
	assert.Equal(t, a.ID, sel.BlockID)
	assert.Equal(t, b.ID, sel.FocusBlockID)
	assert.Equal(t, 3, sel.FocusOffset)
}

func TestToolbarUpdates(t *testing.T) {
	p := paragraph("")
	var states []State
	e := newEditor(t, []document.Block{p}, WithToolbar(ToolbarFunc(func(s State) {
		states = append(states, s)
	})))

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.TypeText("x"))
	require.Len(t, states, 2)
	assert.True(t, states[0].Focused)
	assert.False(t, states[0].CanUndo)
	assert.True(t, states[1].CanUndo)
	assert.Equal(t, p.ID, states[1].BlockID)

	e.Blur()
	assert.False(t, states[len(states)-1].Focused)
}

func TestAutoSaveDebounces(t *testing.T) {
	store := newFakeStore()
	p := paragraph("")
	e := newEditor(t, []document.Block{p}, WithStorage(store), WithAutoSaveDelay(30*time.Millisecond))

	require.True(t, e.Focus(p.ID, 0))
	for _, r := range "abc" {
		require.True(t, e.TypeText(string(r)))
	}
	assert.True(t, e.Dirty())

	require.Eventually(t, func() bool { return store.saveCount() > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "abc", store.lastSave().Text())
	assert.Eventually(t, func() bool { return !e.Dirty() }, time.Second, 5*time.Millisecond)
}

func TestAutoSaveReportsErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	errs := make(chan error, 4)
	p := paragraph("")
	e := newEditor(t, []document.Block{p},
		WithStorage(store),
		WithAutoSaveDelay(10*time.Millisecond),
		WithOnSaveError(func(err error) { errs <- err }))

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.TypeText("a"))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, store.err)
	case <-time.After(time.Second):
		t.Fatal("save error not reported")
	}
	assert.True(t, e.Dirty())
}

// heldSave is a SaveDocument call waiting for its result.
type heldSave struct {
	doc    document.Document
	result chan error
}

// blockingStore holds every save until the test sends its result.
type blockingStore struct {
	*fakeStore
	held chan heldSave
}

func (s *blockingStore) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	h := heldSave{doc: doc.Clone(), result: make(chan error, 1)}
	s.held <- h
	if err := <-h.result; err != nil {
		return err
	}
	return s.fakeStore.SaveDocument(ctx, id, doc)
}

func nextSave(t *testing.T, store *blockingStore) heldSave {
	t.Helper()
	select {
	case h := <-store.held:
		return h
	case <-time.After(time.Second):
		t.Fatal("no save started")
		return heldSave{}
	}
}

func TestNewerSaveSupersedesRunningSave(t *testing.T) {
	store := &blockingStore{fakeStore: newFakeStore(), held: make(chan heldSave, 4)}
	errs := make(chan error, 4)
	p := paragraph("")
	e := newEditor(t, []document.Block{p},
		WithStorage(store),
		WithAutoSaveDelay(10*time.Millisecond),
		WithOnSaveError(func(err error) { errs <- err }))

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.TypeText("a"))
	first := nextSave(t, store)
	assert.Equal(t, "a", first.doc.Text())

	// Editing continues while the first save is in flight.
	require.True(t, e.TypeText("b"))
	assert.Equal(t, "ab", blockAt(t, e, 0).Text())
	assert.True(t, e.Dirty())

	second := nextSave(t, store)
	assert.Equal(t, "ab", second.doc.Text())
	assert.Greater(t, second.doc.Version, first.doc.Version)

	first.result <- errors.New("connection reset")
	second.result <- nil
	require.Eventually(t, func() bool { return !e.Dirty() }, time.Second, 5*time.Millisecond)
	require.NoError(t, e.Close(context.Background()))

	select {
	case err := <-errs:
		t.Fatalf("superseded save reported: %v", err)
	default:
	}
	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "ab", store.lastSave().Text())
}

func TestCloseFlushesPendingSave(t *testing.T) {
	store := newFakeStore()
	p := paragraph("")
	e := New(WithBlocks(p), WithStorage(store), WithAutoSaveDelay(time.Hour))

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.TypeText("late"))
	require.NoError(t, e.Close(context.Background()))

	assert.Equal(t, 1, store.saveCount())
	assert.Equal(t, "late", store.lastSave().Text())
	assert.ErrorIs(t, e.Save(context.Background()), ErrClosed)
	assert.NoError(t, e.Close(context.Background()))
}

func TestSaveWithoutStorage(t *testing.T) {
	e := newEditor(t, nil)
	assert.ErrorIs(t, e.Save(context.Background()), ErrNoStorage)
	_, err := e.Load(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestLoad(t *testing.T) {
	store := newFakeStore()
	stored := document.Document{
		ID:      "notes",
		Version: 7,
		Blocks:  []document.Block{document.NewTextBlock(document.Heading2, "Notes")},
	}
	store.docs["notes"] = stored
	e := newEditor(t, nil, WithStorage(store), WithAutoSaveDelay(10*time.Millisecond))
	before := e.ID()

	ok, err := e.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, e.ID())

	ok, err = e.Load(context.Background(), "notes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "notes", e.ID())
	assert.Equal(t, "Notes", blockAt(t, e, 0).Text())
	assert.False(t, e.Dirty())
	assert.False(t, e.Document().CanUndo())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, store.saveCount(), "loading is not an edit")
}

func TestSetContentKeepsID(t *testing.T) {
	e := newEditor(t, nil, WithID("mine"))
	e.SetContent(document.Document{
		ID:     "theirs",
		Blocks: []document.Block{paragraph("replaced")},
	})
	assert.Equal(t, "mine", e.ID())
	assert.Equal(t, "replaced", e.GetContent().Text())
	assert.False(t, e.Document().CanUndo())
}

func TestSetContentAssignsBlockIDs(t *testing.T) {
	e := newEditor(t, nil)
	e.SetContent(document.Document{Blocks: []document.Block{
		{Type: document.Paragraph, Content: richtext.Plain("one")},
		{Type: document.Paragraph, Content: richtext.Plain("two")},
	}})

	blocks := e.GetContent().Blocks
	require.Len(t, blocks, 2)
	assert.NotEmpty(t, blocks[0].ID)
	assert.NotEmpty(t, blocks[1].ID)
	assert.NotEqual(t, blocks[0].ID, blocks[1].ID)
	assert.Equal(t, 2, e.Surface().Len())

	assert.False(t, e.DeleteBlock(""))
	require.True(t, e.DeleteBlock(blocks[0].ID))
	require.True(t, e.ExecuteCommand(CmdUndo))
	assert.Equal(t, "one", blockAt(t, e, 0).Text())
	assert.Equal(t, 2, e.Surface().Len())
}

func TestSetContentNeverLeavesDocumentEmpty(t *testing.T) {
	e := newEditor(t, nil)
	e.SetContentHTML("<div></div>")
	blocks := e.GetContent().Blocks
	require.Len(t, blocks, 1)
	assert.Equal(t, document.Paragraph, blocks[0].Type)
	assert.True(t, blocks[0].IsEmpty())

	e.SetContent(document.Document{})
	require.Len(t, e.GetContent().Blocks, 1)
	require.True(t, e.Focus(blockAt(t, e, 0).ID, 0))
	assert.True(t, e.TypeText("x"))
}

func TestSetContentAdvancesVersion(t *testing.T) {
	store := newFakeStore()
	e := newEditor(t, []document.Block{paragraph("a")}, WithStorage(store), WithAutoSaveDelay(time.Hour))
	require.True(t, e.InsertBlock(paragraph("b")))
	require.True(t, e.InsertBlock(paragraph("c")))
	require.NoError(t, e.Save(context.Background()))
	require.False(t, e.Dirty())
	v := e.GetContent().Version

	e.SetContent(document.Document{Version: v, Blocks: []document.Block{paragraph("new")}})
	assert.Greater(t, e.GetContent().Version, v)
	assert.True(t, e.Dirty())
}

func TestHTMLRoundTrip(t *testing.T) {
	e := newEditor(t, nil)
	e.SetContentHTML(`<h1>Title</h1><ul><li>a</li><li>b</li></ul><p>so <strong>bold</strong></p><hr>`)

	blocks := e.Document().Blocks()
	require.Len(t, blocks, 5)
	assert.Equal(t, document.Heading1, blocks[0].Type)
	assert.Equal(t, document.Bullet, blocks[1].Type)
	assert.Equal(t, document.Bullet, blocks[2].Type)
	assert.Equal(t, document.Divider, blocks[4].Type)

	out := e.ContentHTML()
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<ul><li>a</li><li>b</li></ul>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<hr/>")

	e.SetContentHTML(out)
	again := e.Document().Blocks()
	require.Len(t, again, len(blocks))
	for i := range blocks {
		assert.Equal(t, blocks[i].Type, again[i].Type)
		assert.Equal(t, blocks[i].Content, again[i].Content)
	}
}

func TestExportHTML(t *testing.T) {
	blocks := []document.Block{
		document.NewTextBlock(document.Number, "one"),
		document.NewTextBlock(document.Number, "two"),
		document.CreateBlock(document.Checkbox, richtext.Plain("done"), document.Attributes{Checked: true}),
		document.CreateBlock(document.CodeBlock, richtext.Plain("a < b"), document.Attributes{Language: "go"}),
		document.CreateBlock(document.Image, richtext.Content{}, document.Attributes{Src: "x.png", Alt: "x", Caption: "An x"}),
		document.CreateBlock(document.Table, richtext.Content{}, document.Attributes{Cells: [][]string{{"a", "b"}}}),
		document.NewTextBlock(document.Math, "e=mc^2"),
	}
	out := ExportHTML(blocks)

	assert.Contains(t, out, "<ol><li>one</li><li>two</li></ol>")
	assert.Contains(t, out, `<ul><li><input type="checkbox" checked=""/>done</li></ul>`)
	assert.Contains(t, out, `<pre><code class="language-go">a &lt; b</code></pre>`)
	assert.Contains(t, out, `<img src="x.png" alt="x" title="An x"/>`)
	assert.Contains(t, out, "<td>a</td><td>b</td>")
	assert.Contains(t, out, `<div class="math">e=mc^2</div>`)
	assert.Equal(t, 6, strings.Count(out, "\n"))
}

func TestKeymapFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: mine\nbindings:\n  - keys: Mod+B\n    action: italic\n"), 0o644))

	p := paragraph("word")
	e := newEditor(t, []document.Block{p}, WithKeymapFile(path, false))
	require.True(t, e.Select(selection.Range(p.ID, 0, 4)))
	require.True(t, e.HandleKeyDown(key.FromDOM("b", key.ModCtrl)))

	c := blockAt(t, e, 0).Content
	assert.True(t, richtext.Covered(c, 0, 4, richtext.Italic))
	assert.False(t, richtext.Covered(c, 0, 4, richtext.Bold))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Editor.HistorySize = 2
	cfg.Editor.Platform = "darwin"
	e := newEditor(t, []document.Block{paragraph("")}, FromConfig(cfg)...)

	assert.Equal(t, "darwin", e.Keymap().Platform())
	for range 3 {
		require.True(t, e.InsertBlock(paragraph("x")))
	}
	assert.Len(t, e.Document().History(), 2)
}

func TestSearchCommands(t *testing.T) {
	p := paragraph("hello")
	e := newEditor(t, []document.Block{p})

	matches := e.SearchCommands("bold", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, CmdBold, matches[0].Entry.Name)
	assert.Equal(t, []string{"Ctrl+B"}, matches[0].Entry.Keys)

	all := e.SearchCommands("", 0)
	assert.Len(t, all, len(Commands()))
	assert.Equal(t, CmdParagraph, all[0].Entry.Name)

	require.True(t, e.Focus(p.ID, 0))
	require.True(t, e.ExecuteCommand(CmdQuote))
	assert.Equal(t, CmdQuote, e.SearchCommands("", 0)[0].Entry.Name)
	assert.Equal(t, []string{CmdQuote}, e.palette.Recent())
	assert.Empty(t, e.SearchCommands("zzzz", 0))
}
