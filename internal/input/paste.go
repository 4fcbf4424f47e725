package input

import (
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/surface"
)

// Clipboard is the data offered by a paste.
type Clipboard interface {
	// GetData returns the clipboard text for a MIME type, or "".
	GetData(mime string) string
	// Files returns the files on the clipboard.
	Files() []File
}

// File is a pasted or dropped file.
type File interface {
	Name() string
	Type() string
	Read() ([]byte, error)
}

// MemFile is an in-memory File.
type MemFile struct {
	FileName string
	MIME     string
	Data     []byte
	Err      error
}

// Name implements File.
func (f MemFile) Name() string { return f.FileName }

// Type implements File.
func (f MemFile) Type() string { return f.MIME }

// Read implements File.
func (f MemFile) Read() ([]byte, error) { return f.Data, f.Err }

// MemClipboard is an in-memory Clipboard keyed by MIME type.
type MemClipboard struct {
	Data  map[string]string
	Items []File
}

// GetData implements Clipboard.
func (c MemClipboard) GetData(mime string) string { return c.Data[mime] }

// Files implements Clipboard.
func (c MemClipboard) Files() []File { return c.Items }

// Paste inserts clipboard content at the caret. Image files win over
// HTML, which wins over plain text. It reports whether anything was
// pasted.
func (h *Handler) Paste(clip Clipboard) bool {
	if h.insertImages(clip.Files()) {
		return true
	}
	if markup := clip.GetData("text/html"); strings.TrimSpace(markup) != "" {
		blocks := ParseHTML(markup, h.logger)
		if len(blocks) > 0 {
			return h.insertBlocks(blocks)
		}
	}
	text := clip.GetData("text/plain")
	if text == "" {
		return false
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.Contains(text, "\n") {
		return h.TypeText(text)
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	blocks := make([]document.Block, len(lines))
	for i, line := range lines {
		blocks[i] = document.NewTextBlock(document.Paragraph, line)
	}
	return h.insertBlocks(blocks)
}

// Drop inserts dropped image files. Other files are ignored.
func (h *Handler) Drop(files []File) bool {
	return h.insertImages(files)
}

// insertBlocks inserts pasted blocks after the current block as one undo
// step. A single paragraph is spliced into the current block instead, and
// an empty current paragraph is replaced by the first block.
func (h *Handler) insertBlocks(blocks []document.Block) bool {
	var last string
	lastLen := 0
	h.doc.Batch("Paste", func() {
		cur, at, ok := h.caret()
		if !ok {
			for _, b := range blocks {
				h.doc.InsertBlock(b)
			}
			last, lastLen = blocks[len(blocks)-1].ID, blocks[len(blocks)-1].Len()
			return
		}

		if len(blocks) == 1 && blocks[0].Type == document.Paragraph && cur.Type.HasText() {
			c := blocks[0].Content
			if !cur.Type.SupportsInlineStyles() {
				c = richtext.Plain(c.Text)
			}
			head := richtext.Concat(richtext.Slice(cur.Content, 0, at), c)
			h.doc.SetContent(cur.ID, richtext.Concat(head, richtext.Slice(cur.Content, at, cur.Len())))
			last, lastLen = cur.ID, head.Len()
			return
		}

		idx := h.doc.IndexOf(cur.ID) + 1
		rest := blocks
		if cur.Type == document.Paragraph && cur.IsEmpty() {
			first := blocks[0]
			h.doc.UpdateBlock(cur.ID, document.BlockPatch{
				Type:       &first.Type,
				Content:    &first.Content,
				Attributes: &first.Attributes,
			})
			last, lastLen = cur.ID, first.Len()
			rest = blocks[1:]
		}
		for i, b := range rest {
			h.doc.InsertBlock(b, idx+i)
			last, lastLen = b.ID, b.Len()
		}
	})
	if last == "" {
		return false
	}
	h.sel.Focus(last, lastLen)
	return true
}

// insertImages starts reading every image file and reports whether there
// was one. Each completed read inserts an image block after the block
// that held the caret when the read started.
func (h *Handler) insertImages(files []File) bool {
	after := ""
	if sel, ok := h.sel.GetSelection(); ok {
		after = sel.FocusBlock()
	}
	started := false
	for _, f := range files {
		if !strings.HasPrefix(f.Type(), "image/") {
			continue
		}
		started = true
		h.reads.Add(1)
		go h.readImage(f, after)
	}
	return started
}

func (h *Handler) readImage(f File, after string) {
	data, err := f.Read()
	h.post(func() {
		defer h.reads.Done()
		if err != nil {
			h.logger.Warn("file read failed", zap.String("file", f.Name()), zap.Error(err))
			return
		}
		b := document.CreateBlock(document.Image, richtext.Content{}, document.Attributes{
			Src: DataURI(f.Type(), data),
			Alt: f.Name(),
		})
		if i := h.doc.IndexOf(after); i >= 0 {
			h.doc.InsertBlock(b, i+1)
		} else {
			h.doc.InsertBlock(b)
		}
	})
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseHTML converts pasted markup to blocks. Headings h1 to h4,
// blockquote, pre, list items of ul and ol, img, hr and p are kept; any
// other element becomes a paragraph of its text. Runs of inline content
// at the top level become one paragraph.
func ParseHTML(markup string, logger *zap.Logger) []document.Block {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		logger.Warn("paste markup unreadable, using text", zap.Error(err))
		return textBlocks(markup)
	}
	body := surface.FindElement(doc, atom.Body)
	if body == nil {
		return nil
	}

	p := pasteParser{logger: logger}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		p.node(c)
	}
	p.flush()
	return p.blocks
}

func textBlocks(text string) []document.Block {
	var out []document.Block
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, document.NewTextBlock(document.Paragraph, line))
		}
	}
	return out
}

type pasteParser struct {
	logger *zap.Logger
	blocks []document.Block
	inline []*html.Node
}

var headings = map[atom.Atom]document.BlockType{
	atom.H1: document.Heading1,
	atom.H2: document.Heading2,
	atom.H3: document.Heading3,
	atom.H4: document.Heading4,
}

var inlineElements = map[atom.Atom]bool{
	atom.A: true, atom.B: true, atom.Strong: true, atom.I: true, atom.Em: true,
	atom.S: true, atom.Strike: true, atom.Del: true, atom.Code: true,
	atom.Span: true, atom.Br: true, atom.U: true, atom.Sub: true, atom.Sup: true,
	atom.Mark: true, atom.Small: true,
}

var ignored = map[atom.Atom]bool{
	atom.Meta: true, atom.Style: true, atom.Script: true, atom.Link: true,
	atom.Title: true, atom.Template: true,
}

func (p *pasteParser) add(t document.BlockType, c richtext.Content, attrs document.Attributes) {
	p.blocks = append(p.blocks, document.CreateBlock(t, c, attrs))
}

func (p *pasteParser) flush() {
	if len(p.inline) == 0 {
		return
	}
	c := trimContent(richtext.ParseNodes(p.inline))
	p.inline = nil
	if c.Text != "" {
		p.add(document.Paragraph, c, document.Attributes{})
	}
}

func (p *pasteParser) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.inline = append(p.inline, n)
		return
	case html.ElementNode:
	default:
		return
	}
	if ignored[n.DataAtom] {
		return
	}
	if inlineElements[n.DataAtom] {
		p.inline = append(p.inline, n)
		return
	}
	p.flush()

	if t, ok := headings[n.DataAtom]; ok {
		p.add(t, trimContent(richtext.ParseNodes(childNodes(n))), document.Attributes{})
		return
	}
	switch n.DataAtom {
	case atom.P:
		if c := trimContent(richtext.ParseNodes(childNodes(n))); c.Text != "" {
			p.add(document.Paragraph, c, document.Attributes{})
		}
	case atom.Blockquote:
		p.add(document.Quote, trimContent(richtext.ParseNodes(childNodes(n))), document.Attributes{})
	case atom.Pre:
		lang := ""
		if code := surface.FindElement(n, atom.Code); code != nil {
			class, _ := surface.Attr(code, "class")
			for _, f := range strings.Fields(class) {
				if l, ok := strings.CutPrefix(f, "language-"); ok {
					lang = l
				}
			}
		}
		p.add(document.CodeBlock, richtext.Plain(strings.TrimSuffix(surface.TextContent(n), "\n")), document.Attributes{Language: lang})
	case atom.Ul, atom.Ol:
		p.list(n)
	case atom.Img:
		src, _ := surface.Attr(n, "src")
		alt, _ := surface.Attr(n, "alt")
		p.add(document.Image, richtext.Content{}, document.Attributes{Src: src, Alt: alt})
	case atom.Hr:
		p.add(document.Divider, richtext.Content{}, document.Attributes{})
	default:
		text := strings.TrimSpace(surface.TextContent(n))
		if text == "" {
			return
		}
		p.logger.Warn("paste element degraded to paragraph", zap.String("element", n.Data))
		p.add(document.Paragraph, richtext.Plain(text), document.Attributes{})
	}
}

func (p *pasteParser) list(n *html.Node) {
	t := document.Bullet
	if n.DataAtom == atom.Ol {
		t = document.Number
	}
	for _, li := range surface.ElementChildren(n) {
		if li.DataAtom != atom.Li {
			continue
		}
		typ, attrs := t, document.Attributes{}
		var nodes []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Input {
				if kind, _ := surface.Attr(c, "type"); kind == "checkbox" {
					typ = document.Checkbox
					_, attrs.Checked = surface.Attr(c, "checked")
				}
				continue
			}
			nodes = append(nodes, c)
		}
		p.add(typ, trimContent(richtext.ParseNodes(nodes)), attrs)
	}
}

// trimContent strips leading and trailing white space, keeping styles.
func trimContent(c richtext.Content) richtext.Content {
	lead := utf8.RuneCountInString(c.Text) - utf8.RuneCountInString(strings.TrimLeftFunc(c.Text, unicode.IsSpace))
	trail := utf8.RuneCountInString(c.Text) - utf8.RuneCountInString(strings.TrimRightFunc(c.Text, unicode.IsSpace))
	if lead == 0 && trail == 0 {
		return c
	}
	return richtext.Slice(c, lead, max(c.Len()-trail, lead))
}
