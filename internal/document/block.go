package document

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/blockedit/internal/richtext"
)

// BlockType identifies the kind of a block.
type BlockType string

// Block types.
const (
	Paragraph BlockType = "paragraph"
	Heading1  BlockType = "heading1"
	Heading2  BlockType = "heading2"
	Heading3  BlockType = "heading3"
	Heading4  BlockType = "heading4"
	Quote     BlockType = "quote"
	Bullet    BlockType = "bullet"
	Number    BlockType = "number"
	Checkbox  BlockType = "checkbox"
	CodeBlock BlockType = "codeblock"
	Math      BlockType = "math"
	Image     BlockType = "image"
	Table     BlockType = "table"
	Divider   BlockType = "divider"
)

// BlockTypes returns every known block type.
func BlockTypes() []BlockType {
	return []BlockType{
		Paragraph, Heading1, Heading2, Heading3, Heading4, Quote,
		Bullet, Number, Checkbox, CodeBlock, Math, Image, Table, Divider,
	}
}

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	for _, k := range BlockTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// HeadingLevel returns 1-4 for heading blocks and 0 otherwise.
func (t BlockType) HeadingLevel() int {
	switch t {
	case Heading1:
		return 1
	case Heading2:
		return 2
	case Heading3:
		return 3
	case Heading4:
		return 4
	}
	return 0
}

// IsList reports whether t is a list item type.
func (t BlockType) IsList() bool {
	return t == Bullet || t == Number || t == Checkbox
}

// HasText reports whether blocks of type t hold editable text content.
func (t BlockType) HasText() bool {
	switch t {
	case Image, Table, Divider:
		return false
	}
	return true
}

// SupportsInlineStyles reports whether inline styles may be applied to
// blocks of type t. Code and math hold literal source.
func (t BlockType) SupportsInlineStyles() bool {
	return t.HasText() && t != CodeBlock && t != Math
}

// Attributes holds the type-specific settings of a block.
type Attributes struct {
	Indent    int        `json:"indent,omitempty"`
	ListIndex int        `json:"listIndex,omitempty"`
	Checked   bool       `json:"checked,omitempty"`
	Language  string     `json:"language,omitempty"`
	Src       string     `json:"src,omitempty"`
	Alt       string     `json:"alt,omitempty"`
	Caption   string     `json:"caption,omitempty"`
	Rows      int        `json:"rows,omitempty"`
	Cols      int        `json:"cols,omitempty"`
	Cells     [][]string `json:"cells,omitempty"`
}

// Clone returns a deep copy of the attributes.
func (a Attributes) Clone() Attributes {
	out := a
	if a.Cells != nil {
		out.Cells = make([][]string, len(a.Cells))
		for i, row := range a.Cells {
			if row != nil {
				out.Cells[i] = make([]string, len(row))
				copy(out.Cells[i], row)
			}
		}
	}
	return out
}

// Default table shape used when a table is created without one.
const (
	DefaultTableRows = 2
	DefaultTableCols = 2
)

// MaxTableSize bounds both the rows and the columns of a table.
const MaxTableSize = 100

// TableFits reports whether the table shape and cells are within
// MaxTableSize in both directions.
func (a Attributes) TableFits() bool {
	if a.Rows > MaxTableSize || a.Cols > MaxTableSize || len(a.Cells) > MaxTableSize {
		return false
	}
	for _, row := range a.Cells {
		if len(row) > MaxTableSize {
			return false
		}
	}
	return true
}

// ShapeTable resizes Cells to Rows x Cols, keeping existing cell text.
// Both dimensions are clamped to MaxTableSize.
func (a Attributes) ShapeTable() Attributes {
	out := a.Clone()
	if out.Rows <= 0 {
		out.Rows = len(out.Cells)
	}
	if out.Cols <= 0 {
		for _, row := range out.Cells {
			out.Cols = max(out.Cols, len(row))
		}
	}
	if out.Rows <= 0 {
		out.Rows = DefaultTableRows
	}
	if out.Cols <= 0 {
		out.Cols = DefaultTableCols
	}
	out.Rows = min(out.Rows, MaxTableSize)
	out.Cols = min(out.Cols, MaxTableSize)
	cells := make([][]string, out.Rows)
	for r := range cells {
		cells[r] = make([]string, out.Cols)
		if r < len(out.Cells) {
			copy(cells[r], out.Cells[r])
		}
	}
	out.Cells = cells
	return out
}

// Block is one unit of document content.
type Block struct {
	ID         string           `json:"id"`
	Type       BlockType        `json:"type"`
	Content    richtext.Content `json:"content"`
	Attributes Attributes       `json:"attributes"`
	Children   []Block          `json:"children,omitempty"`
}

// CreateBlock returns a new block with a fresh id. Tables are given a
// default shape when none is set.
func CreateBlock(t BlockType, content richtext.Content, attrs Attributes) Block {
	if t == Table {
		attrs = attrs.ShapeTable()
	}
	return Block{
		ID:         NewID(),
		Type:       t,
		Content:    content.Clone(),
		Attributes: attrs.Clone(),
	}
}

// NewTextBlock returns a new block holding plain text.
func NewTextBlock(t BlockType, text string) Block {
	return CreateBlock(t, richtext.Plain(text), Attributes{})
}

// NewID returns a new unique block id.
func NewID() string {
	return uuid.NewString()
}

// Text returns the plain text of the block.
func (b Block) Text() string {
	return b.Content.Text
}

// Len returns the length of the block text in code points.
func (b Block) Len() int {
	return b.Content.Len()
}

// IsEmpty reports whether the block has no text.
func (b Block) IsEmpty() bool {
	return b.Content.IsEmpty()
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := Block{
		ID:         b.ID,
		Type:       b.Type,
		Content:    b.Content.Clone(),
		Attributes: b.Attributes.Clone(),
	}
	if b.Children != nil {
		out.Children = make([]Block, len(b.Children))
		for i, c := range b.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// searchText returns the text counted by the document metadata.
func (b Block) searchText() string {
	if b.Type == Table {
		var parts []string
		for _, row := range b.Attributes.Cells {
			parts = append(parts, row...)
		}
		return strings.Join(parts, " ")
	}
	return b.Content.Text
}

// Metadata holds derived document statistics.
type Metadata struct {
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
	WordCount int       `json:"wordCount"`
	CharCount int       `json:"charCount"`
}

// Document is the persisted document record.
type Document struct {
	ID       string   `json:"id"`
	Version  int64    `json:"version"`
	Blocks   []Block  `json:"blocks"`
	Metadata Metadata `json:"metadata"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	out.Blocks = make([]Block, len(d.Blocks))
	for i, b := range d.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// Text returns the plain text of all blocks separated by newlines.
func (d Document) Text() string {
	parts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		parts[i] = b.searchText()
	}
	return strings.Join(parts, "\n")
}
