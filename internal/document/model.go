package document

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/document/history"
	"github.com/dshills/blockedit/internal/richtext"
)

// ChangeKind describes what happened to a block.
type ChangeKind string

// Change kinds.
const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
	ChangeMove   ChangeKind = "move"
	ChangeReset  ChangeKind = "reset"
)

// Change is delivered to OnChange listeners for every primitive mutation,
// including those performed by undo and redo.
type Change struct {
	Kind    ChangeKind
	BlockID string
	// Index is the block position after the change. For deletes it is
	// the position the block occupied.
	Index int
	// OldIndex is the previous position of a moved block.
	OldIndex int
	// TypeChanged is set on updates that changed the block type.
	TypeChanged bool
}

// Model owns a document and its undo history.
// It is safe for concurrent use.
type Model struct {
	mu          sync.RWMutex
	doc         Document
	history     *history.History
	historySize int
	logger      *zap.Logger
	now         func() time.Time

	listenerMu sync.Mutex
	listeners  []func(Change)
	pending    []Change
}

// New creates a Model with an empty document.
func New(opts ...Option) *Model {
	m := &Model{
		historySize: defaultHistorySize(),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	m.doc.ID = NewID()
	for _, opt := range opts {
		opt(m)
	}
	m.history = history.New(m.historySize)
	ts := m.now()
	m.doc.Metadata.Created = ts
	m.doc.Metadata.Modified = ts
	m.recount()
	return m
}

// OnChange registers fn to be called after every block change.
func (m *Model) OnChange(fn func(Change)) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// flush delivers queued changes. Must be called without m.mu held.
func (m *Model) flush() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	m.listenerMu.Lock()
	listeners := slices.Clone(m.listeners)
	m.listenerMu.Unlock()
	for _, c := range pending {
		for _, fn := range listeners {
			fn(c)
		}
	}
}

// ID returns the document id.
func (m *Model) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.ID
}

// Version returns the document version. It increases with every applied,
// undone or redone operation.
func (m *Model) Version() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Version
}

// Metadata returns the current document metadata.
func (m *Model) Metadata() Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Metadata
}

// Len returns the number of blocks.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.doc.Blocks)
}

// Blocks returns a copy of all blocks in order.
func (m *Model) Blocks() []Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Block, len(m.doc.Blocks))
	for i, b := range m.doc.Blocks {
		out[i] = b.Clone()
	}
	return out
}

// Block returns a copy of the block with the given id.
func (m *Model) Block(id string) (Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return Block{}, false
	}
	return m.doc.Blocks[i].Clone(), true
}

// At returns a copy of the block at index i.
func (m *Model) At(i int) (Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.doc.Blocks) {
		return Block{}, false
	}
	return m.doc.Blocks[i].Clone(), true
}

// IndexOf returns the position of the block, or -1.
func (m *Model) IndexOf(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexOf(id)
}

// Neighbor returns the block delta positions away from id.
func (m *Model) Neighbor(id string, delta int) (Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return Block{}, false
	}
	j := i + delta
	if j < 0 || j >= len(m.doc.Blocks) {
		return Block{}, false
	}
	return m.doc.Blocks[j].Clone(), true
}

// Snapshot returns a deep copy of the document record.
func (m *Model) Snapshot() Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone()
}

// Load replaces the document and clears the history. The document id is
// kept when doc has none. Blocks with an empty or repeated id get a fresh
// one, and the version always moves forward.
func (m *Model) Load(doc Document) {
	m.mu.Lock()
	id, version := m.doc.ID, m.doc.Version
	m.doc = doc.Clone()
	if m.doc.ID == "" {
		m.doc.ID = id
	}
	for i, b := range m.doc.Blocks {
		m.doc.Blocks[i] = cleanBlock(b)
	}
	if n := assignIDs(m.doc.Blocks, map[string]bool{}); n > 0 {
		m.logger.Warn("block ids reassigned", zap.Int("blocks", n), zap.Error(ErrDuplicateBlock))
	}
	m.doc.Version = max(m.doc.Version, version+1)
	if m.doc.Metadata.Created.IsZero() {
		m.doc.Metadata.Created = m.now()
	}
	m.recount()
	m.history.Clear()
	m.pending = append(m.pending, Change{Kind: ChangeReset, Index: -1})
	m.mu.Unlock()
	m.flush()
}

// InsertBlock inserts a block at index, or appends it when no index is
// given. An out-of-range index is clamped. It returns false when a block
// with the same id is already present.
func (m *Model) InsertBlock(b Block, index ...int) bool {
	m.mu.Lock()
	if b.ID == "" {
		b.ID = NewID()
	}
	b = cleanBlock(b)
	if m.indexOf(b.ID) >= 0 {
		m.mu.Unlock()
		m.logger.Warn("insert rejected", zap.String("block", b.ID), zap.Error(ErrDuplicateBlock))
		return false
	}
	at := len(m.doc.Blocks)
	if len(index) > 0 {
		at = clampIndex(index[0], len(m.doc.Blocks))
	}
	ok := m.applyOperation(&Operation{
		Kind:    OpInsert,
		BlockID: b.ID,
		Index:   at,
		After:   snapshot(b),
	})
	m.mu.Unlock()
	m.flush()
	return ok
}

// BlockPatch lists the fields UpdateBlock changes. Nil fields are kept.
type BlockPatch struct {
	Type       *BlockType
	Content    *richtext.Content
	Attributes *Attributes
	Children   []Block
}

// UpdateBlock merges patch into the block. It returns false when the block
// does not exist. A patch that changes nothing records nothing.
func (m *Model) UpdateBlock(id string, patch BlockPatch) bool {
	return m.modify(id, OpUpdate, func(b *Block) bool {
		if patch.Type != nil {
			b.Type = *patch.Type
		}
		if patch.Content != nil {
			b.Content = richtext.Sanitize(patch.Content.Clone())
		}
		if patch.Attributes != nil {
			b.Attributes = cleanAttributes(patch.Attributes.Clone())
		}
		if patch.Children != nil {
			b.Children = make([]Block, len(patch.Children))
			for i, c := range patch.Children {
				b.Children[i] = cleanBlock(c.Clone())
			}
		}
		return true
	})
}

// SetContent replaces the content of a block.
func (m *Model) SetContent(id string, c richtext.Content) bool {
	return m.UpdateBlock(id, BlockPatch{Content: &c})
}

// SetAttributes replaces the attributes of a block.
func (m *Model) SetAttributes(id string, a Attributes) bool {
	return m.UpdateBlock(id, BlockPatch{Attributes: &a})
}

// ChangeType converts a block to type t, keeping its content. Tables are
// given a default shape.
func (m *Model) ChangeType(id string, t BlockType) bool {
	return m.modify(id, OpUpdate, func(b *Block) bool {
		b.Type = t
		if t == Table {
			b.Attributes = b.Attributes.ShapeTable()
		}
		if !t.SupportsInlineStyles() && len(b.Content.Styles) > 0 {
			b.Content = richtext.Plain(b.Content.Text)
		}
		return true
	})
}

// DeleteBlock removes a block. It returns false when the block does not
// exist.
func (m *Model) DeleteBlock(id string) bool {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	ok := m.applyOperation(&Operation{
		Kind:    OpDelete,
		BlockID: id,
		Index:   i,
		Before:  snapshot(m.doc.Blocks[i]),
	})
	m.mu.Unlock()
	m.flush()
	return ok
}

// MoveBlock moves a block so that it ends up at position to. Moving a block
// to its current position succeeds without recording anything.
func (m *Model) MoveBlock(id string, to int) bool {
	m.mu.Lock()
	from := m.indexOf(id)
	if from < 0 {
		m.mu.Unlock()
		return false
	}
	to = clampIndex(to, len(m.doc.Blocks)-1)
	if to == from {
		m.mu.Unlock()
		return true
	}
	ok := m.applyOperation(&Operation{
		Kind:     OpMove,
		BlockID:  id,
		Index:    from,
		NewIndex: to,
	})
	m.mu.Unlock()
	m.flush()
	return ok
}

// ApplyInlineStyle adds style to [offset, offset+length) of a block. It
// returns false for unknown blocks, blocks that do not take inline styles
// and empty spans. Applying a style that is already present succeeds
// without recording anything.
func (m *Model) ApplyInlineStyle(id string, offset, length int, style richtext.Style, href string) bool {
	return m.modify(id, OpStyle, func(b *Block) bool {
		if !b.Type.SupportsInlineStyles() {
			return false
		}
		c, ok := richtext.Apply(b.Content, offset, length, style, href)
		if !ok {
			return false
		}
		b.Content = c
		return true
	})
}

// RemoveInlineStyle clears style from [offset, offset+length) of a block.
func (m *Model) RemoveInlineStyle(id string, offset, length int, style richtext.Style) bool {
	return m.modify(id, OpStyle, func(b *Block) bool {
		if !b.Type.SupportsInlineStyles() {
			return false
		}
		b.Content = richtext.Remove(b.Content, offset, length, style)
		return true
	})
}

// ToggleInlineStyle removes style when it covers the whole span and applies
// it otherwise.
func (m *Model) ToggleInlineStyle(id string, offset, length int, style richtext.Style, href string) bool {
	return m.modify(id, OpStyle, func(b *Block) bool {
		if !b.Type.SupportsInlineStyles() {
			return false
		}
		c, ok := richtext.Toggle(b.Content, offset, length, style, href)
		if !ok {
			return false
		}
		b.Content = c
		return true
	})
}

// modify runs edit on a copy of the block and records the difference.
func (m *Model) modify(id string, kind OpKind, edit func(*Block) bool) bool {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return false
	}
	before := m.doc.Blocks[i].Clone()
	after := before.Clone()
	if !edit(&after) {
		m.mu.Unlock()
		return false
	}
	if reflect.DeepEqual(before, after) {
		m.mu.Unlock()
		return true
	}
	ok := m.applyOperation(&Operation{
		Kind:    kind,
		BlockID: id,
		Index:   i,
		Before:  &before,
		After:   &after,
	})
	m.mu.Unlock()
	m.flush()
	return ok
}

// Batch runs fn with every mutation it makes recorded as a single undo
// step. Nested batches join the outermost one.
func (m *Model) Batch(name string, fn func()) {
	m.mu.Lock()
	started := m.history.BeginGroup(name)
	m.mu.Unlock()
	defer func() {
		if !started {
			return
		}
		m.mu.Lock()
		m.history.EndGroup()
		m.mu.Unlock()
	}()
	fn()
}

// Undo reverses the most recent operation. It returns false when there is
// nothing to undo.
func (m *Model) Undo() bool {
	m.mu.Lock()
	err := m.history.Undo()
	m.mu.Unlock()
	m.flush()
	return m.historyResult("undo", err, history.ErrNothingToUndo)
}

// Redo re-applies the most recently undone operation. It returns false when
// there is nothing to redo.
func (m *Model) Redo() bool {
	m.mu.Lock()
	err := m.history.Redo()
	m.mu.Unlock()
	m.flush()
	return m.historyResult("redo", err, history.ErrNothingToRedo)
}

func (m *Model) historyResult(action string, err, empty error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, empty) {
		m.logger.Error(action+" failed", zap.Error(err))
	}
	return false
}

// CanUndo reports whether Undo would succeed.
func (m *Model) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (m *Model) CanRedo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.CanRedo()
}

// History returns descriptions of the undoable steps, oldest first.
func (m *Model) History() []history.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.UndoInfo()
}

// applyOperation is the single entry point for new mutations. Must be
// called with m.mu held.
func (m *Model) applyOperation(op *Operation) bool {
	op.model = m
	op.Timestamp = m.now()
	if dropped := m.history.DiscardRedo(); dropped > 0 {
		m.logger.Debug("redo history discarded", zap.Int("operations", dropped))
	}
	if err := op.Execute(); err != nil {
		m.logger.Warn("operation failed",
			zap.String("kind", string(op.Kind)),
			zap.String("block", op.BlockID),
			zap.Error(err))
		return false
	}
	if trimmed := m.history.Push(op); trimmed > 0 {
		m.logger.Debug("history trimmed", zap.Int("operations", trimmed))
	}
	return true
}

// Primitive mutations. These run with m.mu held and are shared by
// Execute and Reverse.

func (m *Model) insertAt(b Block, at int) error {
	if m.indexOf(b.ID) >= 0 {
		return ErrDuplicateBlock
	}
	at = clampIndex(at, len(m.doc.Blocks))
	m.doc.Blocks = slices.Insert(m.doc.Blocks, at, b)
	m.touch(Change{Kind: ChangeInsert, BlockID: b.ID, Index: at})
	return nil
}

func (m *Model) removeByID(id string) (Block, error) {
	i := m.indexOf(id)
	if i < 0 {
		return Block{}, ErrBlockNotFound
	}
	b := m.doc.Blocks[i]
	m.doc.Blocks = slices.Delete(m.doc.Blocks, i, i+1)
	m.touch(Change{Kind: ChangeDelete, BlockID: id, Index: i})
	return b, nil
}

func (m *Model) replace(b Block) error {
	i := m.indexOf(b.ID)
	if i < 0 {
		return ErrBlockNotFound
	}
	typeChanged := m.doc.Blocks[i].Type != b.Type
	m.doc.Blocks[i] = b
	m.touch(Change{Kind: ChangeUpdate, BlockID: b.ID, Index: i, TypeChanged: typeChanged})
	return nil
}

func (m *Model) move(id string, to int) error {
	from := m.indexOf(id)
	if from < 0 {
		return ErrBlockNotFound
	}
	b := m.doc.Blocks[from]
	m.doc.Blocks = slices.Delete(m.doc.Blocks, from, from+1)
	to = clampIndex(to, len(m.doc.Blocks))
	m.doc.Blocks = slices.Insert(m.doc.Blocks, to, b)
	m.touch(Change{Kind: ChangeMove, BlockID: id, Index: to, OldIndex: from})
	return nil
}

// touch bumps the version, refreshes metadata and queues c.
func (m *Model) touch(c Change) {
	m.doc.Version++
	m.doc.Metadata.Modified = m.now()
	m.recount()
	m.pending = append(m.pending, c)
}

// assignIDs gives every block, children included, whose id is empty or
// already seen a fresh id. It returns the number of ids replaced.
func assignIDs(blocks []Block, seen map[string]bool) int {
	n := 0
	for i := range blocks {
		b := &blocks[i]
		if b.ID == "" || seen[b.ID] {
			b.ID = NewID()
			n++
		}
		seen[b.ID] = true
		n += assignIDs(b.Children, seen)
	}
	return n
}

// cleanBlock strips control characters markup cannot carry from the text
// of b and its children.
func cleanBlock(b Block) Block {
	b.Content = richtext.Sanitize(b.Content)
	b.Attributes = cleanAttributes(b.Attributes)
	if len(b.Children) > 0 {
		children := make([]Block, len(b.Children))
		for i, c := range b.Children {
			children[i] = cleanBlock(c)
		}
		b.Children = children
	}
	return b
}

func cleanAttributes(a Attributes) Attributes {
	a.Alt = richtext.SanitizeText(a.Alt)
	a.Caption = richtext.SanitizeText(a.Caption)
	if a.Cells == nil {
		return a
	}
	cells := make([][]string, len(a.Cells))
	for r, row := range a.Cells {
		if row == nil {
			continue
		}
		cells[r] = make([]string, len(row))
		for c, cell := range row {
			cells[r][c] = richtext.SanitizeText(cell)
		}
	}
	a.Cells = cells
	return a
}

func (m *Model) recount() {
	words, chars := 0, 0
	for _, b := range m.doc.Blocks {
		text := b.searchText()
		words += len(strings.Fields(text))
		chars += utf8.RuneCountInString(text)
	}
	m.doc.Metadata.WordCount = words
	m.doc.Metadata.CharCount = chars
}

func (m *Model) indexOf(id string) int {
	for i := range m.doc.Blocks {
		if m.doc.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
