package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/input"
	"github.com/dshills/blockedit/internal/storage"
)

// GetContent returns a copy of the document.
func (e *Editor) GetContent() document.Document {
	return e.doc.Snapshot()
}

// SetContent replaces the blocks and metadata of the document and clears
// the undo history. The editor keeps its document id and the version moves
// forward. A document without blocks gets one empty paragraph. The
// replacement counts as an edit for auto-save.
func (e *Editor) SetContent(doc document.Document) {
	e.event(func() bool {
		doc.ID = e.doc.ID()
		e.doc.Load(withBlock(doc))
		e.focusStart()
		return true
	})
}

// ContentHTML returns the document as semantic HTML.
func (e *Editor) ContentHTML() string {
	return ExportHTML(e.doc.Blocks())
}

// SetContentHTML replaces the document with blocks parsed from markup, as
// a paste would parse them.
func (e *Editor) SetContentHTML(markup string) {
	e.SetContent(document.Document{Blocks: input.ParseHTML(markup, e.logger)})
}

// Load replaces the document with the stored document id. It returns
// false with a nil error when no such document exists, leaving the
// editor unchanged.
func (e *Editor) Load(ctx context.Context, id string) (bool, error) {
	if e.store == nil {
		return false, ErrNoStorage
	}
	doc, err := e.store.LoadDocument(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", id, err)
	}

	e.event(func() bool {
		e.loading.Store(true)
		defer e.loading.Store(false)
		doc.ID = id
		e.doc.Load(withBlock(*doc))
		e.markSaved()
		e.focusStart()
		return true
	})
	return true, nil
}

// withBlock returns doc with an empty paragraph when it has no blocks, so
// the caret always has a target.
func withBlock(doc document.Document) document.Document {
	if len(doc.Blocks) == 0 {
		doc.Blocks = []document.Block{document.NewTextBlock(document.Paragraph, "")}
	}
	return doc
}

func (e *Editor) markSaved() {
	version := e.doc.Version()
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	e.stopTimerLocked()
	e.saveGen++
	e.savedVersion = version
}

// focusStart moves the caret to the first block when the surface had
// focus.
func (e *Editor) focusStart() {
	if !e.surf.Focused() {
		return
	}
	if first, ok := e.doc.At(0); ok {
		e.sel.Focus(first.ID, 0)
	}
}
