package render

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/surface"
)

// Caret saves and restores the caret across rewrites. Restoring is
// fallible; the selection adapter implements it.
type Caret interface {
	SaveCaret(blockID string) (int, bool)
	RestoreCaret(blockID string, offset int) bool
	CaretToEnd(blockID string) bool
}

// Highlighter renders highlighted source into target.
type Highlighter interface {
	Highlight(source, language string, target *html.Node) error
}

// FormulaOptions controls formula typesetting.
type FormulaOptions struct {
	Display bool
}

// FormulaRenderer typesets a formula into target.
type FormulaRenderer interface {
	Render(source string, target *html.Node, opts FormulaOptions) error
}

// UpdateResult describes what Update did.
type UpdateResult struct {
	// Element presents the block after the update. It differs from the
	// input element when Replaced is set.
	Element  *html.Node
	Replaced bool
	// Rewritten is set when the editable content was rebuilt.
	Rewritten bool
	// CaretRestored is set when a caret inside the block survived the
	// rewrite at its old offset. When restore fails the caret is moved
	// to the end of the block.
	CaretRestored bool
}

// Renderer renders blocks through a registry.
type Renderer struct {
	registry *Registry
	caret    Caret
	logger   *zap.Logger
}

// NewRenderer returns a renderer. caret may be nil.
func NewRenderer(registry *Registry, caret Caret, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{registry: registry, caret: caret, logger: logger}
}

// Registry returns the strategy registry.
func (r *Renderer) Registry() *Registry {
	return r.registry
}

// Render builds a fragment for b.
func (r *Renderer) Render(b document.Block) *html.Node {
	el := r.registry.Lookup(b.Type).Render(b)
	surface.SetAttr(el, surface.AttrBlockID, b.ID)
	surface.SetAttr(el, surface.AttrBlockType, string(b.Type))
	return el
}

// Update synchronizes el with b. A type change replaces the fragment
// instead of patching it.
func (r *Renderer) Update(el *html.Node, b document.Block) (UpdateResult, error) {
	if t, _ := surface.Attr(el, surface.AttrBlockType); t != string(b.Type) {
		return UpdateResult{Element: r.Render(b), Replaced: true, Rewritten: true}, nil
	}

	offset, hadCaret := 0, false
	if r.caret != nil {
		offset, hadCaret = r.caret.SaveCaret(b.ID)
	}

	changed, err := r.registry.Lookup(b.Type).Update(el, b)
	if err != nil {
		return UpdateResult{Element: el}, err
	}
	res := UpdateResult{Element: el, Rewritten: changed}
	if !changed || !hadCaret {
		return res, nil
	}

	if r.caret.RestoreCaret(b.ID, offset) {
		res.CaretRestored = true
		return res, nil
	}
	r.logger.Debug("caret restore failed, moving to block end",
		zap.String("block", b.ID), zap.Int("offset", offset))
	r.caret.CaretToEnd(b.ID)
	return res, nil
}
