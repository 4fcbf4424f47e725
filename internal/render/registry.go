// Package render converts blocks to surface fragments and keeps them in
// sync.
//
// Each block type has a Strategy with two entry points: Render builds a
// fresh fragment and is used for first paint and for type changes, Update
// resynchronizes an existing fragment in place and reports whether it had
// to rewrite anything. Strategies live in a Registry owned by one editor
// instance; there is no package-level table.
package render

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
)

// Strategy renders and updates one block type.
type Strategy interface {
	// Render builds a detached fragment for b.
	Render(b document.Block) *html.Node

	// Update brings el in line with b and reports whether the editable
	// content had to be rewritten.
	Update(el *html.Node, b document.Block) (bool, error)
}

// Registry maps block types to strategies.
type Registry struct {
	mu         sync.RWMutex
	strategies map[document.BlockType]Strategy
	fallback   Strategy
	logger     *zap.Logger
}

// NewRegistry returns an empty registry whose fallback is the paragraph
// strategy.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		strategies: make(map[document.BlockType]Strategy),
		fallback:   TextStrategy{Tag: "p"},
		logger:     logger,
	}
}

// Register sets the strategy for t, replacing any previous one.
func (r *Registry) Register(t document.BlockType, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[t] = s
}

// Lookup returns the strategy for t. Unknown types get the paragraph
// strategy and a warning.
func (r *Registry) Lookup(t document.BlockType) Strategy {
	r.mu.RLock()
	s, ok := r.strategies[t]
	r.mu.RUnlock()
	if ok {
		return s
	}
	r.logger.Warn("no strategy for block type, rendering as paragraph",
		zap.String("type", string(t)))
	return r.fallback
}

// Has reports whether t has a registered strategy.
func (r *Registry) Has(t document.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[t]
	return ok
}

// Collaborators passed to the default strategies.
type Collaborators struct {
	Highlighter Highlighter
	Formula     FormulaRenderer
	Logger      *zap.Logger
}

// DefaultRegistry returns a registry with a strategy for every block type.
func DefaultRegistry(c Collaborators) *Registry {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewRegistry(logger)
	r.Register(document.Paragraph, TextStrategy{Tag: "p"})
	r.Register(document.Heading1, TextStrategy{Tag: "h1"})
	r.Register(document.Heading2, TextStrategy{Tag: "h2"})
	r.Register(document.Heading3, TextStrategy{Tag: "h3"})
	r.Register(document.Heading4, TextStrategy{Tag: "h4"})
	r.Register(document.Quote, TextStrategy{Tag: "blockquote"})
	r.Register(document.Bullet, ListStrategy{})
	r.Register(document.Number, ListStrategy{})
	r.Register(document.Checkbox, CheckboxStrategy{})
	r.Register(document.CodeBlock, &CodeStrategy{Highlighter: c.Highlighter, Logger: logger})
	r.Register(document.Math, &MathStrategy{Formula: c.Formula, Logger: logger})
	r.Register(document.Image, ImageStrategy{})
	r.Register(document.Table, TableStrategy{})
	r.Register(document.Divider, DividerStrategy{})
	return r
}
