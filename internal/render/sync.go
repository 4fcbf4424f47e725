package render

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/surface"
)

// Sync keeps a surface in step with a document model. It subscribes to
// model changes and re-renders only the affected block.
type Sync struct {
	doc      *document.Model
	surf     *surface.Surface
	renderer *Renderer
	logger   *zap.Logger

	// OnUpdate, when set, is called after each block update.
	OnUpdate func(blockID string, res UpdateResult)
}

// Attach paints the document onto the surface and subscribes to changes.
func Attach(doc *document.Model, surf *surface.Surface, r *Renderer, logger *zap.Logger) *Sync {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sync{doc: doc, surf: surf, renderer: r, logger: logger}
	doc.OnChange(s.apply)
	s.Paint()
	return s
}

// Paint rebuilds the whole surface from the model.
func (s *Sync) Paint() {
	s.surf.Clear()
	for i, b := range s.doc.Blocks() {
		s.surf.InsertAt(i, s.renderer.Render(b))
	}
	s.renumber()
}

func (s *Sync) apply(c document.Change) {
	switch c.Kind {
	case document.ChangeReset:
		s.Paint()
		return
	case document.ChangeDelete:
		s.surf.Remove(c.BlockID)
	case document.ChangeInsert:
		b, ok := s.doc.Block(c.BlockID)
		if !ok {
			return
		}
		s.place(s.renderer.Render(b), b.ID)
	case document.ChangeMove:
		el := s.surf.Element(c.BlockID)
		if el == nil {
			return
		}
		s.place(el, c.BlockID)
	case document.ChangeUpdate:
		s.update(c.BlockID)
		if !c.TypeChanged {
			return
		}
	}
	s.renumber()
}

func (s *Sync) update(id string) {
	b, ok := s.doc.Block(id)
	if !ok {
		return
	}
	el := s.surf.Element(id)
	if el == nil {
		s.place(s.renderer.Render(b), id)
		return
	}
	res, err := s.renderer.Update(el, b)
	if err != nil {
		if errors.Is(err, ErrMalformedFragment) {
			s.logger.Warn("fragment out of shape, re-rendering", zap.String("block", id), zap.Error(err))
		} else {
			s.logger.Error("block update failed, re-rendering", zap.String("block", id), zap.Error(err))
		}
		res = UpdateResult{Element: s.renderer.Render(b), Replaced: true, Rewritten: true}
	}
	if res.Replaced {
		s.surf.Replace(el, res.Element)
	}
	if s.OnUpdate != nil {
		s.OnUpdate(id, res)
	}
}

// place puts el at the position of its block, before the element of the
// next block that is already on the surface.
func (s *Sync) place(el *html.Node, id string) {
	blocks := s.doc.Blocks()
	i := 0
	for i < len(blocks) && blocks[i].ID != id {
		i++
	}
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
	for _, next := range blocks[min(i+1, len(blocks)):] {
		if idx := s.surf.Index(next.ID); idx >= 0 {
			s.surf.InsertAt(idx, el)
			return
		}
	}
	s.surf.InsertAt(-1, el)
}

// renumber sets the displayed number of every numbered list item. Runs
// of consecutive number blocks count from one.
func (s *Sync) renumber() {
	n := 0
	for _, b := range s.doc.Blocks() {
		if b.Type != document.Number {
			n = 0
			continue
		}
		n++
		if el := s.surf.Element(b.ID); el != nil {
			SetListNumber(el, n)
		}
	}
}

// Element returns the element presenting a block.
func (s *Sync) Element(id string) *html.Node {
	return s.surf.Element(id)
}
