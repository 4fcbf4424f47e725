package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/app"
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/editor"
	"github.com/dshills/blockedit/internal/input/key"
	"github.com/dshills/blockedit/internal/input/palette"
	"github.com/dshills/blockedit/internal/richtext"
	"github.com/dshills/blockedit/internal/selection"
)

// EditResult is the response to an editing request.
type EditResult struct {
	Applied  bool              `json:"applied"`
	State    editor.State      `json:"state"`
	Document document.Document `json:"document"`
}

// CommandRequest is the body of a command request.
type CommandRequest struct {
	Selection *selection.Selection `json:"selection,omitempty"`
	Args      []string             `json:"args,omitempty"`
}

// TextRequest is the body of a text request.
type TextRequest struct {
	Selection *selection.Selection `json:"selection,omitempty"`
	Text      string               `json:"text"`
}

// KeyRequest is the body of a key request. Chord uses keymap syntax, such
// as "Mod+B" or "Enter".
type KeyRequest struct {
	Selection *selection.Selection `json:"selection,omitempty"`
	Chord     string               `json:"chord"`
}

// BlockRequest is the body of a block insert.
type BlockRequest struct {
	Type       document.BlockType  `json:"type"`
	Text       string              `json:"text,omitempty"`
	Content    *richtext.Content   `json:"content,omitempty"`
	Attributes document.Attributes `json:"attributes"`
	Index      *int                `json:"index,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Metrics().Snapshot())
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.app.Sessions().Documents(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": ids})
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	ed, err := s.app.Sessions().Create(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/documents/"+ed.ID())
	writeJSON(w, http.StatusCreated, ed.GetContent())
}

// session opens the document named in the route.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	ed, err := s.app.Sessions().Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return ed, true
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ed.GetContent())
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	var doc document.Document
	if !readJSON(w, r, &doc) {
		return
	}
	for _, b := range doc.Blocks {
		if !b.Type.Valid() {
			writeError(w, http.StatusBadRequest, "unknown block type "+string(b.Type))
			return
		}
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	defer s.lock(ed.ID())()
	ed.SetContent(doc)
	if err := ed.Save(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ed.GetContent())
}

func (s *Server) getHTML(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, ed.ContentHTML())
}

func (s *Server) putHTML(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	defer s.lock(ed.ID())()
	ed.SetContentHTML(string(body))
	if err := ed.Save(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ed.GetContent())
}

func (s *Server) insertBlock(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if !readJSON(w, r, &req) {
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, "unknown block type "+string(req.Type))
		return
	}
	if !req.Attributes.TableFits() {
		writeError(w, http.StatusBadRequest, errTableSize)
		return
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}

	content := richtext.Plain(req.Text)
	if req.Content != nil {
		content = *req.Content
	}
	b := document.CreateBlock(req.Type, content, req.Attributes)
	var index []int
	if req.Index != nil {
		index = append(index, *req.Index)
	}

	defer s.lock(ed.ID())()
	if !ed.InsertBlock(b, index...) {
		writeError(w, http.StatusConflict, "block not inserted")
		return
	}
	inserted, _ := ed.Document().Block(b.ID)
	writeJSON(w, http.StatusCreated, inserted)
}

var errTableSize = fmt.Sprintf("tables are limited to %dx%d", document.MaxTableSize, document.MaxTableSize)

// patchBlock applies a JSON merge patch (RFC 7396) to one block.
func (s *Server) patchBlock(w http.ResponseWriter, r *http.Request) {
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["block"]

	defer s.lock(ed.ID())()
	cur, ok := ed.Document().Block(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no block "+id)
		return
	}
	orig, err := json.Marshal(cur)
	if err != nil {
		s.fail(w, err)
		return
	}
	merged, err := jsonpatch.MergePatch(orig, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid merge patch: "+err.Error())
		return
	}
	var next document.Block
	if err := json.Unmarshal(merged, &next); err != nil {
		writeError(w, http.StatusBadRequest, "invalid block: "+err.Error())
		return
	}
	switch {
	case next.ID != cur.ID:
		writeError(w, http.StatusBadRequest, "block id cannot change")
		return
	case !next.Type.Valid():
		writeError(w, http.StatusBadRequest, "unknown block type "+string(next.Type))
		return
	case !next.Attributes.TableFits():
		writeError(w, http.StatusBadRequest, errTableSize)
		return
	}
	content := next.Content
	if next.Type.SupportsInlineStyles() {
		content.Styles = richtext.Normalize(content.Styles, content.Len())
	} else {
		content = richtext.Plain(content.Text)
	}

	applied := ed.UpdateBlock(id, document.BlockPatch{
		Type:       &next.Type,
		Content:    &content,
		Attributes: &next.Attributes,
		Children:   next.Children,
	})
	updated, _ := ed.Document().Block(id)
	s.logger.Debug("block patched", zap.String("document", ed.ID()), zap.String("block", id), zap.Bool("applied", applied))
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteBlock(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["block"]
	defer s.lock(ed.ID())()
	if !ed.DeleteBlock(id) {
		writeError(w, http.StatusNotFound, "no block "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommandList is the response of GET /documents/{id}/commands.
type CommandList struct {
	Commands []string        `json:"commands"`
	Matches  []palette.Match `json:"matches"`
}

// listCommands ranks the document's commands against the q parameter.
// Recently run commands come first when q is empty.
func (s *Server) listCommands(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit "+v)
			return
		}
		limit = n
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CommandList{
		Commands: editor.Commands(),
		Matches:  ed.SearchCommands(r.URL.Query().Get("q"), limit),
	})
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !slices.Contains(editor.Commands(), name) {
		writeError(w, http.StatusNotFound, "unknown command "+name)
		return
	}
	var req CommandRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.edit(w, r, req.Selection, func(ed *editor.Editor) bool {
		start := time.Now()
		applied := ed.ExecuteCommand(name, req.Args...)
		s.app.Metrics().RecordCommand(time.Since(start), applied)
		return applied
	})
}

func (s *Server) typeText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !readJSON(w, r, &req) {
		return
	}
	s.edit(w, r, req.Selection, func(ed *editor.Editor) bool {
		return ed.TypeText(req.Text)
	})
}

func (s *Server) pressKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !readJSON(w, r, &req) {
		return
	}
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	ev, err := key.ParseFor(req.Chord, ed.Keymap().Platform())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.edit(w, r, req.Selection, func(ed *editor.Editor) bool {
		return pressKey(ed, ev)
	})
}

// pressKey plays the browser's part for keys the editor leaves to the
// host: arrows move the caret and printable keys type.
func pressKey(ed *editor.Editor, ev key.Event) bool {
	if ed.HandleKeyDown(ev) {
		return true
	}
	switch {
	case ev.IsChar():
		return ed.TypeText(string(ev.Rune))
	case ev.Key == key.KeySpace && ev.Modifiers.Without(key.ModShift) == key.ModNone:
		return ed.TypeText(" ")
	}
	return ed.MoveCaret(ev)
}

// edit applies sel, when given, then runs fn as one request against the
// document.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, sel *selection.Selection, fn func(*editor.Editor) bool) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	defer s.lock(ed.ID())()

	if sel != nil && !ed.Select(*sel) {
		writeError(w, http.StatusBadRequest, "selection names an unknown block")
		return
	}
	applied := fn(ed)
	writeJSON(w, http.StatusOK, EditResult{
		Applied:  applied,
		State:    ed.State(),
		Document: ed.GetContent(),
	})
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	ed, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := ed.Save(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	unlock := s.lock(id)
	err := s.app.Sessions().Close(r.Context(), id)
	s.locks.Delete(id)
	unlock()
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps an application error to a status code.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidID):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrShuttingDown), errors.Is(err, editor.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
