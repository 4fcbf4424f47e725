package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/editor"
	"github.com/dshills/blockedit/internal/selection"
	"github.com/dshills/blockedit/internal/storage"
)

func newTestApp(t *testing.T, store storage.Store) *Application {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "blockedit.toml")
	cfg := "[editor]\nautoSaveDelay = \"1h\"\n\n[logging]\nlevel = \"debug\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := New(context.Background(), Options{
		ConfigPath: cfgPath,
		LogOutput:  []string{filepath.Join(dir, "app.log")},
		Store:      store,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestNew_LoadsConfig(t *testing.T) {
	app := newTestApp(t, storage.NewMemory())

	if got := app.Config().Editor.AutoSaveDelay.Std().String(); got != "1h0m0s" {
		t.Errorf("AutoSaveDelay = %s, expected 1h0m0s", got)
	}
	if app.Config().Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", app.Config().Logging.Level)
	}
	if app.Logger() == nil || app.Sessions() == nil || app.Metrics() == nil {
		t.Fatal("services should be set")
	}
}

func TestNew_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"floppy\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(context.Background(), Options{ConfigPath: path})
	var initErr *InitError
	if !errors.As(err, &initErr) || initErr.Component != "config" {
		t.Fatalf("error = %v, expected config InitError", err)
	}
}

func TestNew_OpensConfiguredStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "blockedit.toml")
	cfg := "[storage]\nbackend = \"badger\"\npath = \"" + filepath.ToSlash(filepath.Join(dir, "db")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := New(context.Background(), Options{ConfigPath: cfgPath, LogOutput: []string{filepath.Join(dir, "log")}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := app.Store().(*storage.Badger); !ok {
		t.Errorf("store = %T, expected *storage.Badger", app.Store())
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestShutdown_SavesOpenSessions(t *testing.T) {
	store := storage.NewMemory()
	app := newTestApp(t, store)
	ctx := context.Background()

	ed, err := app.Sessions().Open(ctx, "draft")
	if err != nil {
		t.Fatal(err)
	}
	first, _ := ed.Document().At(0)
	ed.Focus(first.ID, 0)
	ed.TypeText("unsaved")

	if err := app.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if _, err := app.Sessions().Open(ctx, "other"); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("Open after shutdown error = %v", err)
	}

	doc, err := store.LoadDocument(ctx, "draft")
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if doc.Text() != "unsaved" {
		t.Errorf("saved text = %q", doc.Text())
	}
}

func TestSessions_OpenLoadsStored(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	stored := document.Document{
		ID:     "notes",
		Blocks: []document.Block{document.NewTextBlock(document.Heading1, "Notes")},
	}
	if err := store.SaveDocument(ctx, "notes", stored); err != nil {
		t.Fatal(err)
	}
	app := newTestApp(t, store)

	ed, err := app.Sessions().Open(ctx, "notes")
	if err != nil {
		t.Fatal(err)
	}
	if got := ed.GetContent().Text(); got != "Notes" {
		t.Errorf("text = %q, expected Notes", got)
	}
	again, _ := app.Sessions().Open(ctx, "notes")
	if again != ed {
		t.Error("second Open should return the same editor")
	}
	if got, ok := app.Sessions().Get("notes"); !ok || got != ed {
		t.Error("Get should find the open session")
	}
	if n := app.Metrics().Snapshot().SessionsOpened; n != 1 {
		t.Errorf("SessionsOpened = %d, expected 1", n)
	}
}

func TestSessions_InvalidID(t *testing.T) {
	app := newTestApp(t, storage.NewMemory())
	for _, id := range []string{"", "a/b", "has space", string(make([]byte, 200))} {
		if _, err := app.Sessions().Open(context.Background(), id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Open(%q) error = %v, expected ErrInvalidID", id, err)
		}
	}
}

func TestSessions_Documents(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	if err := store.SaveDocument(ctx, "b", document.Document{ID: "b"}); err != nil {
		t.Fatal(err)
	}
	app := newTestApp(t, store)
	if _, err := app.Sessions().Open(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Sessions().Open(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	ids, err := app.Sessions().Documents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("Documents() = %v, expected [a b]", ids)
	}
	if open := app.Sessions().IDs(); len(open) != 2 {
		t.Errorf("IDs() = %v", open)
	}
}

func TestSessions_Close(t *testing.T) {
	store := storage.NewMemory()
	app := newTestApp(t, store)
	ctx := context.Background()

	ed, err := app.Sessions().Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	id := ed.ID()
	first, _ := ed.Document().At(0)
	ed.Select(selection.Caret(first.ID, 0))
	ed.ExecuteCommand(editor.CmdDivider)

	if err := app.Sessions().Close(ctx, id); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := app.Sessions().Get(id); ok {
		t.Error("closed session should be gone")
	}
	if err := app.Sessions().Close(ctx, id); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("second Close() error = %v", err)
	}
	doc, err := store.LoadDocument(ctx, id)
	if err != nil {
		t.Fatalf("closed session should be saved: %v", err)
	}
	if len(doc.Blocks) != 3 {
		t.Errorf("saved %d blocks, expected 3", len(doc.Blocks))
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"a", "doc-1", "my_doc.v2", "550e8400-e29b-41d4-a716-446655440000"} {
		if !ValidID(id) {
			t.Errorf("ValidID(%q) = false", id)
		}
	}
}
