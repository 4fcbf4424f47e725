package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/blockedit/internal/config"
	"github.com/dshills/blockedit/internal/document"
	"github.com/dshills/blockedit/internal/richtext"
)

func sampleDocument(id string) document.Document {
	heading := document.NewTextBlock(document.Heading1, "Notes")
	body := document.CreateBlock(document.Paragraph,
		richtext.Rich("plain and bold", richtext.StyleRange{Offset: 10, Length: 4, Style: richtext.Bold}),
		document.Attributes{})
	task := document.NewTextBlock(document.Checkbox, "ship it")
	task.Attributes.Checked = true

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return document.Document{
		ID:      id,
		Version: 7,
		Blocks:  []document.Block{heading, body, task},
		Metadata: document.Metadata{
			Created:   at,
			Modified:  at.Add(time.Hour),
			WordCount: 6,
			CharCount: 26,
		},
	}
}

func assertSameDocument(t *testing.T, want document.Document, got *document.Document) {
	t.Helper()
	require.NotNil(t, got)
	w, err := json.Marshal(want)
	require.NoError(t, err)
	g, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(w), string(g))
}

// exerciseStore runs the behavior every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.LoadDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	doc := sampleDocument("first")
	require.NoError(t, s.SaveDocument(ctx, "first", doc))
	got, err := s.LoadDocument(ctx, "first")
	require.NoError(t, err)
	assertSameDocument(t, doc, got)

	doc.Version = 8
	doc.Blocks = doc.Blocks[:1]
	require.NoError(t, s.SaveDocument(ctx, "first", doc))
	got, err = s.LoadDocument(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.Version)
	assert.Len(t, got.Blocks, 1)

	require.NoError(t, s.SaveDocument(ctx, "second", sampleDocument("second")))
	ids, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Subset(t, ids, []string{"first", "second"})
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryCopiesDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	doc := sampleDocument("d")
	require.NoError(t, m.SaveDocument(ctx, "d", doc))

	doc.Blocks[0].Content = richtext.Plain("changed")
	got, err := m.LoadDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "Notes", got.Blocks[0].Text())

	got.Blocks[0].Content = richtext.Plain("again")
	again, err := m.LoadDocument(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "Notes", again.Blocks[0].Text())
}

func TestBadgerInMemory(t *testing.T) {
	b, err := OpenBadger("", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.Close()
	exerciseStore(t, b)
}

func TestBadgerPersists(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db")

	b, err := OpenBadger(dir, nil)
	require.NoError(t, err)
	doc := sampleDocument("kept")
	require.NoError(t, b.SaveDocument(ctx, "kept", doc))
	require.NoError(t, b.Close())

	b, err = OpenBadger(dir, nil)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.LoadDocument(ctx, "kept")
	require.NoError(t, err)
	assertSameDocument(t, doc, got)
}

func TestRecordMapping(t *testing.T) {
	doc := sampleDocument("ignored")
	rec, err := toRecord("stored", doc)
	require.NoError(t, err)
	assert.Equal(t, "stored", rec.ID)
	assert.Equal(t, int64(7), rec.Version)
	assert.Equal(t, doc.Metadata, rec.Metadata)
	assert.Contains(t, rec.Body, `"plain and bold"`)

	back, err := fromRecord(rec)
	require.NoError(t, err)
	doc.ID = "stored"
	assertSameDocument(t, doc, back)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Storage{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.Storage{Backend: config.BackendBadger, Path: ":memory:"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Badger{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.Storage{Backend: "sqlite"}, nil)
	assert.True(t, errors.Is(err, config.ErrUnknownBackend))
}

func TestRedis(t *testing.T) {
	url := os.Getenv("BLOCKEDIT_TEST_REDIS")
	if url == "" {
		t.Skip("BLOCKEDIT_TEST_REDIS not set")
	}
	ctx := context.Background()
	r, err := OpenRedis(ctx, url, "blockedit-test-"+document.NewID())
	require.NoError(t, err)
	defer r.Close()
	exerciseStore(t, r)
}

func TestMongo(t *testing.T) {
	url := os.Getenv("BLOCKEDIT_TEST_MONGO")
	if url == "" {
		t.Skip("BLOCKEDIT_TEST_MONGO not set")
	}
	ctx := context.Background()
	m, err := OpenMongo(ctx, url, "blockedit_test", "documents_"+document.NewID())
	require.NoError(t, err)
	defer func() {
		_ = m.collection.Drop(ctx)
		m.Close()
	}()
	exerciseStore(t, m)
}
