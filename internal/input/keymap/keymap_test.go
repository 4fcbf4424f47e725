package keymap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blockedit/internal/input/key"
)

func TestDefaultResolvesPerPlatform(t *testing.T) {
	mac, err := NewTable("darwin", Default())
	require.NoError(t, err)
	linux, err := NewTable("linux", Default())
	require.NoError(t, err)

	b, ok := mac.Lookup(key.FromDOM("b", key.ModMeta))
	require.True(t, ok)
	assert.Equal(t, "bold", b.Action)
	_, ok = mac.Lookup(key.FromDOM("b", key.ModCtrl))
	assert.False(t, ok)

	b, ok = linux.Lookup(key.FromDOM("b", key.ModCtrl))
	require.True(t, ok)
	assert.Equal(t, "bold", b.Action)
}

func TestDefaultBindings(t *testing.T) {
	table, err := NewTable("linux", Default())
	require.NoError(t, err)

	tests := []struct {
		name string
		mods key.Modifier
		want string
	}{
		{"z", key.ModCtrl, "undo"},
		{"Z", key.ModCtrl | key.ModShift, "redo"},
		{"y", key.ModCtrl, "redo"},
		{"1", key.ModCtrl | key.ModAlt, "heading1"},
		{"0", key.ModCtrl | key.ModAlt, "paragraph"},
		{"&", key.ModCtrl | key.ModShift, "number"},
		{"*", key.ModCtrl | key.ModShift, "bullet"},
		{"(", key.ModCtrl | key.ModShift, "checkbox"},
		{"S", key.ModCtrl | key.ModShift, "strikethrough"},
		{"a", key.ModCtrl, "selectAll"},
	}
	for _, tt := range tests {
		b, ok := table.Lookup(key.FromDOM(tt.name, tt.mods))
		if assert.True(t, ok, "%s %v", tt.name, tt.mods) {
			assert.Equal(t, tt.want, b.Action)
		}
	}

	_, ok := table.Lookup(key.FromDOM("b", key.ModNone))
	assert.False(t, ok)
	_, ok = table.Lookup(key.FromDOM("Control", key.ModCtrl))
	assert.False(t, ok)
}

func TestLaterKeymapsOverride(t *testing.T) {
	user := NewKeymap("user").Add("Mod+B", "").Add("Mod+Shift+K", "link")
	table, err := NewTable("linux", Default(), user)
	require.NoError(t, err)

	_, ok := table.Lookup(key.FromDOM("b", key.ModCtrl))
	assert.False(t, ok)
	b, ok := table.Lookup(key.FromDOM("K", key.ModCtrl|key.ModShift))
	require.True(t, ok)
	assert.Equal(t, "link", b.Action)
}

func TestChordsFor(t *testing.T) {
	table, err := NewTable("linux", Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"Ctrl+Shift+Z", "Ctrl+Y"}, table.ChordsFor("redo"))
	assert.Equal(t, []string{"Ctrl+B"}, table.ChordsFor("bold"))
	assert.Empty(t, table.ChordsFor("divider"))
}

func TestReplaceKeepsTableOnError(t *testing.T) {
	table, err := NewTable("linux", Default())
	require.NoError(t, err)
	n := table.Len()

	bad := NewKeymap("bad").Add("Hyper+B", "bold")
	assert.Error(t, table.Replace(bad))
	assert.Equal(t, n, table.Len())
}

func TestLoadReader(t *testing.T) {
	yamlSrc := `
name: user
bindings:
  - keys: Mod+Shift+L
    action: link
`
	km, err := LoadReader(strings.NewReader(yamlSrc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "user", km.Name)
	assert.Equal(t, []Binding{{Keys: "Mod+Shift+L", Action: "link"}}, km.Bindings)

	jsonSrc := `{"name":"j","bindings":[{"keys":"Mod+U","action":"underline"}]}`
	km, err = LoadReader(strings.NewReader(jsonSrc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "Mod+U", km.Bindings[0].Keys)

	_, err = LoadReader(strings.NewReader(`{"bindings":[{"keys":"","action":"x"}]}`), FormatJSON)
	assert.Error(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"keys.yaml", "keys.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Default().SaveFile(path))
		km, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, Default().Bindings, km.Bindings)
	}

	_, err := LoadFile(filepath.Join(dir, "keys.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - keys: Mod+J\n    action: bold\n"), 0o644))

	table, err := NewTable("linux", Default())
	require.NoError(t, err)
	w, err := Watch(table, path, nil, Default())
	require.NoError(t, err)
	defer w.Close()

	b, ok := table.Lookup(key.FromDOM("j", key.ModCtrl))
	require.True(t, ok)
	assert.Equal(t, "bold", b.Action)

	require.NoError(t, os.WriteFile(path, []byte("bindings:\n  - keys: Mod+J\n    action: italic\n"), 0o644))
	assert.Eventually(t, func() bool {
		b, ok := table.Lookup(key.FromDOM("j", key.ModCtrl))
		return ok && b.Action == "italic"
	}, 5*time.Second, 20*time.Millisecond)
}
