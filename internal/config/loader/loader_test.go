package loader

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"
)

func TestReadTOML(t *testing.T) {
	fsys := fstest.MapFS{"blockedit.toml": {Data: []byte(`
[editor]
historySize = 50
autoSaveDelay = "2s"

[storage]
backend = "badger"
`)}}

	tree, err := ReadTOML(fsys, "blockedit.toml", 4)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"editor":  map[string]any{"historySize": int64(50), "autoSaveDelay": "2s"},
		"storage": map[string]any{"backend": "badger"},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("ReadTOML = %#v, want %#v", tree, want)
	}
}

func TestReadTOMLMissingFile(t *testing.T) {
	tree, err := ReadTOML(fstest.MapFS{}, "absent.toml", 4)
	if err != nil || tree != nil {
		t.Errorf("ReadTOML = %v, %v; want nil, nil", tree, err)
	}
}

func TestReadTOMLParseError(t *testing.T) {
	fsys := fstest.MapFS{"bad.toml": {Data: []byte("[editor]\nhistorySize = = 3\n")}}

	_, err := ReadTOML(fsys, "bad.toml", 4)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Path != "bad.toml" || pe.Line != 2 {
		t.Errorf("ParseError = %+v, want bad.toml line 2", pe)
	}
	if !strings.HasPrefix(pe.Error(), "bad.toml:2:") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestReadTOMLIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"conf/main.toml": {Data: []byte(`
include = ["storage.toml", "logging.toml"]

[storage]
prefix = "main"
`)},
		"conf/storage.toml": {Data: []byte("[storage]\nbackend = \"redis\"\nprefix = \"included\"\n")},
		"conf/logging.toml": {Data: []byte("[logging]\nlevel = \"warn\"\n")},
	}

	tree, err := ReadTOML(fsys, "conf/main.toml", 4)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"storage": map[string]any{"backend": "redis", "prefix": "main"},
		"logging": map[string]any{"level": "warn"},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("ReadTOML = %#v, want %#v", tree, want)
	}
}

func TestReadTOMLIncludeErrors(t *testing.T) {
	tests := []struct {
		name  string
		fsys  fstest.MapFS
		depth int
		want  error
	}{
		{
			name:  "cycle",
			fsys:  fstest.MapFS{"a.toml": {Data: []byte(`include = "b.toml"`)}, "b.toml": {Data: []byte(`include = "a.toml"`)}},
			depth: 8,
			want:  ErrIncludeCycle,
		},
		{
			name: "depth",
			fsys: fstest.MapFS{
				"a.toml": {Data: []byte(`include = "b.toml"`)},
				"b.toml": {Data: []byte(`include = "c.toml"`)},
				"c.toml": {Data: []byte(`x = 1`)},
			},
			depth: 1,
			want:  ErrIncludeDepth,
		},
	}
	for _, tt := range tests {
		if _, err := ReadTOML(tt.fsys, "a.toml", tt.depth); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}

	missing := fstest.MapFS{"a.toml": {Data: []byte(`include = "gone.toml"`)}}
	if _, err := ReadTOML(missing, "a.toml", 4); err == nil {
		t.Error("a missing include should be an error")
	}
	wrong := fstest.MapFS{"a.toml": {Data: []byte(`include = 3`)}}
	var pe *ParseError
	if _, err := ReadTOML(wrong, "a.toml", 4); !errors.As(err, &pe) {
		t.Errorf("error = %v, want *ParseError", err)
	}
}

func TestMerge(t *testing.T) {
	dst := map[string]any{
		"editor":  map[string]any{"historySize": int64(100), "platform": "linux"},
		"logging": map[string]any{"level": "info"},
	}
	src := map[string]any{
		"editor": map[string]any{"historySize": int64(10)},
		"server": map[string]any{"addr": ":1"},
	}

	got := Merge(dst, src)
	want := map[string]any{
		"editor":  map[string]any{"historySize": int64(10), "platform": "linux"},
		"logging": map[string]any{"level": "info"},
		"server":  map[string]any{"addr": ":1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %#v, want %#v", got, want)
	}
	if dst["editor"].(map[string]any)["historySize"] != int64(100) {
		t.Error("Merge modified dst")
	}
}

func TestEnvRead(t *testing.T) {
	env := NewEnv("BLOCKEDIT_")
	env.Environ = func() []string {
		return []string{
			"BLOCKEDIT_EDITOR_HISTORY_SIZE=25",
			"BLOCKEDIT_LOG_LEVEL=debug",
			"BLOCKEDIT_STORAGE_URL=redis://localhost:6379/0",
			"BLOCKEDIT_KEYMAP_WATCH=",
			"BLOCKEDIT_=ignored",
			"OTHER_EDITOR_HISTORY_SIZE=1",
		}
	}

	want := map[string]any{
		"editor":  map[string]any{"historySize": "25"},
		"logging": map[string]any{"level": "debug"},
		"storage": map[string]any{"url": "redis://localhost:6379/0"},
		"keymap":  map[string]any{"watch": ""},
	}
	if got := env.Read(); !reflect.DeepEqual(got, want) {
		t.Errorf("Read = %#v, want %#v", got, want)
	}
}

func TestSettingPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"EDITOR_HISTORY_SIZE", "editor.historySize"},
		{"EDITOR_AUTO_SAVE_DELAY", "editor.autoSaveDelay"},
		{"SERVER_ADDR", "server.addr"},
		{"SIMPLE", "simple"},
	}
	for _, tt := range tests {
		if got := SettingPath(tt.name); got != tt.want {
			t.Errorf("SettingPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
