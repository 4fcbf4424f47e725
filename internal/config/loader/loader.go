// Package loader reads configuration sources into nested maps.
//
// Each source produces a map[string]any keyed by section and setting
// name. TOML files are read from an fs.FS so tests can use an in-memory
// tree; environment variables are returned as raw strings and typed by
// the caller.
package loader

import (
	"io/fs"
	"os"
)

// OS reads files from the host file system. Unlike os.DirFS it takes
// absolute and relative host paths as they are.
type OS struct{}

// Open implements fs.FS.
func (OS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile implements fs.ReadFileFS.
func (OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Merge returns dst overlaid with src. Tables merge key by key; any other
// value in src replaces the one in dst. Neither input is modified.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if base, ok := out[k].(map[string]any); ok {
				out[k] = Merge(base, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func set(tree map[string]any, path []string, value any) {
	for _, k := range path[:len(path)-1] {
		sub, ok := tree[k].(map[string]any)
		if !ok {
			sub = map[string]any{}
			tree[k] = sub
		}
		tree = sub
	}
	tree[path[len(path)-1]] = value
}
