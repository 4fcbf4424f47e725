package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// IncludeKey is the top-level key naming files merged beneath the file
// that lists them. Relative names are resolved against that file.
const IncludeKey = "include"

// ReadTOML reads the TOML file at path together with its includes. A
// missing file yields nil and no error; a missing include is an error.
func ReadTOML(fsys fs.FS, path string, maxDepth int) (map[string]any, error) {
	r := includeReader{fsys: fsys, maxDepth: maxDepth, open: map[string]bool{}}
	return r.read(path, 0, true)
}

// ParseTOML decodes data. source names the data in errors.
func ParseTOML(source string, data []byte) (map[string]any, error) {
	tree := map[string]any{}
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, NewParseError(source, err)
	}
	return tree, nil
}

type includeReader struct {
	fsys     fs.FS
	maxDepth int
	open     map[string]bool // files on the current include chain
}

func (r *includeReader) read(path string, depth int, optional bool) (map[string]any, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepth, path)
	}
	if r.open[path] {
		return nil, fmt.Errorf("%w: %s", ErrIncludeCycle, path)
	}
	data, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := ParseTOML(path, data)
	if err != nil {
		return nil, err
	}
	names, err := includes(path, tree)
	if err != nil || len(names) == 0 {
		return tree, err
	}

	r.open[path] = true
	defer delete(r.open, path)
	base := map[string]any{}
	for _, name := range names {
		if !filepath.IsAbs(name) {
			name = filepath.Join(filepath.Dir(path), name)
		}
		sub, err := r.read(name, depth+1, false)
		if err != nil {
			return nil, fmt.Errorf("include from %s: %w", path, err)
		}
		base = Merge(base, sub)
	}
	return Merge(base, tree), nil
}

// includes removes IncludeKey from tree and returns the names it held.
func includes(path string, tree map[string]any) ([]string, error) {
	v, ok := tree[IncludeKey]
	if !ok {
		return nil, nil
	}
	delete(tree, IncludeKey)
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ParseError{Path: path, Message: IncludeKey + " must list file names"}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &ParseError{Path: path, Message: fmt.Sprintf("%s must be a string or an array, got %T", IncludeKey, v)}
}
