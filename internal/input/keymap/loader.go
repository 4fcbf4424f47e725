package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a keymap file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for files whose extension is not .json,
// .yaml or .yml.
var ErrUnknownFormat = errors.New("unknown keymap format")

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadFile loads and validates a keymap file.
func LoadFile(path string) (*Keymap, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	km, err := LoadReader(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if km.Name == "" {
		km.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return km, nil
}

// LoadReader decodes and validates a keymap.
func LoadReader(r io.Reader, format Format) (*Keymap, error) {
	km := &Keymap{}
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(km); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(km); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}

// SaveFile writes a keymap in the format implied by the path.
func (k *Keymap) SaveFile(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var data []byte
	if format == FormatYAML {
		data, err = yaml.Marshal(k)
	} else {
		data, err = json.MarshalIndent(k, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling keymap: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing keymap file: %w", err)
	}
	return nil
}
