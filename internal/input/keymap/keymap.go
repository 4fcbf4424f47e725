package keymap

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/blockedit/internal/input/key"
)

// Binding maps one chord to a command name.
type Binding struct {
	// Keys is the chord, e.g. "Mod+B" or "Mod+Alt+1".
	Keys string `json:"keys" yaml:"keys"`

	// Action is the editor command to run. Empty unbinds Keys.
	Action string `json:"action" yaml:"action"`

	// Description documents the binding.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Keymap is a named collection of bindings.
type Keymap struct {
	Name     string    `json:"name" yaml:"name"`
	Bindings []Binding `json:"bindings" yaml:"bindings"`
}

// NewKeymap creates an empty keymap.
func NewKeymap(name string) *Keymap {
	return &Keymap{Name: name}
}

// Add adds a binding and returns the keymap for chaining.
func (k *Keymap) Add(keys, action string) *Keymap {
	k.Bindings = append(k.Bindings, Binding{Keys: keys, Action: action})
	return k
}

// Validate checks that every chord parses.
func (k *Keymap) Validate() error {
	for i, b := range k.Bindings {
		if b.Keys == "" {
			return fmt.Errorf("binding %d: empty keys", i)
		}
		if _, err := key.ParseFor(b.Keys, "linux"); err != nil {
			return fmt.Errorf("binding %d (%s): %w", i, b.Keys, err)
		}
	}
	return nil
}

// Table resolves keymaps for one platform.
type Table struct {
	mu       sync.RWMutex
	platform string
	bindings map[string]Binding
}

// NewTable resolves keymaps in order; later bindings win.
func NewTable(platform string, keymaps ...*Keymap) (*Table, error) {
	t := &Table{platform: platform}
	if err := t.Replace(keymaps...); err != nil {
		return nil, err
	}
	return t, nil
}

// Platform returns the platform Mod resolves against.
func (t *Table) Platform() string {
	return t.platform
}

// Replace swaps the table contents for keymaps. On error the table is
// left unchanged.
func (t *Table) Replace(keymaps ...*Keymap) error {
	bindings := make(map[string]Binding)
	for _, km := range keymaps {
		if km == nil {
			continue
		}
		for _, b := range km.Bindings {
			ev, err := key.ParseFor(b.Keys, t.platform)
			if err != nil {
				return fmt.Errorf("keymap %q: %w", km.Name, err)
			}
			chord := ev.Chord()
			if b.Action == "" {
				delete(bindings, chord)
				continue
			}
			bindings[chord] = b
		}
	}

	t.mu.Lock()
	t.bindings = bindings
	t.mu.Unlock()
	return nil
}

// Lookup returns the binding for a key event.
func (t *Table) Lookup(ev key.Event) (Binding, bool) {
	chord := ev.Chord()
	if chord == "" {
		return Binding{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.bindings[chord]
	return b, ok
}

// Chords returns the bound chords in sorted order.
func (t *Table) Chords() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.bindings))
	for c := range t.bindings {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// ChordsFor returns the chords bound to action in sorted order.
func (t *Table) ChordsFor(action string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for c, b := range t.bindings {
		if b.Action == action {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// Len returns the number of bound chords.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.bindings)
}
