package key

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Event is a single key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events, as typed.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// shiftedDigits maps the characters a US layout reports for Shift+digit
// back to the digit, so "Mod+Shift+7" matches a key typed as "&".
var shiftedDigits = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
}

// NewRune returns an event for a character key.
func NewRune(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecial returns an event for a non-character key.
func NewSpecial(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// FromDOM builds an event from a browser key name and the live modifier
// state. A bare modifier press, or a name that is neither a known key nor
// a single character, yields an event with Key == KeyNone.
func FromDOM(name string, mods Modifier) Event {
	if name == "" || IsModifierName(name) {
		return Event{}
	}
	if k := FromName(name); k != KeyNone {
		return NewSpecial(k, mods)
	}
	r, size := utf8.DecodeRuneInString(name)
	if size != len(name) || r == utf8.RuneError {
		return Event{}
	}
	return NewRune(r, mods)
}

// IsNone reports whether the event carries no key.
func (e Event) IsNone() bool {
	return e.Key == KeyNone
}

// IsChar reports whether the event types a printable character, that is a
// rune with at most Shift held.
func (e Event) IsChar() bool {
	return e.Key == KeyRune && unicode.IsPrint(e.Rune) &&
		e.Modifiers.Without(ModShift) == ModNone
}

// Is reports whether the event is k with exactly mods held.
func (e Event) Is(k Key, mods Modifier) bool {
	return e.Key == k && e.Modifiers == mods
}

// Chord returns the canonical chord string, e.g. "Ctrl+Shift+Z" or
// "Alt+Left". Letters are upper case and shifted digits are reported as
// the digit. It is empty for KeyNone.
func (e Event) Chord() string {
	if e.Key == KeyNone {
		return ""
	}
	name := e.Key.String()
	if e.Key == KeyRune {
		r := e.Rune
		if d, ok := shiftedDigits[r]; ok && e.Modifiers.Has(ModShift) {
			r = d
		}
		name = strings.ToUpper(string(r))
	}
	if e.Modifiers == ModNone {
		return name
	}
	return e.Modifiers.String() + "+" + name
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return e.Chord()
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key, e.Rune, e.Modifiers)
}
