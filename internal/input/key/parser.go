package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a chord for the host platform. See ParseFor.
func Parse(spec string) (Event, error) {
	return ParseFor(spec, HostPlatform())
}

// ParseFor parses a chord specification. Mod resolves against platform.
//
// Supported formats:
//   - Single key: "a", "Enter", "Backspace", "Left"
//   - With modifiers: "Mod+B", "Ctrl+Shift+Z", "Mod+Alt+1"
//   - The plus key itself: "Mod++"
func ParseFor(spec, platform string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	var mods Modifier
	keyPart := spec
	if len(spec) > 1 && strings.Contains(spec, "+") {
		var head, tail string
		if strings.HasSuffix(spec, "++") {
			head, tail = spec[:len(spec)-2], "+"
		} else {
			i := strings.LastIndex(spec, "+")
			head, tail = spec[:i], spec[i+1:]
		}
		for _, p := range strings.Split(head, "+") {
			mod := modifierFromName(p, platform)
			if mod == ModNone {
				return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
			}
			mods = mods.With(mod)
		}
		keyPart = strings.TrimSpace(tail)
	}
	return parseKey(keyPart, mods)
}

func parseKey(keyPart string, mods Modifier) (Event, error) {
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}
	if k := FromName(keyPart); k != KeyNone {
		return NewSpecial(k, mods), nil
	}
	if utf8.RuneCountInString(keyPart) == 1 {
		r, _ := utf8.DecodeRuneInString(keyPart)
		return NewRune(r, mods), nil
	}
	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a chord and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}

// Normalize parses spec for platform and returns its canonical chord.
func Normalize(spec, platform string) (string, error) {
	event, err := ParseFor(spec, platform)
	if err != nil {
		return "", err
	}
	return event.Chord(), nil
}
