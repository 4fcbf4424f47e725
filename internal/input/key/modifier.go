package key

import (
	"runtime"
	"strings"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS).
	ModMeta
)

// Has returns true if m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns m with mod added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns m with mod removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// String returns the modifiers in chord order, e.g. "Ctrl+Alt+Shift".
func (m Modifier) String() string {
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// Primary returns the primary shortcut modifier of a platform named like
// runtime.GOOS: Meta on darwin, Ctrl elsewhere.
func Primary(platform string) Modifier {
	if platform == "darwin" {
		return ModMeta
	}
	return ModCtrl
}

// HostPlatform is the platform chords resolve Mod against by default.
func HostPlatform() string {
	return runtime.GOOS
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
	"meta":    ModMeta,
	"cmd":     ModMeta,
	"command": ModMeta,
	"super":   ModMeta,
}

// modifierFromName resolves a modifier name. "mod" resolves to the
// primary modifier of platform.
func modifierFromName(name, platform string) Modifier {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "mod" {
		return Primary(platform)
	}
	return modifierNames[name]
}
