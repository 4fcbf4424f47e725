// Package key provides key events and chord parsing for the input handler.
//
// A chord is a single key pressed together with zero or more modifiers.
// Chords are written "Mod+B", "Ctrl+Shift+Z" or "Alt+Left". The Mod alias
// names the primary modifier of the platform: Meta on darwin and Ctrl
// everywhere else.
//
// Events arrive from the editing surface the way a browser reports them:
// a key name such as "b", "Enter" or "ArrowLeft" plus the live modifier
// state. FromDOM turns that into an Event whose Chord string can be looked
// up in a keymap.
package key
