// Package keymap maps key chords to editor commands.
//
// A Keymap is a named list of bindings as written in a keymap file. A
// Table is the resolved form used at runtime: every binding's chord parsed
// for one platform, so a live key event can be looked up directly.
// Keymaps passed later to a Table override earlier ones chord by chord,
// which is how a user file overrides the defaults.
//
// # Files
//
// Keymap files are JSON or YAML, chosen by extension:
//
//	name: user
//	bindings:
//	  - keys: Mod+Shift+K
//	    action: link
//	  - keys: Mod+B
//	    action: ""      # unbinds the default
//
// An empty action removes the chord from the table.
//
// # Usage
//
//	table, err := keymap.NewTable("darwin", keymap.Default())
//	if b, ok := table.Lookup(key.FromDOM("b", key.ModMeta)); ok {
//	    // run b.Action
//	}
package keymap
