package keymap

// Default returns the built-in editing shortcuts. Actions are editor
// command names.
func Default() *Keymap {
	return &Keymap{
		Name: "default",
		Bindings: []Binding{
			// Inline styles
			{Keys: "Mod+B", Action: "bold", Description: "Toggle bold"},
			{Keys: "Mod+I", Action: "italic", Description: "Toggle italic"},
			{Keys: "Mod+Shift+S", Action: "strikethrough", Description: "Toggle strikethrough"},
			{Keys: "Mod+E", Action: "code", Description: "Toggle inline code"},
			{Keys: "Mod+K", Action: "link", Description: "Insert link"},

			// History
			{Keys: "Mod+Z", Action: "undo", Description: "Undo"},
			{Keys: "Mod+Shift+Z", Action: "redo", Description: "Redo"},
			{Keys: "Mod+Y", Action: "redo", Description: "Redo"},

			// Block types
			{Keys: "Mod+Alt+0", Action: "paragraph", Description: "Turn into paragraph"},
			{Keys: "Mod+Alt+1", Action: "heading1", Description: "Turn into heading 1"},
			{Keys: "Mod+Alt+2", Action: "heading2", Description: "Turn into heading 2"},
			{Keys: "Mod+Alt+3", Action: "heading3", Description: "Turn into heading 3"},
			{Keys: "Mod+Alt+4", Action: "heading4", Description: "Turn into heading 4"},
			{Keys: "Mod+Shift+7", Action: "number", Description: "Turn into numbered list"},
			{Keys: "Mod+Shift+8", Action: "bullet", Description: "Turn into bullet list"},
			{Keys: "Mod+Shift+9", Action: "checkbox", Description: "Turn into checklist"},

			// Selection
			{Keys: "Mod+A", Action: "selectAll", Description: "Select all"},
		},
	}
}
