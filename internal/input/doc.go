// Package input turns user input on the editing surface into document
// operations.
//
// The Handler receives four kinds of events:
//
//   - Key presses. Bound chords run editor commands through the keymap
//     table. Enter, Backspace, Delete, Tab and the arrow keys are handled
//     structurally: splitting, merging, demoting and moving the caret
//     across blocks. Printable characters are typed at the caret.
//   - Input notifications from hosts that edit the surface themselves.
//     The edited block is read back into the model.
//   - Paste, from a Clipboard offering image files, HTML or plain text.
//   - Drop of files. Images are read asynchronously and inserted as image
//     blocks carrying a data URI.
//
// After every text change the block is checked for markdown shortcuts
// such as "# " or "- ". The first matching trigger wins; it is stripped
// and the block is retyped in a single undo step.
package input
