// Package editor wires the document model, renderer, selection and input
// handling into one addressable object.
//
// An Editor owns a headless editing surface. Hosts forward key presses,
// input notifications, pastes and drops to it, and read the surface or
// the document back. Every entry point is serialized by the editor, as
// are completions of asynchronous file reads, so the document model sees
// one event at a time.
//
// # Commands
//
// ExecuteCommand accepts a fixed vocabulary:
//
//	bold italic strikethrough code link
//	heading1 heading2 heading3 heading4 paragraph quote
//	bullet number checkbox codeblock
//	image table divider
//	undo redo selectAll
//
// Unknown names return false.
//
// # Saving
//
// With a Storage and a positive auto-save delay, every change schedules a
// save after the delay. A newer change supersedes a scheduled or running
// save: the running save completes, but only the newest save's failure is
// reported to the OnSaveError callback. Saves are never retried.
package editor
