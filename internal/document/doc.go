// Package document provides the block document model.
//
// A Document is an ordered sequence of typed blocks. The Model owns one
// document and is the only way to change it: every mutator builds an
// Operation carrying the pre-image it needs to be reversed, executes it once
// and records it in the undo history. All mutators funnel through a single
// applyOperation choke point, which
//
//   - discards operations that could still be redone,
//   - executes the new operation,
//   - pushes it to the history, trimming the oldest entries past the limit,
//   - bumps the document version and recomputes word and char counts.
//
// Lookup failures (unknown block ids) are reported as a false return value,
// never as a panic, so a misdirected call cannot corrupt the history.
//
// # Change notification
//
// Listeners registered with OnChange receive one Change per executed or
// reversed primitive operation, after the model lock has been released.
// The block renderer uses this to re-render exactly the affected block.
package document
