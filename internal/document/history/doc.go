// Package history provides the undo/redo log of the document model.
//
// The log is a cursor-addressed list of reversible commands:
//
//	h := history.New(100) // keep at most 100 undo steps
//
//	h.DiscardRedo()       // drop everything after the cursor
//	cmd.Execute()
//	h.Push(cmd)           // cursor now points at cmd
//
//	h.Undo()              // cmd.Reverse(), cursor moves back
//	h.Redo()              // cmd.Execute(), cursor moves forward
//
// The cursor (CurrentIndex) always points at the last applied command, or
// -1 when nothing is applied. Redo is possible only while the cursor is
// before the tail. When the log grows past its maximum size the oldest
// commands are dropped first.
//
// # Grouping
//
// Several commands can be recorded as one undo step:
//
//	h.BeginGroup("Paste")
//	// ... execute and push commands ...
//	h.EndGroup()
//
// A History is not safe for concurrent use; its owner serializes access.
package history
