package history

import (
	"errors"
	"time"
)

// DefaultMaxSize is the number of undo steps kept when none is configured.
const DefaultMaxSize = 100

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

type entry struct {
	command   Command
	timestamp time.Time
}

// History is an append-only, cursor-addressed log of commands.
type History struct {
	entries      []entry
	currentIndex int
	maxSize      int

	// Grouping state
	grouping bool
	group    *Group
}

// New creates a history keeping at most maxSize commands.
func New(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{
		currentIndex: -1,
		maxSize:      maxSize,
	}
}

// DiscardRedo drops every command after the cursor and returns how many
// were dropped. Dropped commands are never merged back.
func (h *History) DiscardRedo() int {
	tail := len(h.entries) - (h.currentIndex + 1)
	if tail <= 0 {
		return 0
	}
	for i := h.currentIndex + 1; i < len(h.entries); i++ {
		h.entries[i] = entry{}
	}
	h.entries = h.entries[:h.currentIndex+1]
	return tail
}

// Push records an already executed command and moves the cursor onto it.
// While a group is open the command joins the group instead. Push returns
// the number of old commands trimmed from the front to respect the size
// limit.
func (h *History) Push(cmd Command) int {
	if h.grouping {
		h.group.Add(cmd)
		return 0
	}
	return h.pushEntry(cmd)
}

func (h *History) pushEntry(cmd Command) int {
	h.DiscardRedo()
	h.entries = append(h.entries, entry{command: cmd, timestamp: time.Now()})
	h.currentIndex = len(h.entries) - 1
	return h.trim()
}

// trim removes the oldest commands beyond maxSize.
func (h *History) trim() int {
	excess := len(h.entries) - h.maxSize
	if excess <= 0 {
		return 0
	}
	kept := make([]entry, len(h.entries)-excess)
	copy(kept, h.entries[excess:])
	h.entries = kept
	h.currentIndex -= excess
	if h.currentIndex < -1 {
		h.currentIndex = -1
	}
	return excess
}

// Undo reverses the command at the cursor and moves the cursor back.
// It returns ErrNothingToUndo at the start of the log. When Reverse fails
// the cursor does not move.
func (h *History) Undo() error {
	if h.currentIndex < 0 {
		return ErrNothingToUndo
	}
	if err := h.entries[h.currentIndex].command.Reverse(); err != nil {
		return err
	}
	h.currentIndex--
	return nil
}

// Redo re-executes the command after the cursor and moves the cursor
// forward. It returns ErrNothingToRedo at the tail of the log.
func (h *History) Redo() error {
	if !h.CanRedo() {
		return ErrNothingToRedo
	}
	if err := h.entries[h.currentIndex+1].command.Execute(); err != nil {
		return err
	}
	h.currentIndex++
	return nil
}

// CanUndo reports whether a command is applied.
func (h *History) CanUndo() bool {
	return h.currentIndex >= 0
}

// CanRedo reports whether the cursor is before the tail.
func (h *History) CanRedo() bool {
	return h.currentIndex < len(h.entries)-1
}

// CurrentIndex returns the index of the last applied command, or -1.
func (h *History) CurrentIndex() int {
	return h.currentIndex
}

// Len returns the number of logged commands, applied or not.
func (h *History) Len() int {
	return len(h.entries)
}

// MaxSize returns the size limit.
func (h *History) MaxSize() int {
	return h.maxSize
}

// SetMaxSize changes the size limit, trimming the oldest commands if the
// log is already larger.
func (h *History) SetMaxSize(max int) {
	if max <= 0 {
		max = DefaultMaxSize
	}
	h.maxSize = max
	h.trim()
}

// Commands returns the logged commands in order.
func (h *History) Commands() []Command {
	out := make([]Command, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.command
	}
	return out
}

// UndoInfo describes the applied commands, oldest first.
func (h *History) UndoInfo() []Info {
	return h.info(0, h.currentIndex+1)
}

// RedoInfo describes the undone commands, next redo first.
func (h *History) RedoInfo() []Info {
	return h.info(h.currentIndex+1, len(h.entries))
}

func (h *History) info(from, to int) []Info {
	out := make([]Info, 0, to-from)
	for _, e := range h.entries[from:to] {
		out = append(out, Info{
			Description: e.command.Description(),
			Timestamp:   e.timestamp,
		})
	}
	return out
}

// Clear removes every command and any open group.
func (h *History) Clear() {
	h.entries = nil
	h.currentIndex = -1
	h.grouping = false
	h.group = nil
}

// BeginGroup starts collecting pushed commands into one undo step.
// Nested calls are ignored; the outermost group wins.
func (h *History) BeginGroup(name string) bool {
	if h.grouping {
		return false
	}
	h.grouping = true
	h.group = NewGroup(name)
	return true
}

// EndGroup closes the open group and records it as one command. An empty
// group records nothing.
func (h *History) EndGroup() {
	if !h.grouping {
		return
	}
	g := h.group
	h.grouping = false
	h.group = nil
	if g.IsEmpty() {
		return
	}
	if len(g.Commands) == 1 {
		h.pushEntry(g.Commands[0])
		return
	}
	h.pushEntry(g)
}

// IsGrouping reports whether a group is open.
func (h *History) IsGrouping() bool {
	return h.grouping
}
