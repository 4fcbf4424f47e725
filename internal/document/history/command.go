package history

import (
	"fmt"
	"time"
)

// Command is a recorded, reversible change.
//
// Execute applies the change. Reverse restores the state that existed before
// Execute from data the command captured when it was created, never from
// the current state of its target.
type Command interface {
	Execute() error
	Reverse() error
	Description() string
}

// Group bundles commands that undo and redo as one step.
type Group struct {
	Name     string
	Commands []Command
}

// NewGroup creates a group of commands.
func NewGroup(name string, commands ...Command) *Group {
	return &Group{Name: name, Commands: commands}
}

// Execute runs all commands in order. On failure the commands already run
// are reversed.
func (g *Group) Execute() error {
	for i, cmd := range g.Commands {
		if err := cmd.Execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.Commands[j].Reverse()
			}
			return fmt.Errorf("group %q step %d: %w", g.Name, i, err)
		}
	}
	return nil
}

// Reverse reverses all commands in reverse order.
func (g *Group) Reverse() error {
	for i := len(g.Commands) - 1; i >= 0; i-- {
		if err := g.Commands[i].Reverse(); err != nil {
			return fmt.Errorf("reverse group %q step %d: %w", g.Name, i, err)
		}
	}
	return nil
}

// Description returns the group name, or the description of its only
// command.
func (g *Group) Description() string {
	if g.Name != "" {
		return g.Name
	}
	if len(g.Commands) == 1 {
		return g.Commands[0].Description()
	}
	return fmt.Sprintf("%d operations", len(g.Commands))
}

// Add appends a command to the group.
func (g *Group) Add(cmd Command) {
	g.Commands = append(g.Commands, cmd)
}

// IsEmpty reports whether the group has no commands.
func (g *Group) IsEmpty() bool {
	return len(g.Commands) == 0
}

// Info describes a logged command for display.
type Info struct {
	Description string
	Timestamp   time.Time
}
