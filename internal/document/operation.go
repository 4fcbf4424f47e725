package document

import (
	"fmt"
	"time"
)

// OpKind tags an Operation.
type OpKind string

// Operation kinds.
const (
	OpInsert OpKind = "insert"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpMove   OpKind = "move"
	OpStyle  OpKind = "style"
)

// Operation is a recorded, exactly reversible document mutation.
//
// Before and After hold full block snapshots taken when the operation was
// created. Index is the block position before the operation (for delete
// and move) or the insertion position (for insert); NewIndex is the target
// of a move. Reverse works from these fields alone.
type Operation struct {
	Kind      OpKind
	BlockID   string
	Index     int
	NewIndex  int
	Before    *Block
	After     *Block
	Timestamp time.Time

	model *Model
}

// Execute applies the operation to its model.
func (op *Operation) Execute() error {
	m := op.model
	switch op.Kind {
	case OpInsert:
		return m.insertAt(op.After.Clone(), op.Index)
	case OpDelete:
		_, err := m.removeByID(op.BlockID)
		return err
	case OpUpdate, OpStyle:
		return m.replace(op.After.Clone())
	case OpMove:
		return m.move(op.BlockID, op.NewIndex)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
}

// Reverse restores the state that existed before Execute.
func (op *Operation) Reverse() error {
	m := op.model
	switch op.Kind {
	case OpInsert:
		_, err := m.removeByID(op.BlockID)
		return err
	case OpDelete:
		return m.insertAt(op.Before.Clone(), op.Index)
	case OpUpdate, OpStyle:
		return m.replace(op.Before.Clone())
	case OpMove:
		return m.move(op.BlockID, op.Index)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
}

// Description returns a human-readable description.
func (op *Operation) Description() string {
	switch op.Kind {
	case OpInsert:
		return fmt.Sprintf("Insert %s", op.After.Type)
	case OpDelete:
		return fmt.Sprintf("Delete %s", op.Before.Type)
	case OpMove:
		return fmt.Sprintf("Move block %d to %d", op.Index, op.NewIndex)
	case OpStyle:
		return "Format text"
	case OpUpdate:
		if op.Before.Type != op.After.Type {
			return fmt.Sprintf("Turn %s into %s", op.Before.Type, op.After.Type)
		}
		return fmt.Sprintf("Edit %s", op.After.Type)
	}
	return string(op.Kind)
}

func snapshot(b Block) *Block {
	c := b.Clone()
	return &c
}
