package document

import (
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockedit/internal/document/history"
)

// Option configures a Model during creation.
type Option func(*Model)

// WithID sets the document id. A random id is used otherwise.
func WithID(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.doc.ID = id
		}
	}
}

// WithHistorySize sets the maximum number of undo steps.
func WithHistorySize(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.historySize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used for metadata timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithBlocks sets the initial blocks without recording history.
func WithBlocks(blocks ...Block) Option {
	return func(m *Model) {
		m.doc.Blocks = make([]Block, len(blocks))
		for i, b := range blocks {
			m.doc.Blocks[i] = cleanBlock(b.Clone())
		}
		assignIDs(m.doc.Blocks, map[string]bool{})
	}
}

func defaultHistorySize() int {
	return history.DefaultMaxSize
}
