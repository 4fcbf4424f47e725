package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts editing activity across sessions.
type Metrics struct {
	sessionsOpened atomic.Uint64
	sessionsClosed atomic.Uint64

	commandCount   atomic.Uint64
	commandFailed  atomic.Uint64
	commandTotalNs atomic.Int64
	commandMaxNs   atomic.Int64

	saveErrors atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordOpen records a session being opened.
func (m *Metrics) RecordOpen() {
	m.sessionsOpened.Add(1)
}

// RecordClose records a session being closed.
func (m *Metrics) RecordClose() {
	m.sessionsClosed.Add(1)
}

// RecordCommand records one editor command and whether it changed
// anything.
func (m *Metrics) RecordCommand(duration time.Duration, applied bool) {
	ns := duration.Nanoseconds()
	m.commandCount.Add(1)
	m.commandTotalNs.Add(ns)
	if !applied {
		m.commandFailed.Add(1)
	}

	for {
		old := m.commandMaxNs.Load()
		if ns <= old || m.commandMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSaveError records a failed auto-save.
func (m *Metrics) RecordSaveError() {
	m.saveErrors.Add(1)
}

// MetricsSnapshot is a point-in-time copy of the metrics.
type MetricsSnapshot struct {
	Uptime           time.Duration `json:"uptime"`
	OpenSessions     uint64        `json:"openSessions"`
	SessionsOpened   uint64        `json:"sessionsOpened"`
	Commands         uint64        `json:"commands"`
	CommandsNoop     uint64        `json:"commandsNoop"`
	AvgCommandTimeNs int64         `json:"avgCommandTimeNs"`
	MaxCommandTimeNs int64         `json:"maxCommandTimeNs"`
	SaveErrors       uint64        `json:"saveErrors"`
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	count := m.commandCount.Load()
	var avg int64
	if count > 0 {
		avg = m.commandTotalNs.Load() / int64(count)
	}
	opened := m.sessionsOpened.Load()
	return MetricsSnapshot{
		Uptime:           time.Since(m.startTime),
		OpenSessions:     opened - m.sessionsClosed.Load(),
		SessionsOpened:   opened,
		Commands:         count,
		CommandsNoop:     m.commandFailed.Load(),
		AvgCommandTimeNs: avg,
		MaxCommandTimeNs: m.commandMaxNs.Load(),
		SaveErrors:       m.saveErrors.Load(),
	}
}
