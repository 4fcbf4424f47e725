package app

import (
	"testing"
	"time"
)

func TestMetrics_Commands(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand(10*time.Millisecond, true)
	m.RecordCommand(30*time.Millisecond, false)

	snap := m.Snapshot()
	if snap.Commands != 2 {
		t.Errorf("Commands = %d, expected 2", snap.Commands)
	}
	if snap.CommandsNoop != 1 {
		t.Errorf("CommandsNoop = %d, expected 1", snap.CommandsNoop)
	}
	if snap.AvgCommandTimeNs != (20 * time.Millisecond).Nanoseconds() {
		t.Errorf("AvgCommandTimeNs = %d", snap.AvgCommandTimeNs)
	}
	if snap.MaxCommandTimeNs != (30 * time.Millisecond).Nanoseconds() {
		t.Errorf("MaxCommandTimeNs = %d", snap.MaxCommandTimeNs)
	}
}

func TestMetrics_Sessions(t *testing.T) {
	m := NewMetrics()
	m.RecordOpen()
	m.RecordOpen()
	m.RecordClose()
	m.RecordSaveError()

	snap := m.Snapshot()
	if snap.OpenSessions != 1 || snap.SessionsOpened != 2 {
		t.Errorf("sessions = %d open of %d, expected 1 of 2", snap.OpenSessions, snap.SessionsOpened)
	}
	if snap.SaveErrors != 1 {
		t.Errorf("SaveErrors = %d, expected 1", snap.SaveErrors)
	}
	if snap.AvgCommandTimeNs != 0 {
		t.Error("average should be zero without commands")
	}
}
