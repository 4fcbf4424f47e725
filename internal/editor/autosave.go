package editor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// scheduleSave starts the auto-save timer over, superseding any scheduled
// or running save.
func (e *Editor) scheduleSave() {
	if e.store == nil || e.saveDelay <= 0 {
		return
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if e.closed {
		return
	}

	e.stopTimerLocked()
	e.saveGen++
	gen := e.saveGen
	e.saves.Add(1)
	e.saveTimer = time.AfterFunc(e.saveDelay, func() {
		defer e.saves.Done()
		e.autoSave(gen)
	})
}

// stopTimerLocked cancels a scheduled save that has not started.
func (e *Editor) stopTimerLocked() {
	if e.saveTimer != nil && e.saveTimer.Stop() {
		e.saves.Done()
	}
	e.saveTimer = nil
}

func (e *Editor) bumpGeneration() uint64 {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	e.saveGen++
	return e.saveGen
}

func (e *Editor) current(gen uint64) bool {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	return gen == e.saveGen
}

func (e *Editor) autoSave(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
	defer cancel()

	err := e.save(ctx, gen)
	if err == nil {
		return
	}
	if !e.current(gen) {
		e.logger.Debug("superseded save failed", zap.Error(err))
		return
	}
	e.logger.Error("auto-save failed", zap.String("document", e.doc.ID()), zap.Error(err))
	if e.onSaveError != nil {
		e.onSaveError(err)
	}
}

// save writes a snapshot. The saved version only advances while gen is
// the newest save.
func (e *Editor) save(ctx context.Context, gen uint64) error {
	snap := e.doc.Snapshot()
	if err := e.store.SaveDocument(ctx, snap.ID, snap); err != nil {
		return fmt.Errorf("saving %s: %w", snap.ID, err)
	}

	e.saveMu.Lock()
	if snap.Version > e.savedVersion {
		e.savedVersion = snap.Version
	}
	e.saveMu.Unlock()
	if e.current(gen) {
		e.logger.Debug("document saved", zap.String("document", snap.ID), zap.Int64("version", snap.Version))
	}
	return nil
}

// Save writes the document now, superseding any pending auto-save. Its
// error is returned rather than reported to OnSaveError.
func (e *Editor) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStorage
	}
	e.saveMu.Lock()
	if e.closed {
		e.saveMu.Unlock()
		return ErrClosed
	}
	e.stopTimerLocked()
	e.saveGen++
	gen := e.saveGen
	e.saveMu.Unlock()

	return e.save(ctx, gen)
}

// Dirty reports whether the document changed since it was last saved or
// loaded.
func (e *Editor) Dirty() bool {
	version := e.doc.Version()
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	return version > e.savedVersion
}
