// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
	"github.com/tomtom215/tabula/internal/models"
)

// UpdateFunc persists one partial display document.
type UpdateFunc func(ctx context.Context, id string, patch models.DisplayPatch) error

// Debouncer coalesces rapid save requests into a single trailing-edge
// write. Each Schedule call replaces the pending write wholesale and
// restarts the delay; when the delay elapses without another call, the
// last supplied patch is persisted against the id captured at schedule
// time. Callers who want several fields persisted in one window must
// pass the full accumulated partial each time, because pending patches
// are replaced, never merged.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timeout time.Duration
	update  UpdateFunc

	timer   *time.Timer
	pending *pendingWrite
	inMu    sync.Mutex // serializes in-flight writes for Flush
}

type pendingWrite struct {
	id    string
	patch models.DisplayPatch
}

// NewDebouncer returns a debouncer that persists through update after
// delay of inactivity. timeout bounds each write request.
func NewDebouncer(update UpdateFunc, delay, timeout time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Debouncer{delay: delay, timeout: timeout, update: update}
}

// Schedule records patch as the pending write for id and restarts the
// delay. The id is captured now, so a later selection change cannot
// redirect an already scheduled write to a different display.
func (d *Debouncer) Schedule(id string, patch models.DisplayPatch) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		metrics.ConsoleDebounceCoalesced.Inc()
	}
	d.pending = &pendingWrite{id: id, patch: patch}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush persists any pending write immediately and waits for it to
// complete. Used on session teardown so edits made just before closing
// are not lost.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	w := d.pending
	d.pending = nil
	d.mu.Unlock()

	if w != nil {
		d.write(w)
	}
	// Wait out a concurrent timer-triggered write as well.
	d.inMu.Lock()
	d.inMu.Unlock() //nolint:staticcheck // empty critical section is the barrier
}

// Cancel drops any pending write without persisting it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	w := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if w == nil {
		return
	}
	d.write(w)
}

func (d *Debouncer) write(w *pendingWrite) {
	d.inMu.Lock()
	defer d.inMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	metrics.ConsoleDebounceFlushes.Inc()
	if err := d.update(ctx, w.id, w.patch); err != nil {
		metrics.ConsoleWriteErrors.Inc()
		logging.Error().
			Err(err).
			Str("component", "console").
			Str("display_id", w.id).
			Msg("debounced display write failed")
	}
}
