// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package sse implements the per-display server-sent-event dispatcher.
// The dispatcher owns a registry mapping display ids to the set of open
// event streams for that display. Dispatching to an id with no open
// streams is a silent no-op: the display picks the change up on its next
// reload, so a missed push costs latency, not correctness.
package sse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
	"github.com/tomtom215/tabula/internal/models"
)

// ErrTooManyStreams is returned when a display reaches its concurrent
// connection cap.
var ErrTooManyStreams = errors.New("too many open streams for display")

// Envelope is one named event queued for a stream.
type Envelope struct {
	Event string
	Data  []byte
}

// Stream is one open client connection's event queue.
type Stream struct {
	displayID string
	ch        chan Envelope
	done      chan struct{}
	closeOnce sync.Once
}

// Events returns the channel of queued envelopes.
func (s *Stream) Events() <-chan Envelope { return s.ch }

// Done is closed when the stream is shut down.
func (s *Stream) Done() <-chan struct{} { return s.done }

// DisplayID returns the display this stream watches.
func (s *Stream) DisplayID() string { return s.displayID }

// Close marks the stream dead. Safe to call more than once. The stream
// stays in the registry until Unregister or the janitor removes it.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Stream) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Dispatcher is the process-lifetime stream registry. Construct one at
// startup and inject it into the HTTP handler and the event bridge.
type Dispatcher struct {
	mu      sync.RWMutex
	streams map[string]map[*Stream]struct{}

	buffer        int
	maxPerDisplay int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(cfg config.SSEConfig) *Dispatcher {
	return &Dispatcher{
		streams:       make(map[string]map[*Stream]struct{}),
		buffer:        cfg.StreamBuffer,
		maxPerDisplay: cfg.MaxStreamsPerDisplay,
	}
}

// Register opens a new stream for the given display id.
func (d *Dispatcher) Register(displayID string) (*Stream, error) {
	if displayID == "" {
		return nil, fmt.Errorf("register stream: empty display id")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	set := d.streams[displayID]
	if d.maxPerDisplay > 0 && len(set) >= d.maxPerDisplay {
		return nil, fmt.Errorf("display %s: %w", displayID, ErrTooManyStreams)
	}
	if set == nil {
		set = make(map[*Stream]struct{})
		d.streams[displayID] = set
	}

	s := &Stream{
		displayID: displayID,
		ch:        make(chan Envelope, d.buffer),
		done:      make(chan struct{}),
	}
	set[s] = struct{}{}
	metrics.SSEActiveStreams.Inc()
	return s, nil
}

// Unregister closes the stream and removes it from the registry.
// Unknown streams are ignored.
func (d *Dispatcher) Unregister(s *Stream) {
	if s == nil {
		return
	}
	s.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.streams[s.displayID]
	if !ok {
		return
	}
	if _, present := set[s]; !present {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(d.streams, s.displayID)
	}
	metrics.SSEActiveStreams.Dec()
}

// Dispatch pushes a named event to every open stream for displayID.
// No streams means no work. A stream whose buffer is full has the event
// dropped rather than blocking the caller.
func (d *Dispatcher) Dispatch(displayID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to marshal SSE payload")
		return
	}

	d.mu.RLock()
	set := d.streams[displayID]
	targets := make([]*Stream, 0, len(set))
	for s := range set {
		targets = append(targets, s)
	}
	d.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	env := Envelope{Event: event, Data: data}
	for _, s := range targets {
		if s.closed() {
			continue
		}
		select {
		case s.ch <- env:
			metrics.RecordDispatch(event)
		default:
			metrics.SSEEventsDropped.Inc()
			logging.Warn().
				Str("display_id", displayID).
				Str("event", event).
				Msg("stream buffer full, dropping event")
		}
	}
}

// Notify implements events.DisplayNotifier.
func (d *Dispatcher) Notify(displayID string, ev models.DisplayEvent) {
	d.Dispatch(displayID, models.EventDisplayUpdated, ev)
}

// StreamCount returns the number of open streams for a display.
func (d *Dispatcher) StreamCount(displayID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.streams[displayID])
}

// TotalStreams returns the number of open streams across all displays.
func (d *Dispatcher) TotalStreams() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, set := range d.streams {
		n += len(set)
	}
	return n
}

// reap removes closed streams left behind by clients that disconnected
// without a clean Unregister. Returns the number removed.
func (d *Dispatcher) reap() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	reaped := 0
	for id, set := range d.streams {
		for s := range set {
			if s.closed() {
				delete(set, s)
				metrics.SSEActiveStreams.Dec()
				reaped++
			}
		}
		if len(set) == 0 {
			delete(d.streams, id)
		}
	}
	return reaped
}

// Janitor periodically sweeps dead streams out of the registry. Runs as
// a messaging-layer service under the supervision tree.
type Janitor struct {
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewJanitor creates the sweep loop.
func NewJanitor(d *Dispatcher, interval time.Duration) *Janitor {
	return &Janitor{dispatcher: d, interval: interval}
}

// Serve implements suture.Service.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.dispatcher.reap(); n > 0 {
				metrics.SSEStreamsReaped.Add(float64(n))
				logging.Debug().Int("count", n).Msg("reaped dead SSE streams")
			}
		}
	}
}

func (j *Janitor) String() string { return "sse-janitor" }
