// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package sse

import (
	"errors"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(config.SSEConfig{
		StreamBuffer:         4,
		MaxStreamsPerDisplay: 2,
		HeartbeatInterval:    25 * time.Second,
		JanitorInterval:      30 * time.Second,
	})
}

func TestRegisterAndDispatch(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s, err := d.Register("d1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	defer d.Unregister(s)

	d.Dispatch("d1", models.EventDisplayUpdated, models.DisplayEvent{
		DisplayID: "d1", Action: models.ActionUpdated, Reason: "slide", SlideID: "s1",
	})

	select {
	case env := <-s.Events():
		if env.Event != models.EventDisplayUpdated {
			t.Errorf("event = %q, want %q", env.Event, models.EventDisplayUpdated)
		}
		var ev models.DisplayEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			t.Fatalf("payload not JSON: %v", err)
		}
		if ev.DisplayID != "d1" || ev.SlideID != "s1" {
			t.Errorf("payload = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestDispatchUnknownDisplayIsNoOp(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	// Must not panic or block.
	d.Dispatch("ghost", models.EventDisplayUpdated, models.DisplayEvent{DisplayID: "ghost"})
}

func TestDispatchOnlyTargetsOwnDisplay(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s1, _ := d.Register("d1")
	s2, _ := d.Register("d2")
	defer d.Unregister(s1)
	defer d.Unregister(s2)

	d.Dispatch("d1", models.EventDisplayUpdated, models.DisplayEvent{DisplayID: "d1"})

	select {
	case <-s1.Events():
	case <-time.After(time.Second):
		t.Fatal("d1 stream received nothing")
	}
	select {
	case env := <-s2.Events():
		t.Fatalf("d2 stream received stray event %q", env.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMaxStreamsPerDisplay(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	a, err := d.Register("d1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Register("d1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Register("d1"); !errors.Is(err, ErrTooManyStreams) {
		t.Errorf("third register err = %v, want ErrTooManyStreams", err)
	}

	d.Unregister(a)
	if _, err := d.Register("d1"); err != nil {
		t.Errorf("register after unregister: %v", err)
	}
	d.Unregister(b)
}

func TestRegisterEmptyDisplayID(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	if _, err := d.Register(""); err == nil {
		t.Error("expected error for empty display id")
	}
}

func TestFullBufferDropsWithoutBlocking(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s, _ := d.Register("d1")
	defer d.Unregister(s)

	// Buffer is 4; send more and ensure Dispatch never blocks.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Dispatch("d1", models.EventDisplayUpdated, models.DisplayEvent{DisplayID: "d1"})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on full stream buffer")
	}
	if got := len(s.Events()); got != 4 {
		t.Errorf("buffered events = %d, want 4", got)
	}
}

func TestUnregisterRemovesFromRegistry(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s, _ := d.Register("d1")
	if d.StreamCount("d1") != 1 {
		t.Fatal("stream not registered")
	}
	d.Unregister(s)
	if d.StreamCount("d1") != 0 {
		t.Error("stream still registered after unregister")
	}
	// Double unregister must be harmless.
	d.Unregister(s)
	d.Unregister(nil)
}

func TestReapRemovesClosedStreams(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s1, _ := d.Register("d1")
	s2, _ := d.Register("d1")
	s1.Close() // client vanished without unregistering

	if n := d.reap(); n != 1 {
		t.Errorf("reaped = %d, want 1", n)
	}
	if d.StreamCount("d1") != 1 {
		t.Errorf("stream count = %d, want 1", d.StreamCount("d1"))
	}
	d.Unregister(s2)
	if n := d.reap(); n != 0 {
		t.Errorf("second reap = %d, want 0", n)
	}
}

func TestClosedStreamSkippedOnDispatch(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher(t)

	s, _ := d.Register("d1")
	s.Close()
	d.Dispatch("d1", models.EventDisplayUpdated, models.DisplayEvent{DisplayID: "d1"})
	if got := len(s.Events()); got != 0 {
		t.Errorf("closed stream received %d events", got)
	}
}

func TestConcurrentRegisterDispatchUnregister(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(config.SSEConfig{StreamBuffer: 8, MaxStreamsPerDisplay: 0})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := d.Register("d1")
				if err != nil {
					continue
				}
				d.Dispatch("d1", models.EventDisplayUpdated, models.DisplayEvent{DisplayID: "d1"})
				d.Unregister(s)
			}
		}()
	}
	wg.Wait()

	if got := d.TotalStreams(); got != 0 {
		t.Errorf("streams leaked: %d", got)
	}
}
