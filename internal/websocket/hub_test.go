// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/models"
)

// newTestClient returns a client that is registered with the hub but
// has no underlying connection; tests read its send channel directly.
func newTestClient(h *Hub) *Client {
	return NewClient(h, nil)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop after context cancel")
		}
	})
	return h, cancel
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.GetClientCount(), want)
}

func TestHubRegisterUnregister(t *testing.T) {
	h, _ := startHub(t)

	c := newTestClient(h)
	h.Register <- c
	waitForClients(t, h, 1)

	h.Unregister <- c
	waitForClients(t, h, 0)

	// The send channel must be closed on unregister.
	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHubUnregisterUnknownClientIsNoOp(t *testing.T) {
	h, _ := startHub(t)

	c := newTestClient(h)
	h.Unregister <- c
	waitForClients(t, h, 0)
}

func TestHubBroadcastContentChange(t *testing.T) {
	h, _ := startHub(t)

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	h.Register <- c1
	h.Register <- c2
	waitForClients(t, h, 2)

	change := models.ContentChange{
		DisplayIDs: []string{"d-1", "d-2"},
		Action:     models.ActionUpdated,
		Reason:     "display_saved",
		EntityID:   "d-1",
	}
	h.BroadcastContentChange(change)

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeContentChange {
				t.Fatalf("message type = %q", msg.Type)
			}
			got, ok := msg.Data.(models.ContentChange)
			if !ok {
				t.Fatalf("message data = %T", msg.Data)
			}
			if got.EntityID != "d-1" || len(got.DisplayIDs) != 2 {
				t.Fatalf("change = %+v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestHubBroadcastDisplayStatus(t *testing.T) {
	h, _ := startHub(t)

	c := newTestClient(h)
	h.Register <- c
	waitForClients(t, h, 1)

	h.BroadcastDisplayStatus("d-1", true, 1)

	select {
	case msg := <-c.send:
		if msg.Type != MessageTypeDisplayStatus {
			t.Fatalf("message type = %q", msg.Type)
		}
		data, ok := msg.Data.(DisplayStatusData)
		if !ok {
			t.Fatalf("message data = %T", msg.Data)
		}
		if data.DisplayID != "d-1" || !data.Online {
			t.Fatalf("data = %+v", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive display status")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h, _ := startHub(t)

	slow := newTestClient(h)
	slow.send = make(chan Message) // unbuffered, nothing reading
	h.Register <- slow
	waitForClients(t, h, 1)

	h.BroadcastContentChange(models.ContentChange{EntityID: "d-1"})
	waitForClients(t, h, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.RunWithContext(ctx) }()

	c := newTestClient(h)
	h.Register <- c
	waitForClients(t, h, 1)

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("RunWithContext returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatal("expected closed send channel after shutdown")
		}
	default:
		t.Fatal("send channel not closed after shutdown")
	}

	if got := h.GetClientCount(); got != 0 {
		t.Fatalf("client count = %d after shutdown", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	t.Parallel()

	raw, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if string(raw) != `{"type":"pong","data":null}` {
		t.Fatalf("marshaled = %s", raw)
	}
}
