// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package events

import (
	"context"

	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// DisplayNotifier receives per-display events. Implemented by the SSE
// dispatcher.
type DisplayNotifier interface {
	Notify(displayID string, ev models.DisplayEvent)
}

// AdminBroadcaster receives whole content changes. Implemented by the
// admin WebSocket hub.
type AdminBroadcaster interface {
	BroadcastContentChange(change models.ContentChange)
}

// Bridge subscribes to the bus and fans changes out to the display
// notifier and the admin broadcaster. It runs as a messaging-layer
// service under the supervision tree.
type Bridge struct {
	bus         Bus
	notifier    DisplayNotifier
	broadcaster AdminBroadcaster
}

// NewBridge creates the fan-out bridge. Either sink may be nil.
func NewBridge(bus Bus, notifier DisplayNotifier, broadcaster AdminBroadcaster) *Bridge {
	return &Bridge{bus: bus, notifier: notifier, broadcaster: broadcaster}
}

// Serve implements suture.Service: it consumes the subscription until
// the context is cancelled.
func (b *Bridge) Serve(ctx context.Context) error {
	changes, err := b.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	log := logging.WithComponent("event-bridge")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			b.fanOut(change)
			log.Debug().
				Strs("display_ids", change.DisplayIDs).
				Str("reason", change.Reason).
				Str("action", change.Action).
				Msg("content change fanned out")
		}
	}
}

func (b *Bridge) fanOut(change models.ContentChange) {
	if b.notifier != nil {
		for _, id := range change.DisplayIDs {
			b.notifier.Notify(id, models.DisplayEvent{
				DisplayID: id,
				Action:    change.Action,
				Reason:    change.Reason,
				SlideID:   change.SlideID,
			})
		}
	}
	if b.broadcaster != nil {
		b.broadcaster.BroadcastContentChange(change)
	}
}

func (b *Bridge) String() string { return "event-bridge" }
