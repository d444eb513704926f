// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package events is the internal bus carrying content-change
// notifications from mutation handlers to the SSE dispatcher and the
// admin WebSocket hub. The default transport is Watermill's in-process
// GoChannel pub/sub; multi-instance deployments can build with the
// "nats" tag to route the same messages over NATS JetStream.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tabula/internal/metrics"
	"github.com/tomtom215/tabula/internal/models"
)

// TopicContentChange carries models.ContentChange payloads.
const TopicContentChange = "signage.content_change"

// Bus publishes and subscribes content-change events.
type Bus interface {
	// Publish sends a content change. Best-effort from the caller's
	// point of view: mutation handlers log failures and move on.
	Publish(ctx context.Context, change models.ContentChange) error
	// Subscribe returns a channel of decoded changes. The channel is
	// closed when ctx is cancelled or the bus shuts down.
	Subscribe(ctx context.Context) (<-chan models.ContentChange, error)
	Close() error
}

// marshalChange encodes a change as a Watermill message.
func marshalChange(change models.ContentChange) (*message.Message, error) {
	payload, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("marshal content change: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload), nil
}

// decodeLoop adapts a raw Watermill subscription into typed changes.
// Undecodable messages are acked and dropped; a poison message must not
// wedge the subscription.
func decodeLoop(ctx context.Context, raw <-chan *message.Message, logWarn func(err error)) <-chan models.ContentChange {
	out := make(chan models.ContentChange)
	go func() {
		defer close(out)
		for msg := range raw {
			var change models.ContentChange
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				logWarn(err)
				msg.Ack()
				continue
			}
			select {
			case out <- change:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out
}

// recordPublish updates bus metrics for one publish attempt.
func recordPublish(change models.ContentChange, err error) {
	if err != nil {
		metrics.EventsPublishErrors.Inc()
		return
	}
	metrics.EventsPublished.WithLabelValues(change.Reason).Inc()
}
