// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// GoChannelBus is the in-process bus used by single-instance
// deployments. Each subscriber receives every message.
type GoChannelBus struct {
	pubsub *gochannel.GoChannel
}

// NewGoChannelBus creates the in-process bus.
func NewGoChannelBus(cfg config.EventsConfig) *GoChannelBus {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
	}, newWatermillLogger())
	return &GoChannelBus{pubsub: ps}
}

// Publish implements Bus.
func (b *GoChannelBus) Publish(ctx context.Context, change models.ContentChange) error {
	msg, err := marshalChange(change)
	if err != nil {
		recordPublish(change, err)
		return err
	}
	msg.SetContext(ctx)
	err = b.pubsub.Publish(TopicContentChange, msg)
	recordPublish(change, err)
	if err != nil {
		return fmt.Errorf("publish content change: %w", err)
	}
	return nil
}

// Subscribe implements Bus.
func (b *GoChannelBus) Subscribe(ctx context.Context) (<-chan models.ContentChange, error) {
	raw, err := b.pubsub.Subscribe(ctx, TopicContentChange)
	if err != nil {
		return nil, fmt.Errorf("subscribe content changes: %w", err)
	}
	return decodeLoop(ctx, raw, func(err error) {
		logging.Warn().Err(err).Msg("dropping undecodable content-change message")
	}), nil
}

// Close shuts the bus down and closes all subscriber channels.
func (b *GoChannelBus) Close() error {
	return b.pubsub.Close()
}
