// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

//go:build !nats

package main

import (
	"fmt"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/events"
	"github.com/tomtom215/tabula/internal/logging"
)

// newEventBus builds the content-change bus. Without the nats build tag
// only the in-process "gochannel" transport is available.
func newEventBus(cfg *config.Config) (events.Bus, func(), error) {
	if cfg.Events.Transport == "nats" {
		return nil, nil, fmt.Errorf("events.transport %q: %w", cfg.Events.Transport, events.ErrNATSNotBuilt)
	}
	bus := events.NewGoChannelBus(cfg.Events)
	return bus, func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Event bus close failed")
		}
	}, nil
}
