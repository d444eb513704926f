// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

//go:build nats

package main

import (
	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/events"
	"github.com/tomtom215/tabula/internal/logging"
)

// newEventBus builds the content-change bus. With the nats build tag the
// "nats" transport is available, optionally running an embedded JetStream
// server for single-binary deployments.
func newEventBus(cfg *config.Config) (events.Bus, func(), error) {
	if cfg.Events.Transport != "nats" {
		bus := events.NewGoChannelBus(cfg.Events)
		return bus, func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Event bus close failed")
			}
		}, nil
	}

	url := cfg.NATS.URL
	var embedded *events.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(cfg.NATS)
		if err != nil {
			return nil, nil, err
		}
		embedded = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	bus, err := events.NewNATSBus(cfg.NATS, url)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, nil, err
	}
	logging.Info().Str("url", url).Msg("NATS event transport connected")

	return bus, func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Event bus close failed")
		}
		if embedded != nil {
			embedded.Shutdown()
		}
	}, nil
}
