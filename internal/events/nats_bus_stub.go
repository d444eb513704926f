// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

//go:build !nats

package events

import (
	"context"
	"errors"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

// ErrNATSNotBuilt is returned when the nats transport is requested from
// a binary built without the nats tag.
var ErrNATSNotBuilt = errors.New("nats transport requires building with -tags nats")

// EmbeddedServer is unavailable without the nats build tag.
type EmbeddedServer struct{}

// NewEmbeddedServer always fails without the nats build tag.
func NewEmbeddedServer(_ config.NATSConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSNotBuilt
}

// ClientURL is unreachable on the stub.
func (s *EmbeddedServer) ClientURL() string { return "" }

// Shutdown is a no-op on the stub.
func (s *EmbeddedServer) Shutdown() {}

// NATSBus is unavailable without the nats build tag.
type NATSBus struct{}

// NewNATSBus always fails without the nats build tag.
func NewNATSBus(_ config.NATSConfig, _ string) (*NATSBus, error) {
	return nil, ErrNATSNotBuilt
}

// Publish satisfies Bus on the stub; never reachable.
func (b *NATSBus) Publish(_ context.Context, _ models.ContentChange) error {
	return ErrNATSNotBuilt
}

// Subscribe satisfies Bus on the stub; never reachable.
func (b *NATSBus) Subscribe(_ context.Context) (<-chan models.ContentChange, error) {
	return nil, ErrNATSNotBuilt
}

// Close satisfies Bus on the stub; never reachable.
func (b *NATSBus) Close() error { return nil }
