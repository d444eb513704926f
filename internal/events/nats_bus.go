// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

//go:build nats

package events

import (
	"context"
	"fmt"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsserver "github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// EmbeddedServer wraps an in-process NATS JetStream server for
// deployments that want the nats transport without an external broker.
type EmbeddedServer struct {
	server    *natsserver.Server
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server with
// JetStream enabled. Returns an error if the server is not ready within
// 30 seconds.
func NewEmbeddedServer(cfg config.NATSConfig) (*EmbeddedServer, error) {
	opts := &natsserver.Options{
		ServerName:         "tabula-events",
		Host:               "127.0.0.1",
		Port:               4222,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		MaxPayload:         1 * 1024 * 1024,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()

	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string { return s.clientURL }

// Shutdown stops the server and waits for completion.
func (s *EmbeddedServer) Shutdown() {
	s.server.Shutdown()
	s.server.WaitForShutdown()
}

// NATSBus routes content-change events over NATS JetStream, allowing
// multiple Tabula instances to share one dispatch stream.
type NATSBus struct {
	conn       *natsgo.Conn
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewNATSBus connects to the given NATS URL and creates the Watermill
// publisher and subscriber pair.
func NewNATSBus(cfg config.NATSConfig, url string) (*NATSBus, error) {
	logger := newWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.Timeout(cfg.ConnectTimeout),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := natsgo.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	jsConfig := wmNats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: true,
		DurablePrefix: cfg.DurableName,
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsConfig,
	}, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		QueueGroupPrefix: cfg.QueueGroup,
		JetStream:        jsConfig,
	}, logger)
	if err != nil {
		_ = pub.Close()
		conn.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &NATSBus{conn: conn, publisher: pub, subscriber: sub}, nil
}

// Publish implements Bus.
func (b *NATSBus) Publish(ctx context.Context, change models.ContentChange) error {
	msg, err := marshalChange(change)
	if err != nil {
		recordPublish(change, err)
		return err
	}
	msg.SetContext(ctx)
	err = b.publisher.Publish(TopicContentChange, msg)
	recordPublish(change, err)
	if err != nil {
		return fmt.Errorf("publish content change: %w", err)
	}
	return nil
}

// Subscribe implements Bus.
func (b *NATSBus) Subscribe(ctx context.Context) (<-chan models.ContentChange, error) {
	raw, err := b.subscriber.Subscribe(ctx, TopicContentChange)
	if err != nil {
		return nil, fmt.Errorf("subscribe content changes: %w", err)
	}
	return decodeLoop(ctx, raw, func(err error) {
		logging.Warn().Err(err).Msg("dropping undecodable content-change message")
	}), nil
}

// Close shuts down the publisher, subscriber, and connection.
func (b *NATSBus) Close() error {
	pubErr := b.publisher.Close()
	subErr := b.subscriber.Close()
	b.conn.Close()
	if pubErr != nil {
		return pubErr
	}
	return subErr
}
