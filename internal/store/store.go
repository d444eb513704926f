// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package store implements the document store backing Tabula on
// BadgerDB. Documents are stored as JSON values under
// collection-prefixed keys (display:<id>, layout:<id>, ...). Deletes
// perform referential cleanup: removing a widget strips its references
// from every layout and display, removing a layout detaches it from
// displays that point at it.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrConflict is returned when a unique constraint would be violated.
var ErrConflict = errors.New("document conflict")

// Key prefixes per collection.
const (
	displayKeyPrefix  = "display:"
	layoutKeyPrefix   = "layout:"
	widgetKeyPrefix   = "widget:"
	slideKeyPrefix    = "slide:"
	userKeyPrefix     = "user:"
	usernameKeyPrefix = "username:"
)

// Store is the BadgerDB-backed document store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured path.
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger logs through its own interface; route it to zerolog.
	opts = opts.WithLogger(badgerLogger{logging.WithComponent("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for components that share the store
// (device token persistence).
func (s *Store) DB() *badger.DB {
	return s.db
}

// Backup streams a full snapshot of the store to w in Badger's backup
// format. The snapshot is consistent as of the call.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// RunGC runs one value-log garbage collection cycle. Badger returns
// ErrNoRewrite when there was nothing to collect; that is not an error.
func (s *Store) RunGC() error {
	metrics.StoreGCRuns.Inc()
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// put marshals v and writes it under key in a single transaction.
func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get reads the value at key into out.
func (s *Store) get(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// delete removes the value at key. Missing keys are ErrNotFound.
func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return txn.Delete([]byte(key))
	})
}

// listInto iterates all values under prefix and calls decode for each.
func (s *Store) listInto(prefix string, decode func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(decode); err != nil {
				return err
			}
		}
		return nil
	})
}

// listDocs decodes every document under prefix into a slice of T.
func listDocs[T any](s *Store, prefix string) ([]T, error) {
	var docs []T
	err := s.listInto(prefix, func(val []byte) error {
		var doc T
		if err := json.Unmarshal(val, &doc); err != nil {
			return fmt.Errorf("unmarshal %s document: %w", prefix, err)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// timed wraps a store operation with duration and error metrics.
func timed(operation, collection string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStoreOperation(operation, collection, time.Since(start), err)
	return err
}

// GCService runs periodic value-log garbage collection under the
// supervision tree.
type GCService struct {
	store    *Store
	interval time.Duration
}

// NewGCService creates the GC loop service.
func NewGCService(store *Store, interval time.Duration) *GCService {
	return &GCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("value-log GC failed")
			}
		}
	}
}

func (g *GCService) String() string { return "store-gc" }

// badgerLogger adapts zerolog to badger.Logger.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug().Msgf(strings.TrimSpace(format), args...)
}
