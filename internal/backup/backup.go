// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package backup writes periodic snapshots of the document store and
// prunes old ones. Snapshots use Badger's native backup format and can
// be restored with `badger restore` or DB.Load.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
)

const snapshotSuffix = ".badger"

// Snapshotter is the store surface the service needs.
type Snapshotter interface {
	Backup(w io.Writer) (uint64, error)
}

// Service runs the snapshot loop as a data-layer service under the
// supervision tree.
type Service struct {
	store Snapshotter
	cfg   config.BackupConfig
	now   func() time.Time
}

// NewService creates the snapshot loop.
func NewService(store Snapshotter, cfg config.BackupConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// Serve implements suture.Service. One snapshot is taken immediately on
// start so a crash-looping process still leaves a recent backup behind.
func (s *Service) Serve(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("create backup dir %q: %w", s.cfg.Dir, err)
	}

	s.runOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Service) String() string { return "store-backup" }

// runOnce writes a snapshot and applies retention. Failures are logged
// and retried on the next tick rather than restarting the service.
func (s *Service) runOnce() {
	path, size, err := s.snapshot()
	if err != nil {
		logging.Error().Err(err).Msg("store snapshot failed")
		return
	}
	logging.Info().
		Str("path", path).
		Int64("bytes", size).
		Msg("store snapshot written")

	removed, err := s.prune()
	if err != nil {
		logging.Warn().Err(err).Msg("snapshot retention failed")
		return
	}
	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("expired snapshots pruned")
	}
}

// snapshot writes the store to a temp file and renames it into place so
// a snapshot is never observed half-written.
func (s *Service) snapshot() (string, int64, error) {
	name := fmt.Sprintf("tabula-%s%s", s.now().UTC().Format("20060102-150405"), snapshotSuffix)
	final := filepath.Join(s.cfg.Dir, name)

	tmp, err := os.CreateTemp(s.cfg.Dir, name+".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := s.store.Backup(tmp); err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("sync snapshot: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return "", 0, fmt.Errorf("stat snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", 0, fmt.Errorf("finalize snapshot: %w", err)
	}
	return final, info.Size(), nil
}

type snapshotFile struct {
	name    string
	modTime time.Time
}

// prune deletes snapshots not covered by retention: the newest KeepCount
// are always kept, and anything younger than KeepRecentHours is kept too.
func (s *Service) prune() (int, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	var snapshots []snapshotFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snapshotFile{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].modTime.After(snapshots[j].modTime)
	})

	keep := make(map[string]bool, len(snapshots))
	for i := 0; i < s.cfg.KeepCount && i < len(snapshots); i++ {
		keep[snapshots[i].name] = true
	}
	if s.cfg.KeepRecentHours > 0 {
		cutoff := s.now().Add(-time.Duration(s.cfg.KeepRecentHours) * time.Hour)
		for _, snap := range snapshots {
			if snap.modTime.After(cutoff) {
				keep[snap.name] = true
			}
		}
	}

	removed := 0
	for _, snap := range snapshots {
		if keep[snap.name] {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.Dir, snap.name)); err != nil {
			return removed, fmt.Errorf("remove snapshot %s: %w", snap.name, err)
		}
		removed++
	}
	return removed, nil
}
