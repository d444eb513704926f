// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package backup

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/config"
)

type fakeSnapshotter struct {
	payload []byte
	err     error
	calls   int
}

func (f *fakeSnapshotter) Backup(w io.Writer) (uint64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n, err := w.Write(f.payload)
	return uint64(n), err
}

func testService(t *testing.T, snap Snapshotter) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewService(snap, config.BackupConfig{
		Enabled:         true,
		Dir:             dir,
		Interval:        time.Hour,
		KeepCount:       2,
		KeepRecentHours: 0,
	})
	return svc, dir
}

func listSnapshots(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSnapshotWritesFile(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{payload: []byte("snapshot-bytes")}
	svc, dir := testService(t, snap)

	path, size, err := svc.snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if size != int64(len(snap.payload)) {
		t.Errorf("size = %d, want %d", size, len(snap.payload))
	}
	if !strings.HasSuffix(path, snapshotSuffix) {
		t.Errorf("path %q missing %q suffix", path, snapshotSuffix)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(data) != "snapshot-bytes" {
		t.Errorf("snapshot content = %q", data)
	}

	names := listSnapshots(t, dir)
	if len(names) != 1 {
		t.Errorf("dir contains %v, want one snapshot and no temp files", names)
	}
}

func TestSnapshotFailureLeavesNoPartialFile(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshotter{err: errors.New("backup stream broken")}
	svc, dir := testService(t, snap)

	if _, _, err := svc.snapshot(); err == nil {
		t.Fatal("snapshot should fail when the store backup fails")
	}
	if names := listSnapshots(t, dir); len(names) != 0 {
		t.Errorf("dir contains %v after failed snapshot, want empty", names)
	}
}

func TestPruneKeepsNewestCount(t *testing.T) {
	t.Parallel()

	svc, dir := testService(t, &fakeSnapshotter{payload: []byte("x")})

	base := time.Now().Add(-100 * time.Hour)
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, time.Unix(int64(i), 0).Format("tabula-20060102-150405")+snapshotSuffix)
		if err := os.WriteFile(name, []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		ts := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(name, ts, ts); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed, err := svc.prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if names := listSnapshots(t, dir); len(names) != 2 {
		t.Errorf("dir contains %v, want the 2 newest snapshots", names)
	}
}

func TestPruneKeepsRecentRegardlessOfCount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	svc := NewService(&fakeSnapshotter{payload: []byte("x")}, config.BackupConfig{
		Dir:             dir,
		Interval:        time.Hour,
		KeepCount:       1,
		KeepRecentHours: 48,
	})

	now := time.Now()
	ages := []time.Duration{time.Hour, 12 * time.Hour, 72 * time.Hour}
	for i, age := range ages {
		name := filepath.Join(dir, time.Unix(int64(i), 0).Format("tabula-20060102-150405")+snapshotSuffix)
		if err := os.WriteFile(name, []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		ts := now.Add(-age)
		if err := os.Chtimes(name, ts, ts); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed, err := svc.prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want only the 72h-old snapshot gone", removed)
	}
}

func TestPruneIgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	svc, dir := testService(t, &fakeSnapshotter{payload: []byte("x")})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := svc.prune(); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Errorf("foreign file was touched: %v", err)
	}
}

func TestServiceName(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t, &fakeSnapshotter{})
	if got := svc.String(); got != "store-backup" {
		t.Errorf("String() = %q", got)
	}
}
