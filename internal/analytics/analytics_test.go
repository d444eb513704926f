// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(config.AnalyticsConfig{
		Enabled:       true,
		Path:          ":memory:",
		MaxMemory:     "256MB",
		RetentionDays: 30,
	})
	if err != nil {
		t.Fatalf("open in-memory analytics db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndSummary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	imps := []models.Impression{
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base, DurationMS: 15000},
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base.Add(time.Minute), DurationMS: 15000},
		{DisplayID: "d1", EntityID: "s2", EntityKind: "slide", ShownAt: base.Add(2 * time.Minute), DurationMS: 10000},
		{DisplayID: "d2", EntityID: "s1", EntityKind: "slide", ShownAt: base.Add(3 * time.Minute), DurationMS: 5000},
	}
	if err := db.RecordImpressions(ctx, imps); err != nil {
		t.Fatalf("record batch: %v", err)
	}

	sums, err := db.Summary(ctx, "d1", base.Add(-time.Hour), base.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("summary rows = %d, want 2", len(sums))
	}
	// Ordered by count descending: s1 (2 impressions) first.
	if sums[0].EntityID != "s1" || sums[0].Count != 2 {
		t.Errorf("top row = %+v, want s1 with count 2", sums[0])
	}
	if sums[0].TotalSeconds != 30 {
		t.Errorf("total seconds = %v, want 30", sums[0].TotalSeconds)
	}
}

func TestSummaryAllDisplays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := db.RecordImpression(ctx, models.Impression{
		DisplayID: "d1", EntityID: "w1", EntityKind: "widget", ShownAt: now, DurationMS: 1000,
	}); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordImpression(ctx, models.Impression{
		DisplayID: "d2", EntityID: "w1", EntityKind: "widget", ShownAt: now, DurationMS: 1000,
	}); err != nil {
		t.Fatal(err)
	}

	sums, err := db.Summary(ctx, "", now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Errorf("rows = %d, want 2 (one per display)", len(sums))
	}
}

func TestSummaryWindowExcludes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	if err := db.RecordImpression(ctx, models.Impression{
		DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base, DurationMS: 1000,
	}); err != nil {
		t.Fatal(err)
	}

	sums, err := db.Summary(ctx, "d1", base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 0 {
		t.Errorf("rows = %d, want 0 outside window", len(sums))
	}
}

func TestHourlyBuckets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 9, 10, 0, 0, time.UTC)

	imps := []models.Impression{
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base, DurationMS: 1000},
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base.Add(5 * time.Minute), DurationMS: 1000},
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: base.Add(2 * time.Hour), DurationMS: 1000},
	}
	if err := db.RecordImpressions(ctx, imps); err != nil {
		t.Fatal(err)
	}

	buckets, err := db.Hourly(ctx, "d1", base.Add(-time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2 (empty hour omitted)", len(buckets))
	}
	if buckets[0].Count != 2 {
		t.Errorf("first bucket count = %d, want 2", buckets[0].Count)
	}
	if !buckets[0].Hour.Before(buckets[1].Hour) {
		t.Error("buckets not ordered by hour")
	}
}

func TestPrune(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -60)
	recent := time.Now().UTC()
	imps := []models.Impression{
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: old, DurationMS: 1000},
		{DisplayID: "d1", EntityID: "s1", EntityKind: "slide", ShownAt: recent, DurationMS: 1000},
	}
	if err := db.RecordImpressions(ctx, imps); err != nil {
		t.Fatal(err)
	}

	n, err := db.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	sums, err := db.Summary(ctx, "d1", recent.Add(-time.Minute), recent.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums[0].Count != 1 {
		t.Errorf("recent impression lost after prune: %+v", sums)
	}
}

func TestRecordImpressionsEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	if err := db.RecordImpressions(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}
