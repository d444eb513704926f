// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package analytics records proof-of-play impressions in DuckDB and
// serves the aggregate queries behind /api/v1/analytics. Screens report
// which slide or widget was visible and for how long; operators query
// per-display summaries and hourly buckets.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/metrics"
	"github.com/tomtom215/tabula/internal/models"
)

// DB wraps the DuckDB connection holding impression data.
type DB struct {
	conn *sql.DB
	cfg  config.AnalyticsConfig
}

// New opens (or creates) the analytics database and ensures the schema.
// Pass ":memory:" as the path for tests.
func New(cfg config.AnalyticsConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create analytics directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	// DuckDB is embedded; a single writer connection avoids lock contention.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize analytics schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initialize() error {
	schema := `
CREATE TABLE IF NOT EXISTS impressions (
    display_id  VARCHAR NOT NULL,
    entity_id   VARCHAR NOT NULL,
    entity_kind VARCHAR NOT NULL,
    shown_at    TIMESTAMP NOT NULL,
    duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_impressions_display ON impressions (display_id);
CREATE INDEX IF NOT EXISTS idx_impressions_shown_at ON impressions (shown_at);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("create impressions table: %w", err)
	}
	return nil
}

// RecordImpression inserts one proof-of-play record.
func (db *DB) RecordImpression(ctx context.Context, imp models.Impression) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO impressions (display_id, entity_id, entity_kind, shown_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		imp.DisplayID, imp.EntityID, imp.EntityKind, imp.ShownAt.UTC(), imp.DurationMS)
	metrics.AnalyticsQueryDuration.WithLabelValues("record").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("insert impression: %w", err)
	}
	metrics.AnalyticsImpressionsRecorded.Inc()
	return nil
}

// RecordImpressions inserts a batch of records in one transaction.
func (db *DB) RecordImpressions(ctx context.Context, imps []models.Impression) error {
	if len(imps) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin impression batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO impressions (display_id, entity_id, entity_kind, shown_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare impression insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, imp := range imps {
		if _, err := stmt.ExecContext(ctx, imp.DisplayID, imp.EntityID, imp.EntityKind, imp.ShownAt.UTC(), imp.DurationMS); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert impression: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit impression batch: %w", err)
	}
	metrics.AnalyticsImpressionsRecorded.Add(float64(len(imps)))
	return nil
}

// Summary returns per-entity impression aggregates, optionally filtered
// by display id, over the window [since, until).
func (db *DB) Summary(ctx context.Context, displayID string, since, until time.Time) ([]models.ImpressionSummary, error) {
	start := time.Now()
	defer func() {
		metrics.AnalyticsQueryDuration.WithLabelValues("summary").Observe(time.Since(start).Seconds())
	}()

	query := `
SELECT display_id, entity_id, entity_kind,
       COUNT(*) AS cnt,
       SUM(duration_ms) / 1000.0 AS total_seconds,
       MIN(shown_at) AS first_shown,
       MAX(shown_at) AS last_shown
FROM impressions
WHERE shown_at >= ? AND shown_at < ?`
	args := []any{since.UTC(), until.UTC()}
	if displayID != "" {
		query += ` AND display_id = ?`
		args = append(args, displayID)
	}
	query += `
GROUP BY display_id, entity_id, entity_kind
ORDER BY cnt DESC, display_id, entity_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query impression summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ImpressionSummary
	for rows.Next() {
		var s models.ImpressionSummary
		if err := rows.Scan(&s.DisplayID, &s.EntityID, &s.EntityKind, &s.Count, &s.TotalSeconds, &s.FirstShownAt, &s.LastShownAt); err != nil {
			return nil, fmt.Errorf("scan impression summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Hourly returns hourly impression buckets over the window, optionally
// filtered by display id. Empty hours are absent, not zero rows.
func (db *DB) Hourly(ctx context.Context, displayID string, since, until time.Time) ([]models.HourlyImpressions, error) {
	start := time.Now()
	defer func() {
		metrics.AnalyticsQueryDuration.WithLabelValues("hourly").Observe(time.Since(start).Seconds())
	}()

	query := `
SELECT date_trunc('hour', shown_at) AS hour, COUNT(*) AS cnt
FROM impressions
WHERE shown_at >= ? AND shown_at < ?`
	args := []any{since.UTC(), until.UTC()}
	if displayID != "" {
		query += ` AND display_id = ?`
		args = append(args, displayID)
	}
	query += `
GROUP BY hour
ORDER BY hour`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hourly impressions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.HourlyImpressions
	for rows.Next() {
		var h models.HourlyImpressions
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, fmt.Errorf("scan hourly impressions: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Prune deletes impressions older than the configured retention window.
func (db *DB) Prune(ctx context.Context) (int64, error) {
	if db.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -db.cfg.RetentionDays)
	res, err := db.conn.ExecContext(ctx, `DELETE FROM impressions WHERE shown_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune impressions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Info().Int64("rows", n).Msg("pruned expired impressions")
	}
	return n, nil
}

// PruneService periodically removes impressions past retention, run
// under the supervision tree.
type PruneService struct {
	db       *DB
	interval time.Duration
}

// NewPruneService creates the retention loop service.
func NewPruneService(db *DB, interval time.Duration) *PruneService {
	return &PruneService{db: db, interval: interval}
}

// Serve implements suture.Service.
func (p *PruneService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.db.Prune(ctx); err != nil {
				logging.Warn().Err(err).Msg("impression prune failed")
			}
		}
	}
}

func (p *PruneService) String() string { return "analytics-prune" }
