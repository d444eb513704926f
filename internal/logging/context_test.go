// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "corr-123")
	if got := CorrelationID(ctx); got != "corr-123" {
		t.Errorf("CorrelationID = %q, want %q", got, "corr-123")
	}
}

func TestCorrelationIDGenerated(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "")
	if CorrelationID(ctx) == "" {
		t.Error("expected generated correlation ID, got empty string")
	}
}

func TestCorrelationIDMissing(t *testing.T) {
	t.Parallel()

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID on empty context = %q, want empty", got)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-9")
	if got := RequestID(ctx); got != "req-9" {
		t.Errorf("RequestID = %q, want %q", got, "req-9")
	}
}

func TestCtxEnrichesWithIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewTestLogger(&buf))
	ctx = WithCorrelationID(ctx, "corr-abc")
	ctx = WithRequestID(ctx, "req-def")

	l := Ctx(ctx)
	l.Info().Msg("handled")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["correlation_id"] != "corr-abc" {
		t.Errorf("correlation_id = %v, want %q", entry["correlation_id"], "corr-abc")
	}
	if entry["request_id"] != "req-def" {
		t.Errorf("request_id = %v, want %q", entry["request_id"], "req-def")
	}
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	// No logger attached: Ctx should not panic and should return a usable logger.
	l := Ctx(context.Background())
	l.Debug().Msg("fallback")
}
