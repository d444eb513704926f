// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package metrics defines the Prometheus instrumentation for the server:
// API latency and throughput, document store and analytics query timings,
// SSE stream counts and dispatch volume, console debounce activity, event
// bus publishes, WebSocket hub traffic, the weather circuit breaker, and
// auth outcomes. All collectors are registered with the default registry
// via promauto and exposed at /metrics.
package metrics
