// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Document Store Metrics (Badger)
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store errors",
		},
		[]string{"operation", "collection", "error_type"},
	)

	StoreGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_gc_runs_total",
			Help: "Total number of value-log garbage collection runs",
		},
	)

	// Analytics Metrics (DuckDB)
	AnalyticsQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_query_duration_seconds",
			Help:    "Duration of analytics queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AnalyticsImpressionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_impressions_recorded_total",
			Help: "Total number of proof-of-play impressions recorded",
		},
	)

	// SSE Dispatcher Metrics
	SSEActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_active_streams",
			Help: "Current number of open display event streams",
		},
	)

	SSEEventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sse_events_dispatched_total",
			Help: "Total number of events dispatched to display streams",
		},
		[]string{"event"},
	)

	SSEEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sse_events_dropped_total",
			Help: "Total number of events dropped due to full stream buffers",
		},
	)

	SSEStreamsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sse_streams_reaped_total",
			Help: "Total number of dead streams removed by the janitor",
		},
	)

	// Console Session Metrics
	ConsoleDebounceFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_debounce_flushes_total",
			Help: "Total number of debounced display writes flushed to the server",
		},
	)

	ConsoleDebounceCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_debounce_coalesced_total",
			Help: "Total number of scheduled writes superseded within the debounce window",
		},
	)

	ConsoleWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "console_write_errors_total",
			Help: "Total number of failed debounced display writes",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of content-change events published to the bus",
		},
		[]string{"reason"},
	)

	EventsPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Total number of event bus publish failures",
		},
	)

	// WebSocket Hub Metrics
	WSConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connected_clients",
			Help: "Current number of connected admin WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to slow clients",
		},
	)

	// Weather Proxy Metrics
	WeatherRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Total number of weather proxy requests",
		},
		[]string{"result"}, // "hit", "miss", "error", "rate_limited"
	)

	WeatherCircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_circuit_breaker_state",
			Help: "Weather upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Auth Metrics
	AuthLoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success", "invalid_credentials", "error"
	)

	AuthTokenValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_validations_total",
			Help: "Total number of token validation attempts",
		},
		[]string{"kind", "result"}, // kind: "session", "device"
	)
)

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a document store operation with optional error.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection, classifyStoreError(err)).Inc()
	}
}

func classifyStoreError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return "not_found"
	case strings.Contains(msg, "conflict"):
		return "conflict"
	case strings.Contains(msg, "marshal"):
		return "serialization"
	default:
		return "internal"
	}
}

// RecordDispatch records one SSE dispatch of a named event.
func RecordDispatch(event string) {
	SSEEventsDispatched.WithLabelValues(event).Inc()
}

// RecordLoginAttempt records the outcome of a login attempt.
func RecordLoginAttempt(result string) {
	AuthLoginAttempts.WithLabelValues(result).Inc()
}

// RecordTokenValidation records a session or device token validation.
func RecordTokenValidation(kind, result string) {
	AuthTokenValidations.WithLabelValues(kind, result).Inc()
}

