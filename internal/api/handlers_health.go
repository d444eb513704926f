// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"net/http"
	"time"
)

type healthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It answers as soon as the
// HTTP server does.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, healthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// HealthReady handles GET /api/v1/health/ready. It reports per-component
// readiness and returns 503 until the document store is usable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}
	ready := true

	if h.store == nil || h.store.DB().IsClosed() {
		components["store"] = "down"
		ready = false
	} else {
		components["store"] = "up"
	}

	if h.analytics == nil {
		components["analytics"] = "disabled"
	} else {
		components["analytics"] = "up"
	}

	status := healthStatus{
		Status:     "ok",
		Timestamp:  time.Now().UTC(),
		Components: components,
	}
	if !ready {
		status.Status = "degraded"
		NewResponseWriter(w, r).Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Not ready")
		return
	}
	WriteSuccess(w, r, status)
}
