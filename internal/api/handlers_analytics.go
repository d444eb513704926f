// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/tabula/internal/models"
)

type impressionRequest struct {
	DisplayID  string    `json:"displayId" validate:"required"`
	EntityID   string    `json:"entityId" validate:"required"`
	EntityKind string    `json:"entityKind" validate:"required,oneof=slide widget"`
	ShownAt    time.Time `json:"shownAt"`
	DurationMS int64     `json:"durationMs" validate:"gte=0"`
}

type impressionBatchRequest struct {
	Impressions []impressionRequest `json:"impressions" validate:"required,min=1,max=1000,dive"`
}

// RecordImpressions handles POST /api/v1/analytics/impressions. Screens
// batch proof-of-play records and flush them periodically.
func (h *Handler) RecordImpressions(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Analytics is disabled")
		return
	}

	var req impressionBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	imps := make([]models.Impression, len(req.Impressions))
	for i, ir := range req.Impressions {
		shownAt := ir.ShownAt
		if shownAt.IsZero() {
			shownAt = time.Now().UTC()
		}
		imps[i] = models.Impression{
			DisplayID:  ir.DisplayID,
			EntityID:   ir.EntityID,
			EntityKind: ir.EntityKind,
			ShownAt:    shownAt,
			DurationMS: ir.DurationMS,
		}
	}

	if err := h.analytics.RecordImpressions(r.Context(), imps); err != nil {
		WriteStoreError(w, r, err)
		return
	}

	NewResponseWriter(w, r).Created(map[string]int{"recorded": len(imps)})
}

// AnalyticsSummary handles GET /api/v1/analytics/summary. Optional
// query parameters: display_id, since, until (RFC3339).
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Analytics is disabled")
		return
	}

	displayID, since, until, ok := analyticsRange(w, r)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(r.Context(), displayID, since, until)
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	WriteSuccess(w, r, summary)
}

// AnalyticsHourly handles GET /api/v1/analytics/hourly.
func (h *Handler) AnalyticsHourly(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Analytics is disabled")
		return
	}

	displayID, since, until, ok := analyticsRange(w, r)
	if !ok {
		return
	}

	hourly, err := h.analytics.Hourly(r.Context(), displayID, since, until)
	if err != nil {
		WriteStoreError(w, r, err)
		return
	}
	WriteSuccess(w, r, hourly)
}

// analyticsRange parses the shared query parameters of the analytics
// read endpoints. The window defaults to the last 7 days.
func analyticsRange(w http.ResponseWriter, r *http.Request) (displayID string, since, until time.Time, ok bool) {
	q := r.URL.Query()
	displayID = q.Get("display_id")

	until = time.Now().UTC()
	since = until.AddDate(0, 0, -7)

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteBadRequest(w, r, "since must be RFC3339")
			return "", time.Time{}, time.Time{}, false
		}
		since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteBadRequest(w, r, "until must be RFC3339")
			return "", time.Time{}, time.Time{}, false
		}
		until = t
	}
	if !since.Before(until) {
		WriteBadRequest(w, r, "since must be before until")
		return "", time.Time{}, time.Time{}, false
	}
	return displayID, since, until, true
}
