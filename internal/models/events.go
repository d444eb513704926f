// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package models

import "time"

// EventDisplayUpdated is the SSE event name pushed to display streams.
const EventDisplayUpdated = "display_updated"

// Content-change actions carried in DisplayEvent.Action.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionRepositioned = "repositioned"
)

// DisplayEvent is the payload pushed to a display's event stream when
// content visible on that display changes.
type DisplayEvent struct {
	DisplayID string `json:"displayId"`
	Action    string `json:"action"`
	// Reason names the entity kind that changed (slide, layout, widget,
	// display).
	Reason  string `json:"reason"`
	SlideID string `json:"slideId,omitempty"`
}

// ContentChange is the internal bus message published after a mutation
// commits. The SSE dispatcher and the admin WebSocket hub subscribe and
// fan it out to the affected displays.
type ContentChange struct {
	// DisplayIDs are the displays whose visible content changed.
	DisplayIDs []string  `json:"displayIds"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
	EntityID   string    `json:"entityId,omitempty"`
	SlideID    string    `json:"slideId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Impression is one proof-of-play record reported by a screen: a slide
// or widget was visible on a display for some duration.
type Impression struct {
	DisplayID string `json:"displayId"`
	EntityID  string `json:"entityId"`
	// EntityKind is "slide" or "widget".
	EntityKind string    `json:"entityKind"`
	ShownAt    time.Time `json:"shownAt"`
	// DurationMS is how long the entity was visible, in milliseconds.
	DurationMS int64 `json:"durationMs"`
}

// ImpressionSummary is an aggregate of impressions for one display and
// entity pair.
type ImpressionSummary struct {
	DisplayID    string    `json:"displayId"`
	EntityID     string    `json:"entityId"`
	EntityKind   string    `json:"entityKind"`
	Count        int64     `json:"count"`
	TotalSeconds float64   `json:"totalSeconds"`
	FirstShownAt time.Time `json:"firstShownAt"`
	LastShownAt  time.Time `json:"lastShownAt"`
}

// HourlyImpressions is an hourly impression bucket for charting.
type HourlyImpressions struct {
	Hour  time.Time `json:"hour"`
	Count int64     `json:"count"`
}
