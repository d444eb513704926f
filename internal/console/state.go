// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package console implements the admin console's display editing
// session: an in-memory view of the currently selected display, updated
// through a pure reducer, persisted back to the server through a
// trailing-edge debounced writer, and refreshed by fetch-on-select.
// Server documents remain the source of truth; this state is an
// eventually consistent write-back cache with last-write-wins
// semantics.
package console

import (
	"github.com/tomtom215/tabula/internal/models"
)

// WidgetSummary is the console's view of one positioned widget.
type WidgetSummary struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type string         `json:"type"`
	X    int            `json:"x"`
	Y    int            `json:"y"`
	W    int            `json:"w"`
	H    int            `json:"h"`
	Data map[string]any `json:"data,omitempty"`
}

// DisplayState is the editing state for one selected display. One
// instance exists per console session; it is discarded when the session
// ends.
type DisplayState struct {
	// ID of the currently focused display; empty when none selected.
	ID   string
	Name string
	// Layout is a member of the closed enum {spaced, compact}, or
	// empty when unset.
	Layout    string
	StatusBar models.StatusBar
	Widgets   []WidgetSummary
	// CurrentPageData maps widget id to transient per-session data a
	// widget wants remembered across navigations. Never persisted.
	CurrentPageData map[string]any
}

// NewDisplayState returns the empty initial state.
func NewDisplayState() DisplayState {
	return DisplayState{
		StatusBar:       models.StatusBar{Enabled: false, Elements: []string{}},
		Widgets:         []WidgetSummary{},
		CurrentPageData: map[string]any{},
	}
}

// clone returns a copy whose mutable slices and maps are independent of
// the receiver. Reductions operate on clones so a returned snapshot is
// never aliased by later transitions.
func (s DisplayState) clone() DisplayState {
	out := s
	out.StatusBar.Elements = append([]string(nil), s.StatusBar.Elements...)
	out.Widgets = append([]WidgetSummary(nil), s.Widgets...)
	out.CurrentPageData = make(map[string]any, len(s.CurrentPageData))
	for k, v := range s.CurrentPageData {
		out.CurrentPageData[k] = v
	}
	return out
}
