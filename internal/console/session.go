// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// Session owns one admin user's display editing flow. It applies
// mutations to the local state through Reduce, then persists them as
// partial documents through the debouncer. Mutations other than SetID
// and SetName are ignored while no display is selected.
//
// Writes are optimistic: local state changes immediately and a failed
// persist is logged without rolling the state back. The server document
// wins on the next fetch.
type Session struct {
	mu      sync.Mutex
	state   DisplayState
	loading bool
	lastErr error

	// touched tracks which persistable fields have been edited this
	// session, so every scheduled write carries the full accumulated
	// delta rather than just the latest field.
	touched map[string]bool

	client    DisplayClient
	debouncer *Debouncer
	log       zerolog.Logger
}

// NewSession returns an idle session with no display selected.
func NewSession(client DisplayClient, cfg config.ConsoleConfig) *Session {
	s := &Session{
		state:   NewDisplayState(),
		touched: map[string]bool{},
		client:  client,
		log:     logging.WithComponent("console"),
	}
	s.debouncer = NewDebouncer(client.Update, cfg.SaveDebounce, cfg.RequestTimeout)
	return s
}

// State returns a snapshot of the current editing state. The snapshot
// is independent of later mutations.
func (s *Session) State() DisplayState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Loading reports whether a fetch triggered by SetID or Refresh is in
// flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error from the most recent fetch, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SetID selects a display and loads its document. The id is visible in
// state before the fetch completes; on fetch failure the state keeps
// the id and nothing else changes.
func (s *Session) SetID(ctx context.Context, id string) error {
	s.mu.Lock()
	s.dispatchLocked(SetID(id))
	s.touched = map[string]bool{}
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	// A pending write belongs to the previous selection; its id was
	// captured at schedule time, so flush rather than drop it.
	s.debouncer.Flush()

	return s.fetch(ctx, id)
}

// Refresh re-fetches the selected display's document. No-op without a
// selection.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	id := s.state.ID
	if id == "" {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()

	return s.fetch(ctx, id)
}

func (s *Session) fetch(ctx context.Context, id string) error {
	doc, err := s.client.Fetch(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = err
		s.log.Error().Err(err).Str("display_id", id).Msg("display fetch failed")
		return fmt.Errorf("fetch display %s: %w", id, err)
	}
	if s.state.ID != id {
		// Selection moved on while the fetch was in flight.
		return nil
	}
	s.dispatchLocked(SetDisplayData(displayToData(doc)))
	return nil
}

// SetName changes the display name locally without persisting. Used
// while the rename field still has focus.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatchLocked(SetName(name))
}

// UpdateName changes the name and schedules a persist.
func (s *Session) UpdateName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	s.dispatchLocked(SetName(name))
	s.touched["name"] = true
	s.scheduleLocked()
}

// UpdateLayout changes the layout and schedules a persist. Values
// outside the layout enum are rejected without touching state.
func (s *Session) UpdateLayout(layout string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	if !models.ValidLayoutType(layout) {
		s.log.Warn().Str("layout", layout).Msg("ignoring unknown layout value")
		return
	}
	s.dispatchLocked(SetLayout(layout))
	s.touched["layout"] = true
	s.scheduleLocked()
}

// UpdateWidgets replaces the widget list and schedules a persist.
func (s *Session) UpdateWidgets(widgets []WidgetSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	s.dispatchLocked(SetWidgets(widgets))
	s.touched["widgets"] = true
	s.scheduleLocked()
}

// UpdateStatusBar replaces the whole status bar and schedules a
// persist.
func (s *Session) UpdateStatusBar(sb models.StatusBar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	s.dispatchLocked(SetStatusBar(sb))
	s.touched["statusBar"] = true
	s.scheduleLocked()
}

// AddStatusBarItem appends a new element of the given type and
// schedules a persist. Returns the generated element identifier, or
// empty when no display is selected.
func (s *Session) AddStatusBarItem(itemType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return ""
	}
	action := AddStatusBarItem(itemType)
	s.dispatchLocked(action)
	s.touched["statusBar"] = true
	s.scheduleLocked()
	return action.Element
}

// RemoveStatusBarItem removes the element at index and schedules a
// persist. Out-of-range indices leave both state and server untouched.
func (s *Session) RemoveStatusBarItem(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	next := Reduce(s.state, RemoveStatusBarItem(index))
	if len(next.StatusBar.Elements) == len(s.state.StatusBar.Elements) {
		return
	}
	s.state = next
	s.touched["statusBar"] = true
	s.scheduleLocked()
}

// ReorderStatusBarItems moves the element at startIndex to endIndex and
// schedules a persist. Out-of-range indices are ignored.
func (s *Session) ReorderStatusBarItems(startIndex, endIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	if startIndex == endIndex {
		return
	}
	s.dispatchLocked(ReorderStatusBarItems(startIndex, endIndex))
	s.touched["statusBar"] = true
	s.scheduleLocked()
}

// UpdateCurrentPageWidgetData stores transient per-widget data in the
// session. Never persisted to the server.
func (s *Session) UpdateCurrentPageWidgetData(widgetID string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ID == "" {
		return
	}
	s.dispatchLocked(UpdateCurrentPageWidgetData(widgetID, data))
}

// Flush persists any pending write immediately. Call before tearing the
// session down.
func (s *Session) Flush() {
	s.debouncer.Flush()
}

// Close flushes pending writes and releases the session.
func (s *Session) Close() {
	s.debouncer.Flush()
}

func (s *Session) dispatchLocked(action Action) {
	s.state = Reduce(s.state, action)
}

// scheduleLocked hands the accumulated delta for every touched field to
// the debouncer. The debouncer replaces pending patches wholesale, so
// the patch must always carry everything edited this session.
func (s *Session) scheduleLocked() {
	patch := models.DisplayPatch{}
	if s.touched["name"] {
		name := s.state.Name
		patch.Name = &name
	}
	if s.touched["layout"] {
		layout := s.state.Layout
		patch.Layout = &layout
	}
	if s.touched["statusBar"] {
		sb := models.StatusBar{
			Enabled:  s.state.StatusBar.Enabled,
			Elements: append([]string{}, s.state.StatusBar.Elements...),
		}
		patch.StatusBar = &sb
	}
	if s.touched["widgets"] {
		ids := make([]string, 0, len(s.state.Widgets))
		for _, w := range s.state.Widgets {
			ids = append(ids, w.ID)
		}
		patch.Widgets = &ids
	}
	s.debouncer.Schedule(s.state.ID, patch)
}

// displayToData maps a fetched document onto the reducer payload.
// Documents do not carry page data; it always starts empty after a
// fetch.
func displayToData(d *models.Display) DisplayData {
	data := DisplayData{
		ID:        d.ID,
		Name:      d.Name,
		Layout:    d.Layout,
		StatusBar: &d.StatusBar,
	}
	for _, id := range d.Widgets {
		data.Widgets = append(data.Widgets, WidgetSummary{ID: id})
	}
	return data
}
