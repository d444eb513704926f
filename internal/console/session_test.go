// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tabula/internal/config"
	"github.com/tomtom215/tabula/internal/models"
)

type fakeClient struct {
	mu       sync.Mutex
	displays map[string]*models.Display
	fetchErr error
	updates  []pendingWrite
}

func newFakeClient() *fakeClient {
	return &fakeClient{displays: map[string]*models.Display{}}
}

func (f *fakeClient) Fetch(_ context.Context, id string) (*models.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	d, ok := f.displays[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *d
	return &cp, nil
}

func (f *fakeClient) Update(_ context.Context, id string, patch models.DisplayPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, pendingWrite{id: id, patch: patch})
	return nil
}

func (f *fakeClient) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeClient) lastUpdate() pendingWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[len(f.updates)-1]
}

func testConsoleConfig() config.ConsoleConfig {
	// Long enough that the timer never fires on its own; tests drive
	// persistence through Flush.
	return config.ConsoleConfig{
		SaveDebounce:   time.Hour,
		RequestTimeout: time.Second,
	}
}

func newSessionWithDisplay(t *testing.T) (*Session, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	client.displays["d-1"] = &models.Display{
		ID:   "d-1",
		Name: "Lobby",
		StatusBar: models.StatusBar{
			Enabled:  true,
			Elements: []string{"clock_aa", "weather_bb"},
		},
	}
	s := NewSession(client, testConsoleConfig())
	if err := s.SetID(context.Background(), "d-1"); err != nil {
		t.Fatalf("SetID: %v", err)
	}
	return s, client
}

func TestSessionSetIDPopulatesState(t *testing.T) {
	t.Parallel()

	s, _ := newSessionWithDisplay(t)
	st := s.State()
	if st.ID != "d-1" || st.Name != "Lobby" {
		t.Fatalf("state = %+v", st)
	}
	if !st.StatusBar.Enabled || len(st.StatusBar.Elements) != 2 {
		t.Fatalf("status bar = %+v", st.StatusBar)
	}
	if st.CurrentPageData == nil {
		t.Fatal("CurrentPageData must never be nil")
	}
	if s.Loading() {
		t.Fatal("loading should be false after fetch")
	}
	if s.Err() != nil {
		t.Fatalf("err = %v", s.Err())
	}
}

func TestSessionSetIDFetchFailureKeepsID(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.fetchErr = errors.New("boom")
	s := NewSession(client, testConsoleConfig())

	err := s.SetID(context.Background(), "d-9")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	st := s.State()
	if st.ID != "d-9" {
		t.Fatalf("ID = %q, want d-9 retained", st.ID)
	}
	if st.Name != "" {
		t.Fatalf("Name = %q, want empty", st.Name)
	}
	if s.Err() == nil {
		t.Fatal("Err() should hold the fetch error")
	}
}

func TestSessionMutationsIgnoredWithoutSelection(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	s := NewSession(client, testConsoleConfig())

	s.UpdateName("x")
	s.UpdateLayout(string(models.LayoutSpaced))
	s.UpdateStatusBar(models.StatusBar{Enabled: true})
	if el := s.AddStatusBarItem("clock"); el != "" {
		t.Fatalf("AddStatusBarItem returned %q without a selection", el)
	}
	s.RemoveStatusBarItem(0)
	s.ReorderStatusBarItems(0, 1)
	s.UpdateWidgets([]WidgetSummary{{ID: "w"}})
	s.Flush()

	if got := client.updateCount(); got != 0 {
		t.Fatalf("got %d writes without a selection, want 0", got)
	}
	if st := s.State(); st.Name != "" || len(st.StatusBar.Elements) != 0 {
		t.Fatalf("state mutated without selection: %+v", st)
	}
}

func TestSessionSetNameIsLocalOnly(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	s := NewSession(client, testConsoleConfig())
	s.SetName("draft")
	s.Flush()

	if got := s.State().Name; got != "draft" {
		t.Fatalf("Name = %q", got)
	}
	if got := client.updateCount(); got != 0 {
		t.Fatalf("SetName caused %d writes, want 0", got)
	}
}

func TestSessionUpdateNameDebounced(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	s.UpdateName("A")
	s.UpdateName("B")
	s.Flush()

	if got := client.updateCount(); got != 1 {
		t.Fatalf("got %d writes, want 1", got)
	}
	w := client.lastUpdate()
	if w.id != "d-1" {
		t.Fatalf("write target %q", w.id)
	}
	if w.patch.Name == nil || *w.patch.Name != "B" {
		t.Fatalf("persisted name %v, want B", w.patch.Name)
	}
}

func TestSessionUpdateLayoutRejectsUnknownValue(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	s.UpdateLayout("diagonal")
	s.Flush()

	if got := s.State().Layout; got != "" {
		t.Fatalf("Layout = %q after invalid update", got)
	}
	if got := client.updateCount(); got != 0 {
		t.Fatalf("invalid layout caused %d writes", got)
	}

	s.UpdateLayout(string(models.LayoutCompact))
	s.Flush()
	if got := s.State().Layout; got != string(models.LayoutCompact) {
		t.Fatalf("Layout = %q, want compact", got)
	}
	w := client.lastUpdate()
	if w.patch.Layout == nil || *w.patch.Layout != string(models.LayoutCompact) {
		t.Fatalf("persisted layout %v", w.patch.Layout)
	}
}

func TestSessionAddStatusBarItem(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	el := s.AddStatusBarItem("news")
	if !strings.HasPrefix(el, "news_") {
		t.Fatalf("generated element %q", el)
	}
	s.Flush()

	st := s.State()
	if got := len(st.StatusBar.Elements); got != 3 {
		t.Fatalf("element count %d, want 3", got)
	}
	w := client.lastUpdate()
	if w.patch.StatusBar == nil || len(w.patch.StatusBar.Elements) != 3 {
		t.Fatalf("persisted status bar %+v", w.patch.StatusBar)
	}
}

func TestSessionRemoveStatusBarItemOutOfRange(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	s.RemoveStatusBarItem(5)
	s.Flush()

	if got := len(s.State().StatusBar.Elements); got != 2 {
		t.Fatalf("element count %d, want 2 unchanged", got)
	}
	if got := client.updateCount(); got != 0 {
		t.Fatalf("out-of-range remove caused %d writes", got)
	}
}

func TestSessionAccumulatedPatchCarriesAllTouchedFields(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	s.UpdateName("Atrium")
	s.ReorderStatusBarItems(0, 1)
	s.Flush()

	if got := client.updateCount(); got != 1 {
		t.Fatalf("got %d writes, want 1 coalesced", got)
	}
	w := client.lastUpdate()
	if w.patch.Name == nil || *w.patch.Name != "Atrium" {
		t.Fatalf("name missing from coalesced patch: %+v", w.patch)
	}
	if w.patch.StatusBar == nil {
		t.Fatalf("status bar missing from coalesced patch: %+v", w.patch)
	}
	want := []string{"weather_bb", "clock_aa"}
	if !equalStrings(w.patch.StatusBar.Elements, want) {
		t.Fatalf("persisted elements %v, want %v", w.patch.StatusBar.Elements, want)
	}
}

func TestSessionCurrentPageDataNotPersisted(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	s.UpdateCurrentPageWidgetData("w1", map[string]any{"page": 3})
	s.Flush()

	if got := client.updateCount(); got != 0 {
		t.Fatalf("page data caused %d writes, want 0", got)
	}
	st := s.State()
	if st.CurrentPageData["w1"] == nil {
		t.Fatal("page data missing from state")
	}
}

func TestSessionRefresh(t *testing.T) {
	t.Parallel()

	s, client := newSessionWithDisplay(t)
	client.mu.Lock()
	client.displays["d-1"].Name = "Renamed Elsewhere"
	client.mu.Unlock()

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.State().Name; got != "Renamed Elsewhere" {
		t.Fatalf("Name = %q after refresh", got)
	}
}

func TestSessionRefreshWithoutSelection(t *testing.T) {
	t.Parallel()

	s := NewSession(newFakeClient(), testConsoleConfig())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh without selection: %v", err)
	}
}

func TestSessionSelectionChangeFlushesPendingWrite(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.displays["d-1"] = &models.Display{ID: "d-1", Name: "One"}
	client.displays["d-2"] = &models.Display{ID: "d-2", Name: "Two"}

	s := NewSession(client, testConsoleConfig())
	if err := s.SetID(context.Background(), "d-1"); err != nil {
		t.Fatalf("SetID d-1: %v", err)
	}

	s.UpdateName("One Edited")
	if err := s.SetID(context.Background(), "d-2"); err != nil {
		t.Fatalf("SetID d-2: %v", err)
	}

	if got := client.updateCount(); got != 1 {
		t.Fatalf("got %d writes on selection change, want 1", got)
	}
	w := client.lastUpdate()
	if w.id != "d-1" {
		t.Fatalf("pending write targeted %q, want d-1", w.id)
	}
	if got := s.State().Name; got != "Two" {
		t.Fatalf("Name = %q after selecting d-2", got)
	}
}
