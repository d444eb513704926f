// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"strings"
	"testing"

	"github.com/tomtom215/tabula/internal/models"
)

func TestReduceSetID(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	next := Reduce(state, SetID("d-1"))
	if next.ID != "d-1" {
		t.Fatalf("ID = %q, want d-1", next.ID)
	}
	if state.ID != "" {
		t.Fatal("input state was mutated")
	}
}

func TestReduceSetDisplayDataDefaults(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	state.ID = "d-1"
	state.CurrentPageData["w1"] = "stale"

	next := Reduce(state, SetDisplayData(DisplayData{Name: "Lobby"}))

	if next.ID != "d-1" {
		t.Fatalf("ID = %q, want selection id retained", next.ID)
	}
	if next.Name != "Lobby" {
		t.Fatalf("Name = %q, want Lobby", next.Name)
	}
	if next.StatusBar.Elements == nil || len(next.StatusBar.Elements) != 0 {
		t.Fatalf("StatusBar.Elements = %v, want empty non-nil slice", next.StatusBar.Elements)
	}
	if next.StatusBar.Enabled {
		t.Fatal("StatusBar.Enabled should default to false")
	}
	if next.Widgets == nil || len(next.Widgets) != 0 {
		t.Fatalf("Widgets = %v, want empty non-nil slice", next.Widgets)
	}
	if next.CurrentPageData == nil {
		t.Fatal("CurrentPageData must never be nil")
	}
	if len(next.CurrentPageData) != 0 {
		t.Fatalf("CurrentPageData = %v, want reset to empty", next.CurrentPageData)
	}
}

func TestReduceSetDisplayDataOverwritesID(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	state.ID = "d-old"

	next := Reduce(state, SetDisplayData(DisplayData{ID: "d-new", Name: "X"}))
	if next.ID != "d-new" {
		t.Fatalf("ID = %q, want d-new", next.ID)
	}
}

func TestReduceAddStatusBarItem(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	for i := 1; i <= 3; i++ {
		state = Reduce(state, AddStatusBarItem("clock"))
		if got := len(state.StatusBar.Elements); got != i {
			t.Fatalf("after %d adds: %d elements", i, got)
		}
	}
	for _, el := range state.StatusBar.Elements {
		if !strings.HasPrefix(el, "clock_") {
			t.Fatalf("element %q does not carry the type prefix", el)
		}
		if ElementType(el) != "clock" {
			t.Fatalf("ElementType(%q) = %q", el, ElementType(el))
		}
	}
	seen := map[string]bool{}
	for _, el := range state.StatusBar.Elements {
		if seen[el] {
			t.Fatalf("duplicate element identifier %q", el)
		}
		seen[el] = true
	}
}

func TestReduceRemoveStatusBarItem(t *testing.T) {
	t.Parallel()

	base := NewDisplayState()
	base.StatusBar.Elements = []string{"clock_a", "weather_b", "news_c"}

	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"first", 0, []string{"weather_b", "news_c"}},
		{"middle", 1, []string{"clock_a", "news_c"}},
		{"last", 2, []string{"clock_a", "weather_b"}},
		{"negative", -1, []string{"clock_a", "weather_b", "news_c"}},
		{"past end", 3, []string{"clock_a", "weather_b", "news_c"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next := Reduce(base, RemoveStatusBarItem(tc.index))
			if got := next.StatusBar.Elements; !equalStrings(got, tc.want) {
				t.Fatalf("elements = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReduceReorderStatusBarItems(t *testing.T) {
	t.Parallel()

	base := NewDisplayState()
	base.StatusBar.Elements = []string{"a", "b", "c", "d"}

	tests := []struct {
		name       string
		start, end int
		want       []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward", 3, 0, []string{"d", "a", "b", "c"}},
		{"adjacent", 1, 2, []string{"a", "c", "b", "d"}},
		{"same index", 2, 2, []string{"a", "b", "c", "d"}},
		{"start out of range", 4, 0, []string{"a", "b", "c", "d"}},
		{"end out of range", 0, 4, []string{"a", "b", "c", "d"}},
		{"negative", -1, 1, []string{"a", "b", "c", "d"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			next := Reduce(base, ReorderStatusBarItems(tc.start, tc.end))
			if got := next.StatusBar.Elements; !equalStrings(got, tc.want) {
				t.Fatalf("elements = %v, want %v", got, tc.want)
			}
			if len(next.StatusBar.Elements) != len(base.StatusBar.Elements) {
				t.Fatal("reorder changed element count")
			}
		})
	}
}

func TestReduceUpdateCurrentPageWidgetData(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	state = Reduce(state, UpdateCurrentPageWidgetData("w1", map[string]any{"page": 2}))
	state = Reduce(state, UpdateCurrentPageWidgetData("w2", "scrolled"))

	if len(state.CurrentPageData) != 2 {
		t.Fatalf("CurrentPageData has %d entries, want 2", len(state.CurrentPageData))
	}
	if state.CurrentPageData["w2"] != "scrolled" {
		t.Fatalf("w2 data = %v", state.CurrentPageData["w2"])
	}

	// Tolerates a nil map on legacy states.
	var zero DisplayState
	next := Reduce(zero, UpdateCurrentPageWidgetData("w1", 1))
	if next.CurrentPageData["w1"] != 1 {
		t.Fatalf("nil-map update lost data: %v", next.CurrentPageData)
	}
}

func TestReduceSetStatusBarCopiesElements(t *testing.T) {
	t.Parallel()

	els := []string{"clock_a"}
	state := Reduce(NewDisplayState(), SetStatusBar(models.StatusBar{Enabled: true, Elements: els}))
	els[0] = "mutated"
	if state.StatusBar.Elements[0] != "clock_a" {
		t.Fatal("reducer aliased the caller's slice")
	}
}

func TestReduceUnknownActionIsNoOp(t *testing.T) {
	t.Parallel()

	state := NewDisplayState()
	state.Name = "keep"
	next := Reduce(state, Action{Type: ActionType("SOMETHING_ELSE")})
	if next.Name != "keep" {
		t.Fatalf("Name = %q after unknown action", next.Name)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
