// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"github.com/tomtom215/tabula/internal/logging"
	"github.com/tomtom215/tabula/internal/models"
)

// Reduce applies action to state and returns the next state. The input
// state is never mutated. Unknown action types and out-of-range indices
// return the state unchanged; enum validation for layout values happens
// in the session layer, not here.
func Reduce(state DisplayState, action Action) DisplayState {
	next := state.clone()

	switch action.Type {
	case ActionSetDisplayData:
		if action.DisplayData == nil {
			return state
		}
		return reduceSetDisplayData(next, *action.DisplayData)

	case ActionSetID:
		next.ID = action.ID

	case ActionSetName:
		next.Name = action.Name

	case ActionSetLayout:
		next.Layout = action.Layout

	case ActionSetStatusBar:
		if action.StatusBar == nil {
			return state
		}
		next.StatusBar = models.StatusBar{
			Enabled:  action.StatusBar.Enabled,
			Elements: append([]string{}, action.StatusBar.Elements...),
		}
		if next.StatusBar.Elements == nil {
			next.StatusBar.Elements = []string{}
		}

	case ActionSetWidgets:
		next.Widgets = append([]WidgetSummary{}, action.Widgets...)

	case ActionAddStatusBarItem:
		if action.Element == "" {
			return state
		}
		next.StatusBar.Elements = append(next.StatusBar.Elements, action.Element)

	case ActionRemoveStatusBarItem:
		els := next.StatusBar.Elements
		if action.Index < 0 || action.Index >= len(els) {
			logging.Debug().
				Str("component", "console").
				Int("index", action.Index).
				Int("length", len(els)).
				Msg("remove status bar item index out of range")
			return state
		}
		next.StatusBar.Elements = append(els[:action.Index], els[action.Index+1:]...)

	case ActionReorderStatusBarItems:
		els := next.StatusBar.Elements
		if action.StartIndex < 0 || action.StartIndex >= len(els) ||
			action.EndIndex < 0 || action.EndIndex >= len(els) {
			logging.Debug().
				Str("component", "console").
				Int("start", action.StartIndex).
				Int("end", action.EndIndex).
				Int("length", len(els)).
				Msg("reorder status bar indices out of range")
			return state
		}
		moved := els[action.StartIndex]
		els = append(els[:action.StartIndex], els[action.StartIndex+1:]...)
		els = append(els[:action.EndIndex], append([]string{moved}, els[action.EndIndex:]...)...)
		next.StatusBar.Elements = els

	case ActionUpdateCurrentPageWidgetData:
		if action.WidgetID == "" {
			return state
		}
		if next.CurrentPageData == nil {
			next.CurrentPageData = map[string]any{}
		}
		next.CurrentPageData[action.WidgetID] = action.WidgetData

	default:
		return state
	}

	return next
}

// reduceSetDisplayData replaces every editable field from the fetched
// document, substituting defaults for absent fields. The selection id
// is only overwritten when the document carries one, so a fetch racing
// a selection change cannot clear the id.
func reduceSetDisplayData(next DisplayState, data DisplayData) DisplayState {
	if data.ID != "" {
		next.ID = data.ID
	}
	next.Name = data.Name
	next.Layout = data.Layout

	if data.StatusBar != nil {
		next.StatusBar = models.StatusBar{
			Enabled:  data.StatusBar.Enabled,
			Elements: append([]string{}, data.StatusBar.Elements...),
		}
		if next.StatusBar.Elements == nil {
			next.StatusBar.Elements = []string{}
		}
	} else {
		next.StatusBar = models.StatusBar{Enabled: false, Elements: []string{}}
	}

	next.Widgets = append([]WidgetSummary{}, data.Widgets...)

	next.CurrentPageData = make(map[string]any, len(data.CurrentPageData))
	for k, v := range data.CurrentPageData {
		next.CurrentPageData[k] = v
	}

	return next
}
