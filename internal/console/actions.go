// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package console

import (
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/tabula/internal/models"
)

// ActionType identifies a state transition handled by Reduce.
type ActionType string

const (
	ActionSetDisplayData              ActionType = "SET_DISPLAY_DATA"
	ActionSetID                       ActionType = "SET_ID"
	ActionSetName                     ActionType = "SET_NAME"
	ActionSetLayout                   ActionType = "SET_LAYOUT"
	ActionSetStatusBar                ActionType = "SET_STATUS_BAR"
	ActionSetWidgets                  ActionType = "SET_WIDGETS"
	ActionAddStatusBarItem            ActionType = "ADD_STATUS_BAR_ITEM"
	ActionRemoveStatusBarItem         ActionType = "REMOVE_STATUS_BAR_ITEM"
	ActionReorderStatusBarItems       ActionType = "REORDER_STATUS_BAR_ITEMS"
	ActionUpdateCurrentPageWidgetData ActionType = "UPDATE_CURRENT_PAGE_WIDGET_DATA"
)

// DisplayData is the payload of ActionSetDisplayData: a fetched display
// document. Absent fields are replaced with defaults by the reducer.
// An empty ID leaves the current selection id untouched.
type DisplayData struct {
	ID              string
	Name            string
	Layout          string
	StatusBar       *models.StatusBar
	Widgets         []WidgetSummary
	CurrentPageData map[string]any
}

// Action is one reducer input. Exactly the fields relevant to Type are
// populated; the rest are zero.
type Action struct {
	Type ActionType

	DisplayData *DisplayData
	ID          string
	Name        string
	Layout      string
	StatusBar   *models.StatusBar
	Widgets     []WidgetSummary

	// Element is the fully formed status bar element for
	// ActionAddStatusBarItem, e.g. "clock_1a2b3c".
	Element string
	// Index addresses the element for ActionRemoveStatusBarItem.
	Index int
	// StartIndex and EndIndex describe the move for
	// ActionReorderStatusBarItems.
	StartIndex int
	EndIndex   int

	WidgetID   string
	WidgetData any
}

// SetDisplayData builds the action that replaces editable state with a
// fetched document.
func SetDisplayData(data DisplayData) Action {
	return Action{Type: ActionSetDisplayData, DisplayData: &data}
}

func SetID(id string) Action {
	return Action{Type: ActionSetID, ID: id}
}

func SetName(name string) Action {
	return Action{Type: ActionSetName, Name: name}
}

func SetLayout(layout string) Action {
	return Action{Type: ActionSetLayout, Layout: layout}
}

func SetStatusBar(sb models.StatusBar) Action {
	return Action{Type: ActionSetStatusBar, StatusBar: &sb}
}

func SetWidgets(widgets []WidgetSummary) Action {
	return Action{Type: ActionSetWidgets, Widgets: widgets}
}

// AddStatusBarItem builds the append action for a new element of the
// given type. The element identifier is generated here so Reduce stays
// deterministic.
func AddStatusBarItem(itemType string) Action {
	return Action{Type: ActionAddStatusBarItem, Element: NewStatusBarElement(itemType)}
}

func RemoveStatusBarItem(index int) Action {
	return Action{Type: ActionRemoveStatusBarItem, Index: index}
}

func ReorderStatusBarItems(startIndex, endIndex int) Action {
	return Action{Type: ActionReorderStatusBarItems, StartIndex: startIndex, EndIndex: endIndex}
}

func UpdateCurrentPageWidgetData(widgetID string, data any) Action {
	return Action{Type: ActionUpdateCurrentPageWidgetData, WidgetID: widgetID, WidgetData: data}
}

// NewStatusBarElement returns a unique element identifier of the form
// "<type>_<suffix>" so the same element type can appear in the bar more
// than once.
func NewStatusBarElement(itemType string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return itemType + "_" + suffix
}

// ElementType returns the type portion of a status bar element
// identifier, i.e. everything before the generated suffix.
func ElementType(element string) string {
	if i := strings.LastIndex(element, "_"); i >= 0 {
		return element[:i]
	}
	return element
}
