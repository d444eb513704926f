// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package models

import "time"

// LayoutType is the spacing mode of a layout grid.
type LayoutType string

const (
	LayoutSpaced  LayoutType = "spaced"
	LayoutCompact LayoutType = "compact"
)

// ValidLayoutType reports whether s is a member of the closed layout enum.
func ValidLayoutType(s string) bool {
	switch LayoutType(s) {
	case LayoutSpaced, LayoutCompact:
		return true
	}
	return false
}

// Orientation is the physical mounting orientation of a display.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// StatusBar is the persistent strip of small rotating elements (clock,
// date, weather) shown alongside the main widget grid. Elements carry a
// type prefix plus a generated suffix (e.g. "clock_ab12cd") so duplicate
// types coexist and are individually addressable by position.
type StatusBar struct {
	Enabled  bool     `json:"enabled"`
	Color    string   `json:"color,omitempty"`
	Elements []string `json:"elements"`
}

// Display is a registered physical screen plus its current content
// assignment.
type Display struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Widgets is the legacy direct widget reference list, kept for
	// displays created before layouts existed.
	Widgets []string `json:"widgets,omitempty"`
	// Layout references a Layout document by id. Older documents may
	// carry a bare layout-type string instead.
	Layout    string    `json:"layout,omitempty"`
	StatusBar StatusBar `json:"statusBar"`
	CreatorID string    `json:"creatorId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayPatch is a partial display document for PATCH updates. Nil
// fields are left untouched.
type DisplayPatch struct {
	Name      *string    `json:"name,omitempty"`
	Widgets   *[]string  `json:"widgets,omitempty"`
	Layout    *string    `json:"layout,omitempty"`
	StatusBar *StatusBar `json:"statusBar,omitempty"`
}

// GridConfig describes the layout grid geometry.
type GridConfig struct {
	Cols      int    `json:"cols"`
	Rows      int    `json:"rows"`
	Margin    [2]int `json:"margin"`
	RowHeight int    `json:"rowHeight"`
}

// LayoutWidget is a grid-positioned reference to an independently stored
// Widget document. Widgets can in principle be shared between layouts.
type LayoutWidget struct {
	WidgetID string `json:"widgetId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	W        int    `json:"w"`
	H        int    `json:"h"`
}

// Layout is a named, reusable arrangement of widgets on a grid.
type Layout struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Orientation Orientation    `json:"orientation"`
	LayoutType  LayoutType     `json:"layoutType"`
	Widgets     []LayoutWidget `json:"widgets"`
	StatusBar   StatusBar      `json:"statusBar"`
	IsActive    bool           `json:"isActive"`
	IsTemplate  bool           `json:"isTemplate"`
	CreatorID   string         `json:"creatorId,omitempty"`
	GridConfig  GridConfig     `json:"gridConfig"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Widget is a typed content unit (weather, image, announcement) with a
// type-specific opaque data payload.
type Widget struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	CreatorID string         `json:"creatorId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Slide is a full-screen content unit rotated on assigned displays.
type Slide struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
	// Duration is how long the slide is shown, in seconds.
	Duration   int       `json:"duration"`
	IsActive   bool      `json:"isActive"`
	DisplayIDs []string  `json:"displayIds"`
	CreatorID  string    `json:"creatorId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// User is an operator account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Roles recognized by the authorization layer.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// ValidRole reports whether s is a recognized role.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}
