// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package models defines the persisted document types (Display, Layout,
// Widget, Slide, User), the content-change event payloads shared by the
// SSE dispatcher and WebSocket hub, and the proof-of-play impression
// records stored by the analytics layer.
package models
