// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package config loads and validates server configuration from three
// layered sources via koanf: built-in defaults, an optional YAML file,
// and environment variables. Environment variables have the highest
// precedence and use flat legacy-style names (HTTP_PORT, BADGER_PATH,
// JWT_SECRET) mapped onto the nested structure.
package config
