// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package main provides the Tabula signage server
//
// @title Tabula API
// @version 1.0
// @description Self-hosted digital signage administration. Manage displays,
// @description grid-positioned widget layouts, slides and status bars, and
// @description stream content-change events to display devices.
// @description
// @description ## Authentication
// @description
// @description Operator endpoints require a JWT bearer token obtained from
// @description `/api/v1/auth/login`. Display devices authenticate with a
// @description device token issued via `/api/v1/displays/{id}/token`, passed
// @description as a bearer token or a `token` query parameter.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Login attempts are limited to 5 per 5 minutes per IP.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "requestId": "..."
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/tabula/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:7446
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token. Obtain via the /api/v1/auth/login endpoint.
//
// @tag.name Displays
// @tag.description Display device registration, configuration and device token issuance
//
// @tag.name Layouts
// @tag.description Grid layouts and widget placement
//
// @tag.name Widgets
// @tag.description Reusable widget definitions
//
// @tag.name Slides
// @tag.description Slides scheduled onto displays
//
// @tag.name Auth
// @tag.description Login and operator account management
//
// @tag.name Analytics
// @tag.description Proof-of-play impression recording and reporting
//
// @tag.name Realtime
// @tag.description Per-display SSE event streams and the admin WebSocket hub
package main
