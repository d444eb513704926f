// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

// Package websocket pushes live updates to connected admin consoles.
//
// The hub fans content change notifications out to every open console
// so that two admins editing the same fleet see each other's changes
// without reloading. It deliberately serves the admin side only;
// display devices receive their updates over per-display SSE streams
// served by the sse package, which survive flaky signage networks
// better than a bidirectional socket.
//
// Delivery is best effort. A console whose send buffer fills is
// disconnected instead of being allowed to stall broadcasts to the
// rest, and the console is expected to reconnect and re-fetch.
package websocket
