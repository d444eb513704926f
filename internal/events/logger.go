// Tabula - Digital Signage Management and Display Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tabula

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tabula/internal/logging"
)

// watermillLogger routes Watermill's internal logging through zerolog.
type watermillLogger struct {
	l zerolog.Logger
}

func newWatermillLogger() watermill.LoggerAdapter {
	return watermillLogger{l: logging.WithComponent("events")}
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.event(w.l.Error().Err(err), fields).Msg(msg)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.event(w.l.Debug(), fields).Msg(msg)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.event(w.l.Debug(), fields).Msg(msg)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.event(w.l.Trace(), fields).Msg(msg)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	lc := w.l.With()
	for k, v := range fields {
		lc = lc.Interface(k, v)
	}
	return watermillLogger{l: lc.Logger()}
}

func (w watermillLogger) event(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
