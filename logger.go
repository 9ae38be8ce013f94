// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gframe

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gframe/passes"
	"github.com/gogpu/gframe/views"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for gframe and all its sub-packages.
// By default gframe produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silent
// logging.
//
// Log levels used by gframe:
//   - [slog.LevelDebug]: per-frame events (begin, end, registry changes)
//   - [slog.LevelInfo]: lifecycle (adapter selected, renderer opened)
//   - [slog.LevelWarn]: pacer resynchronization, skipped post pass,
//     validation events
//   - [slog.LevelError]: stalled device, state mismatches
//
// Example:
//
//	gframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	device.SetLogger(l)
	frame.SetLogger(l)
	views.SetLogger(l)
	passes.SetLogger(l)
	setBackendLogger(l)
}

// Logger returns the current logger used by gframe.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
