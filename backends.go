// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gframe

import (
	"log/slog"

	"github.com/gogpu/gframe/backend/native"
	"github.com/gogpu/gframe/backend/sim"
)

func setBackendLogger(l *slog.Logger) {
	native.SetLogger(l)
	sim.SetLogger(l)
}
