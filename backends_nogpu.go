// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build nogpu

package gframe

import (
	"log/slog"

	// Without GPU support only the simulated backend is available.
	"github.com/gogpu/gframe/backend/sim"
)

func setBackendLogger(l *slog.Logger) { sim.SetLogger(l) }
