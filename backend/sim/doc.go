// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sim provides an in-process simulated GPU implementing gpucore.
//
// The simulated device executes nothing, but it keeps a faithful model of
// everything the frame core relies on:
//
//   - Fences advance only when the simulated GPU retires a signal. By
//     default signals retire immediately; [WithManualRetire] leaves them
//     pending until [Device.Retire] is called, and [WithLatency] retires
//     each one after a fixed delay on another goroutine.
//   - Allocators remember the fence value that covers their last
//     submission, and resetting one early is rejected.
//   - Every executed command is appended to a log ([Device.Commands]) and
//     the device tracks the state of every resource independently of the
//     caller, reporting barriers whose before-state disagrees.
//
// It is the backend used by the package tests and by the headless demo.
package sim
