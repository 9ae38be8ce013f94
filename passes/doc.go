// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package passes sequences a frame into a fixed pipeline of passes.
//
// Each frame runs shadow setup, the shadow draws, offscreen setup, the
// scene draws, back buffer setup, the composite draws and finally the
// post pass, which presents, ends the frame and opens the next one.
// Setup functions only declare the transitions, clears and bindings their
// pass needs; the draws themselves are supplied by the caller as a
// [Draws] value.
//
// Every component a pass touches is reached through an explicit
// [RenderContext]. Transitions are guarded: a barrier is recorded only
// when the tracked state differs from the requested one.
package passes
