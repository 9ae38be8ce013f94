// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import "time"

// Option configures a Manager.
type Option func(*Manager)

// WithFrameCount sets the number of frame contexts (frames in flight).
// The default is DefaultFrameCount.
func WithFrameCount(n int) Option {
	return func(m *Manager) { m.frameCount = n }
}

// WithWaitTimeout bounds every fence wait. Zero or a negative duration
// waits forever.
func WithWaitTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithAssertions makes precondition violations (recorder reset failures,
// EndFrame without a recording context) panic instead of returning an
// error. Intended for development builds.
func WithAssertions(on bool) Option {
	return func(m *Manager) { m.assertions = on }
}
