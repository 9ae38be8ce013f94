// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package device opens the graphics device the frame core runs on.
//
// Backends register themselves with a priority:
//
//	func init() {
//	    device.Register("vulkan", 100, open, available)
//	}
//
// [Open] picks the highest-priority backend that reports itself available,
// or the backend named with [WithBackend]. Backends that enumerate several
// adapters order them with [RankAdapters] and open the first.
//
// Standard priorities:
//   - 100: hardware backends (Vulkan)
//   - 50: software rasterizers exposed as adapters
//   - 10: the simulated device
package device
