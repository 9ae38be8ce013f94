// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gframe is a GPU frame-submission core for the GoGPU ecosystem.
//
// # Overview
//
// gframe sequences the CPU side of a real-time renderer: it paces frames,
// keeps a bounded number of frames in flight behind a fence, tracks the
// access state of every render target and records the barriers, clears and
// target bindings of a fixed pass pipeline. Draw calls themselves are
// supplied by the caller.
//
// # Quick Start
//
//	import "github.com/gogpu/gframe"
//
//	r, err := gframe.Open(gframe.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	err = r.Run(ctx, 600, passes.Draws{
//	    Scene: drawScene,
//	})
//
// # Architecture
//
// The module is organized bottom-up:
//   - gpucore: the device abstraction and the resource state machine
//   - backend/native: gogpu/wgpu HAL implementation (Vulkan, noop)
//   - backend/sim: simulated device with a command log, for tests
//   - device: backend registry and adapter ranking
//   - frame: frame contexts, the shared recorder and fence waits
//   - views: render-target, depth-stencil and shader-resource registries
//   - present: the presentation chain
//   - pacer: fixed-rate frame pacing and statistics
//   - passes: the render context and the pass pipeline
//   - shader: WGSL to SPIR-V compilation with a cache
//
// [Open] wires these into one [passes.RenderContext]. Nothing in the
// module is global except the registered backends and the logger.
//
// # Configuration
//
// [Config] is fixed when the renderer opens. It can be built in code,
// adjusted with [Config.With] and [Option] values, or loaded from TOML
// with [LoadConfig]:
//
//	frames_in_flight = 2
//	target_fps = 60
//	width = 1280
//	height = 720
//	wait_timeout = "5s"
//
// # Logging
//
// gframe is silent by default. [SetLogger] installs a log/slog logger in
// every sub-package.
package gframe
