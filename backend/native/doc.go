// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native implements gpucore on the gogpu/wgpu hardware abstraction
// layer.
//
// It registers two device backends:
//
//   - "vulkan" (priority 100): the Vulkan HAL, picking the most capable
//     adapter as ranked by device.RankAdapters.
//   - "noop" (priority 1): the HAL's no-op backend, useful for headless
//     runs on machines without a GPU.
//
// A host application that already owns a device can share it through
// device.WithShared; see [Import].
//
// Mapping onto the HAL:
//
//   - A Recorder wraps a HAL command encoder. Close ends encoding and
//     Queue.Execute submits the resulting command buffer.
//   - An Allocator owns the command buffers submitted from it and frees
//     them on Reset, which fails while any of them may still execute.
//   - Resource states map to HAL texture usages; barriers become
//     TransitionTextures calls.
//   - The swap chain is offscreen: N render-attachment textures rotated on
//     Present. Window surfaces are owned by the host application.
//
// Build with -tags nogpu to exclude the package's GPU code.
package native
