// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpucore defines the backend-neutral GPU objects the frame core
// is built on.
//
// The package has two halves:
//
//   - Interfaces ([Device], [Queue], [Fence], [Allocator], [Recorder],
//     [Resource], [View], [SwapChain]) implemented by thin backends.
//   - The resource state machine: [ResourceState], [CanTransition] and
//     [Barrier]. Every GPU resource carries a current state and every use
//     transitions it explicitly.
//
// # Architecture
//
//	               +-----------------+
//	               |     gpucore     |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          |   backend/sim   |
//	|  (hal.Device)   |          | (in-process GPU)|
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	+-----------------+
//
// # Synchronization
//
// A [Fence] is a timeline: [Queue.Signal] asks the GPU to set it to a value
// after all prior submissions finish, and [Fence.Wait] blocks the CPU until
// it gets there. An [Allocator] must not be reset while the GPU may still
// be consuming commands recorded from it.
package gpucore
