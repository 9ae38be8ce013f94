// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame sequences command recording across N frame contexts.
//
// A [Manager] owns one fence, one command recorder shared by every frame
// and N frame contexts, each holding a command allocator and the fence
// value of its last submission. The manager guarantees that an allocator
// is only reset after the GPU has passed that fence value, which bounds
// the number of frames in flight to N.
//
// Each context moves through
//
//	Idle --BeginFrame--> Recording --EndFrame--> Submitted(v) --fence >= v--> Idle
//
// BeginFrame on a Submitted context blocks until the fence reaches v.
// EndFrame never blocks.
//
// Fence waits are bounded by the configured timeout (see [WithWaitTimeout]).
// An expired wait means the device stopped making progress; it is logged at
// error level and reported as [ErrDeviceStalled].
//
// Manager is not safe for concurrent use. Recording happens on a single
// goroutine; only the GPU runs asynchronously.
package frame
