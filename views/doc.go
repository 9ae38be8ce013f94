// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package views implements fixed-capacity descriptor view registries.
//
// A [Registry] maps names to a resource, a view of it, a descriptor slot and
// the resource's current access state. The same type serves the
// render-target, depth-stencil and shader-resource tables; the kind is
// chosen at construction.
//
// Slots are bump-allocated: every [Registry.Create] and
// [Registry.Allocate] hands out fresh, strictly increasing indices and
// slots are never reclaimed. Capacity is fixed when the registry is created.
//
// The registry is the single source of truth for resource state. Every
// barrier goes through [Registry.TransitionBarrier], which checks the
// requested before-state against the tracked one and the transition
// against [gpucore.CanTransition]. A companion shader-resource entry
// shares its state with the entry that created it, so a depth buffer
// transitioned through the depth-stencil registry reads back correctly
// through the shader-resource registry.
//
// Registries have no internal locking; they are driven by the single
// recording goroutine.
package views
