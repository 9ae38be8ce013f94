// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

// ResourceState is the logical access state of a GPU resource.
// Every use of a resource requires it to be in a compatible state, and
// every change of state must be declared with a Barrier.
type ResourceState uint8

// Resource states.
const (
	// StateCommon is the initial state of freshly created resources.
	StateCommon ResourceState = iota

	// StateRenderTarget allows color attachment writes.
	StateRenderTarget

	// StateDepthWrite allows depth/stencil attachment writes.
	StateDepthWrite

	// StateDepthRead allows depth testing without writes.
	StateDepthRead

	// StateShaderRead allows sampling from shaders.
	StateShaderRead

	// StateCopySrc allows the resource to be read by copy commands.
	StateCopySrc

	// StateCopyDst allows the resource to be written by copy commands.
	StateCopyDst

	// StatePresent is the state a back buffer must be in when presented.
	StatePresent

	// StateUnorderedAccess allows read/write storage access from shaders.
	StateUnorderedAccess

	stateCount
)

// String returns the state name.
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "Common"
	case StateRenderTarget:
		return "RenderTarget"
	case StateDepthWrite:
		return "DepthWrite"
	case StateDepthRead:
		return "DepthRead"
	case StateShaderRead:
		return "ShaderRead"
	case StateCopySrc:
		return "CopySrc"
	case StateCopyDst:
		return "CopyDst"
	case StatePresent:
		return "Present"
	case StateUnorderedAccess:
		return "UnorderedAccess"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is a known state.
func (s ResourceState) Valid() bool { return s < stateCount }

// Writable reports whether a resource in state s may be cleared or
// written by the pipeline.
func (s ResourceState) Writable() bool {
	switch s {
	case StateRenderTarget, StateDepthWrite, StateUnorderedAccess, StateCopyDst:
		return true
	}
	return false
}

// stateMask is a set of states.
type stateMask uint16

func maskOf(states ...ResourceState) stateMask {
	var m stateMask
	for _, s := range states {
		m |= 1 << s
	}
	return m
}

func (m stateMask) has(s ResourceState) bool { return m&(1<<s) != 0 }

// kindStates lists the states each resource kind may enter.
var kindStates = [...]stateMask{
	KindColorTexture: maskOf(StateCommon, StateRenderTarget, StateShaderRead,
		StateCopySrc, StateCopyDst, StatePresent, StateUnorderedAccess),
	KindDepthTexture: maskOf(StateCommon, StateDepthWrite, StateDepthRead,
		StateShaderRead, StateCopySrc, StateCopyDst),
	KindBuffer: maskOf(StateCommon, StateShaderRead, StateCopySrc,
		StateCopyDst, StateUnorderedAccess),
}

// CanTransition reports whether a resource of the given kind may move
// from before to after. Self-transitions are never valid: callers that
// only want to guarantee a state must skip the barrier instead.
func CanTransition(kind ResourceKind, before, after ResourceState) bool {
	if !before.Valid() || !after.Valid() || before == after {
		return false
	}
	if int(kind) >= len(kindStates) {
		return false
	}
	m := kindStates[kind]
	return m.has(before) && m.has(after)
}

// Barrier declares a state transition of a single resource.
type Barrier struct {
	Resource Resource
	Before   ResourceState
	After    ResourceState
}
