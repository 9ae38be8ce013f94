// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name   string
		kind   ResourceKind
		before ResourceState
		after  ResourceState
		want   bool
	}{
		{"color to render target", KindColorTexture, StateCommon, StateRenderTarget, true},
		{"render target to shader read", KindColorTexture, StateRenderTarget, StateShaderRead, true},
		{"render target to present", KindColorTexture, StateRenderTarget, StatePresent, true},
		{"present to render target", KindColorTexture, StatePresent, StateRenderTarget, true},
		{"color cannot depth write", KindColorTexture, StateCommon, StateDepthWrite, false},
		{"depth write to shader read", KindDepthTexture, StateDepthWrite, StateShaderRead, true},
		{"depth read to depth write", KindDepthTexture, StateDepthRead, StateDepthWrite, true},
		{"depth cannot present", KindDepthTexture, StateDepthWrite, StatePresent, false},
		{"depth cannot render target", KindDepthTexture, StateCommon, StateRenderTarget, false},
		{"buffer to uav", KindBuffer, StateCommon, StateUnorderedAccess, true},
		{"buffer cannot render target", KindBuffer, StateCommon, StateRenderTarget, false},
		{"self transition", KindColorTexture, StateShaderRead, StateShaderRead, false},
		{"invalid state", KindColorTexture, ResourceState(200), StateShaderRead, false},
		{"invalid kind", ResourceKind(9), StateCommon, StateShaderRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.kind, tt.before, tt.after); got != tt.want {
				t.Errorf("CanTransition(%v, %v, %v) = %v, want %v",
					tt.kind, tt.before, tt.after, got, tt.want)
			}
		})
	}
}

func TestResourceStateWritable(t *testing.T) {
	writable := map[ResourceState]bool{
		StateRenderTarget:    true,
		StateDepthWrite:      true,
		StateUnorderedAccess: true,
		StateCopyDst:         true,
	}
	for s := StateCommon; s < stateCount; s++ {
		if got := s.Writable(); got != writable[s] {
			t.Errorf("%v.Writable() = %v, want %v", s, got, writable[s])
		}
	}
}

func TestResourceStateString(t *testing.T) {
	for s := StateCommon; s < stateCount; s++ {
		if s.String() == "Unknown" {
			t.Errorf("state %d has no name", s)
		}
	}
	if got := ResourceState(99).String(); got != "Unknown" {
		t.Errorf("ResourceState(99).String() = %q, want Unknown", got)
	}
}
