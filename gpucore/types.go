// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import (
	"math"
	"time"

	"github.com/gogpu/gputypes"
)

// Infinite is the fence wait timeout meaning "wait until signalled".
const Infinite time.Duration = math.MaxInt64

// AdapterType classifies a hardware adapter.
type AdapterType uint8

// Adapter types, ordered from most to least capable.
const (
	AdapterDiscrete AdapterType = iota
	AdapterIntegrated
	AdapterVirtual
	AdapterCPU
	AdapterOther
)

// String returns the adapter type name.
func (t AdapterType) String() string {
	switch t {
	case AdapterDiscrete:
		return "Discrete"
	case AdapterIntegrated:
		return "Integrated"
	case AdapterVirtual:
		return "Virtual"
	case AdapterCPU:
		return "CPU"
	default:
		return "Other"
	}
}

// AdapterInfo describes a hardware adapter.
type AdapterInfo struct {
	Name    string
	Backend string
	Type    AdapterType
}

// ResourceKind distinguishes the resource families a state applies to.
type ResourceKind uint8

// Resource kinds.
const (
	KindColorTexture ResourceKind = iota
	KindDepthTexture
	KindBuffer
)

// String returns the kind name.
func (k ResourceKind) String() string {
	switch k {
	case KindColorTexture:
		return "ColorTexture"
	case KindDepthTexture:
		return "DepthTexture"
	case KindBuffer:
		return "Buffer"
	default:
		return "Unknown"
	}
}

// ViewKind is the type of a descriptor view.
type ViewKind uint8

// View kinds.
const (
	ViewRenderTarget ViewKind = iota
	ViewDepthStencil
	ViewShaderResource
	ViewUnorderedAccess
)

// String returns the view kind name.
func (k ViewKind) String() string {
	switch k {
	case ViewRenderTarget:
		return "RTV"
	case ViewDepthStencil:
		return "DSV"
	case ViewShaderResource:
		return "SRV"
	case ViewUnorderedAccess:
		return "UAV"
	default:
		return "Unknown"
	}
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat

	// Depth selects a depth/stencil texture.
	Depth bool

	// ShaderVisible allows the texture to be sampled later.
	ShaderVisible bool

	// InitialState is the state the texture is created in.
	InitialState ResourceState
}

// BufferDesc describes a linear buffer.
type BufferDesc struct {
	Label string
	Size  uint64

	// Upload selects host-visible memory the CPU can write directly.
	// Otherwise the buffer is device-local with unordered access.
	Upload bool
}

// ViewDesc describes a view of a resource.
type ViewDesc struct {
	Label string
	Kind  ViewKind
}

// SwapChainDesc describes a presentation chain.
type SwapChainDesc struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	BufferCount int
}

// ClearValue holds clear values for color or depth/stencil views.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint8
}

// ValidationEvent reports a misuse detected by a backend.
type ValidationEvent struct {
	Message  string
	Resource string
}

// ValidationHook receives validation events from a device.
type ValidationHook func(ValidationEvent)
