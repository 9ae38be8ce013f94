// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpucore

import "time"

// Device is the logical GPU device. Each backend (HAL, simulated)
// implements it once; everything above gpucore talks only to these
// interfaces.
type Device interface {
	// Info describes the adapter the device was opened on.
	Info() AdapterInfo

	// Queue returns the device's single submission queue.
	Queue() Queue

	// CreateFence creates a fence with completed value 0.
	CreateFence() (Fence, error)

	// CreateAllocator creates a command allocator backing recorders.
	CreateAllocator(label string) (Allocator, error)

	// CreateRecorder creates a command recorder in the closed state.
	// It must be reset against an allocator before recording.
	CreateRecorder(a Allocator, label string) (Recorder, error)

	CreateTexture(desc *TextureDesc) (Resource, error)
	CreateBuffer(desc *BufferDesc) (Resource, error)
	CreateView(r Resource, desc *ViewDesc) (View, error)
	CreateSwapChain(desc *SwapChainDesc) (SwapChain, error)

	// SetValidationHook installs a hook that receives backend
	// validation events. A nil hook disables reporting.
	SetValidationHook(h ValidationHook)

	// Destroy releases the device. All objects created from it must be
	// destroyed first.
	Destroy()
}

// Queue executes recorded commands in submission order.
type Queue interface {
	// Execute submits a closed recorder's commands.
	Execute(r Recorder) error

	// Signal makes the GPU set f to value once all previously
	// submitted work completes. It never blocks.
	Signal(f Fence, value uint64) error

	// WriteBuffer copies data from the CPU into an upload buffer at
	// offset. The write is visible to commands executed after it.
	WriteBuffer(b Resource, offset uint64, data []byte) error
}

// Fence is a monotonically increasing GPU/CPU synchronization counter.
type Fence interface {
	// Completed returns the last value the GPU has signalled.
	// It never decreases.
	Completed() uint64

	// Wait blocks until Completed() >= value or the timeout expires.
	// It reports whether the value was reached.
	Wait(value uint64, timeout time.Duration) (bool, error)

	Destroy()
}

// Allocator owns the memory recorded commands live in.
type Allocator interface {
	// Reset reclaims all command memory. The GPU must have finished
	// executing everything recorded from the allocator.
	Reset() error

	Destroy()
}

// Recorder records GPU commands into an allocator.
type Recorder interface {
	// Reset reopens the recorder against a. The recorder must be closed.
	Reset(a Allocator) error

	// Close ends recording; the recorder can then be executed.
	Close() error

	// Closed reports whether the recorder is not recording.
	Closed() bool

	Barrier(b ...Barrier)
	ClearColor(v View, c [4]float32)
	ClearDepth(v View, depth float32, stencil uint8)

	// SetRenderTargets binds color and depth targets for subsequent
	// draws. depth may be nil.
	SetRenderTargets(color []View, depth View)

	// CopyBuffer copies size bytes from src at srcOffset into dst at
	// dstOffset. src must be in StateCopySrc and dst in StateCopyDst
	// when the commands execute.
	CopyBuffer(dst Resource, dstOffset uint64, src Resource, srcOffset, size uint64)

	// CopyBufferToTexture fills the whole of color texture dst from
	// src, starting at srcOffset with rows bytesPerRow apart. The same
	// state rules as CopyBuffer apply.
	CopyBufferToTexture(dst Resource, src Resource, srcOffset uint64, bytesPerRow uint32)

	Destroy()
}

// Resource is a GPU texture or buffer.
type Resource interface {
	Label() string
	Kind() ResourceKind

	// Size returns width and height for textures, and the byte size
	// (with height 1) for buffers.
	Size() (width, height uint32)

	Destroy()
}

// View is a typed view of a resource.
type View interface {
	Resource() Resource
	Kind() ViewKind
	Destroy()
}

// SwapChain is a rotating set of presentable images.
type SwapChain interface {
	// CurrentIndex returns the image the next frame renders into.
	CurrentIndex() int

	// Images returns the backing images, indexed by image index.
	Images() []Resource

	// Present displays the current image and advances CurrentIndex.
	// syncInterval 0 presents immediately; n waits for n vertical
	// blanks where the platform supports it.
	Present(syncInterval int) error

	Destroy()
}
