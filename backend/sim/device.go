// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
)

// Simulated device errors.
var (
	// ErrRecorderOpen is returned when a recorder is reset while it is
	// still recording.
	ErrRecorderOpen = errors.New("sim: recorder is still recording")

	// ErrRecorderNotOpen is returned when closing a closed recorder.
	ErrRecorderNotOpen = errors.New("sim: recorder is not recording")

	// ErrRecorderNotClosed is returned when executing an open recorder.
	ErrRecorderNotClosed = errors.New("sim: recorder must be closed before execution")

	// ErrAllocatorInFlight is returned when an allocator is reset while
	// the GPU may still be executing commands recorded from it.
	ErrAllocatorInFlight = errors.New("sim: allocator reset while in flight")

	// ErrForeignObject is returned when an object from another backend
	// is passed to the simulated device.
	ErrForeignObject = errors.New("sim: object does not belong to the simulated device")

	// ErrInvalidDesc is returned for zero-sized resources.
	ErrInvalidDesc = errors.New("sim: invalid descriptor")

	// ErrNotHostVisible is returned when the CPU writes a resource that
	// is not an upload buffer.
	ErrNotHostVisible = errors.New("sim: resource is not a host-visible buffer")

	// ErrOutOfRange is returned for writes past the end of a buffer.
	ErrOutOfRange = errors.New("sim: write out of range")

	// ErrSharedUnsupported is returned when asked to import a host device.
	ErrSharedUnsupported = errors.New("sim: cannot import a shared device")
)

// Option configures a simulated Device.
type Option func(*Device)

// WithManualRetire leaves fence signals pending until Retire is called.
func WithManualRetire() Option {
	return func(d *Device) { d.mode = retireManual }
}

// WithLatency retires each fence signal after d.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) {
		dev.mode = retireLatency
		dev.latency = d
	}
}

// WithAdapter sets the adapter description reported by Info.
func WithAdapter(info gpucore.AdapterInfo) Option {
	return func(d *Device) { d.info = info }
}

type retireMode uint8

const (
	retireImmediate retireMode = iota
	retireManual
	retireLatency
)

type pendingSignal struct {
	fence *Fence
	value uint64
}

// Device is a simulated gpucore.Device.
// It is safe for concurrent use: fence signals may retire on other
// goroutines while the recording goroutine drives the device.
type Device struct {
	mu sync.Mutex

	info    gpucore.AdapterInfo
	mode    retireMode
	latency time.Duration
	queue   *Queue
	hook    gpucore.ValidationHook

	commands []Command
	events   []gpucore.ValidationEvent
	states   map[*resource]gpucore.ResourceState
	pending  []pendingSignal

	// unsignalled holds allocators executed since the last Signal.
	unsignalled []*Allocator

	nextID uint64
}

var _ gpucore.Device = (*Device)(nil)

// New creates a simulated device.
func New(opts ...Option) *Device {
	d := &Device{
		info: gpucore.AdapterInfo{
			Name:    "Simulated GPU",
			Backend: "sim",
			Type:    gpucore.AdapterVirtual,
		},
		states: make(map[*resource]gpucore.ResourceState),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = &Queue{dev: d}
	return d
}

// Info returns the simulated adapter description.
func (d *Device) Info() gpucore.AdapterInfo { return d.info }

// Queue returns the device's queue.
func (d *Device) Queue() gpucore.Queue { return d.queue }

// SetValidationHook installs h.
func (d *Device) SetValidationHook(h gpucore.ValidationHook) {
	d.mu.Lock()
	d.hook = h
	d.mu.Unlock()
}

// CreateFence creates a fence at value 0.
func (d *Device) CreateFence() (gpucore.Fence, error) {
	return newFence(d), nil
}

// CreateAllocator creates a command allocator.
func (d *Device) CreateAllocator(label string) (gpucore.Allocator, error) {
	return &Allocator{dev: d, label: label}, nil
}

// CreateRecorder creates a closed recorder bound to a.
func (d *Device) CreateRecorder(a gpucore.Allocator, label string) (gpucore.Recorder, error) {
	alloc, ok := a.(*Allocator)
	if !ok || alloc.dev != d {
		return nil, ErrForeignObject
	}
	return &Recorder{dev: d, label: label, alloc: alloc}, nil
}

// CreateTexture creates a simulated texture.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.Resource, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture size must be positive", ErrInvalidDesc)
	}
	kind := gpucore.KindColorTexture
	if desc.Depth {
		kind = gpucore.KindDepthTexture
	}
	r := d.newResource(desc.Label, kind, desc.Width, desc.Height, desc.Format)
	d.mu.Lock()
	d.states[r] = desc.InitialState
	d.mu.Unlock()
	return r, nil
}

// CreateBuffer creates a simulated buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.Resource, error) {
	if desc == nil || desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer size must be positive", ErrInvalidDesc)
	}
	if desc.Size > 1<<32-1 {
		return nil, fmt.Errorf("%w: buffer size %d too large", ErrInvalidDesc, desc.Size)
	}
	r := d.newResource(desc.Label, gpucore.KindBuffer, uint32(desc.Size), 1, gputypes.TextureFormatUndefined)
	r.upload = desc.Upload
	initial := gpucore.StateCommon
	if !desc.Upload {
		initial = gpucore.StateUnorderedAccess
	}
	d.mu.Lock()
	d.states[r] = initial
	d.mu.Unlock()
	return r, nil
}

// CreateView creates a view of r.
func (d *Device) CreateView(r gpucore.Resource, desc *gpucore.ViewDesc) (gpucore.View, error) {
	res, ok := r.(*resource)
	if !ok || res.dev != d {
		return nil, ErrForeignObject
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: nil view descriptor", ErrInvalidDesc)
	}
	switch desc.Kind {
	case gpucore.ViewRenderTarget:
		if res.kind != gpucore.KindColorTexture {
			return nil, fmt.Errorf("%w: render target view of %v", ErrInvalidDesc, res.kind)
		}
	case gpucore.ViewDepthStencil:
		if res.kind != gpucore.KindDepthTexture {
			return nil, fmt.Errorf("%w: depth stencil view of %v", ErrInvalidDesc, res.kind)
		}
	}
	return &view{res: res, kind: desc.Kind, label: desc.Label}, nil
}

// CreateSwapChain creates an offscreen chain of desc.BufferCount images.
func (d *Device) CreateSwapChain(desc *gpucore.SwapChainDesc) (gpucore.SwapChain, error) {
	if desc == nil || desc.BufferCount < 1 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: swap chain", ErrInvalidDesc)
	}
	sc := &SwapChain{dev: d}
	for i := 0; i < desc.BufferCount; i++ {
		img := d.newResource(fmt.Sprintf("%s[%d]", desc.Label, i),
			gpucore.KindColorTexture, desc.Width, desc.Height, desc.Format)
		d.mu.Lock()
		d.states[img] = gpucore.StatePresent
		d.mu.Unlock()
		sc.images = append(sc.images, img)
	}
	return sc, nil
}

// Destroy releases the device.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states = make(map[*resource]gpucore.ResourceState)
	d.pending = nil
	d.unsignalled = nil
}

// Commands returns a copy of every command executed so far, in
// submission order.
func (d *Device) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Command, len(d.commands))
	copy(out, d.commands)
	return out
}

// Events returns the validation events reported so far.
func (d *Device) Events() []gpucore.ValidationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]gpucore.ValidationEvent, len(d.events))
	copy(out, d.events)
	return out
}

// State returns the device-tracked state of r, derived only from the
// barriers the device has executed.
func (d *Device) State(r gpucore.Resource) (gpucore.ResourceState, bool) {
	res, ok := r.(*resource)
	if !ok {
		return 0, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[res]
	return s, ok
}

// Contents returns a copy of the bytes held by r: the buffer's bytes, or a
// texture's rows tightly packed. Resources never written read as zeros.
func (d *Device) Contents(r gpucore.Resource) []byte {
	res, ok := r.(*resource)
	if !ok || res.dev != d {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), res.contentsLocked()...)
}

// Pending returns the number of fence signals not yet retired.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Retire completes up to n pending signals in submission order and
// returns how many were retired.
func (d *Device) Retire(n int) int {
	d.mu.Lock()
	if n > len(d.pending) {
		n = len(d.pending)
	}
	done := make([]pendingSignal, n)
	copy(done, d.pending[:n])
	d.pending = d.pending[n:]
	d.mu.Unlock()

	for _, p := range done {
		p.fence.advance(p.value)
	}
	return n
}

// RetireAll completes every pending signal.
func (d *Device) RetireAll() int {
	return d.Retire(d.Pending())
}

func (d *Device) newResource(label string, kind gpucore.ResourceKind, w, h uint32, format gputypes.TextureFormat) *resource {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.mu.Unlock()
	return &resource{dev: d, id: id, label: label, kind: kind, width: w, height: h, format: format}
}

// reportLocked records a validation event. The caller holds d.mu and
// hands the returned events to notify once the lock is released.
func (d *Device) reportLocked(res, format string, args ...any) gpucore.ValidationEvent {
	ev := gpucore.ValidationEvent{Message: fmt.Sprintf(format, args...), Resource: res}
	d.events = append(d.events, ev)
	return ev
}

func (d *Device) notify(events []gpucore.ValidationEvent) {
	if len(events) == 0 {
		return
	}
	d.mu.Lock()
	hook := d.hook
	d.mu.Unlock()
	if hook == nil {
		return
	}
	for _, ev := range events {
		hook(ev)
	}
}

// resource is a simulated texture or buffer.
type resource struct {
	dev    *Device
	id     uint64
	label  string
	kind   gpucore.ResourceKind
	width  uint32
	height uint32
	format gputypes.TextureFormat
	upload bool

	// data is allocated on first write. Guarded by dev.mu.
	data []byte
}

// texelSize returns the bytes per texel of color format f.
func texelSize(f gputypes.TextureFormat) uint32 {
	if f == gputypes.TextureFormatR8Unorm {
		return 1
	}
	return 4
}

// byteSize returns the size of the resource's contents.
func (r *resource) byteSize() uint64 {
	if r.kind == gpucore.KindBuffer {
		return uint64(r.width)
	}
	return uint64(r.width) * uint64(r.height) * uint64(texelSize(r.format))
}

func (r *resource) contentsLocked() []byte {
	if r.data == nil {
		r.data = make([]byte, r.byteSize())
	}
	return r.data
}

func (r *resource) Label() string                  { return r.label }
func (r *resource) Kind() gpucore.ResourceKind     { return r.kind }
func (r *resource) Size() (uint32, uint32)         { return r.width, r.height }
func (r *resource) Format() gputypes.TextureFormat { return r.format }

// Upload reports whether the buffer lives in host-visible memory.
func (r *resource) Upload() bool { return r.upload }

func (r *resource) Destroy() {
	r.dev.mu.Lock()
	delete(r.dev.states, r)
	r.dev.mu.Unlock()
}

// view is a simulated resource view.
type view struct {
	res   *resource
	kind  gpucore.ViewKind
	label string
}

func (v *view) Resource() gpucore.Resource { return v.res }
func (v *view) Kind() gpucore.ViewKind     { return v.kind }
func (v *view) Destroy()                   {}
