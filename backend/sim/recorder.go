// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"
	"strings"

	"github.com/gogpu/gframe/gpucore"
)

// Op identifies a recorded command.
type Op uint8

// Recorded operations.
const (
	OpBarrier Op = iota
	OpClearColor
	OpClearDepth
	OpSetTargets
	OpSignal
	OpPresent
	OpWriteBuffer
	OpCopyBuffer
	OpCopyBufferToTexture
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpBarrier:
		return "Barrier"
	case OpClearColor:
		return "ClearColor"
	case OpClearDepth:
		return "ClearDepth"
	case OpSetTargets:
		return "SetTargets"
	case OpSignal:
		return "Signal"
	case OpPresent:
		return "Present"
	case OpWriteBuffer:
		return "WriteBuffer"
	case OpCopyBuffer:
		return "CopyBuffer"
	case OpCopyBufferToTexture:
		return "CopyBufferToTexture"
	default:
		return "Unknown"
	}
}

// Command is one entry of the device's command log.
type Command struct {
	Op Op

	// Resource is the label of the resource the command applies to.
	// For OpSetTargets it lists every bound target, comma separated.
	Resource string

	Before gpucore.ResourceState
	After  gpucore.ResourceState

	// Source is the label of the copy source for copy commands.
	Source string

	// Value is the fence value for OpSignal, the sync interval for
	// OpPresent and the byte count for writes and buffer copies.
	Value uint64

	res *resource
	src *resource

	// Copy parameters.
	dstOffset   uint64
	srcOffset   uint64
	bytesPerRow uint32
}

// Allocator is a simulated command allocator.
type Allocator struct {
	dev   *Device
	label string

	// Guarded by dev.mu.
	inFlight bool
	fence    *Fence
	value    uint64
	resets   int
}

var _ gpucore.Allocator = (*Allocator)(nil)

// Reset reclaims the allocator. It fails with ErrAllocatorInFlight when
// the fence covering the allocator's last submission has not been
// reached yet.
func (a *Allocator) Reset() error {
	d := a.dev
	d.mu.Lock()
	inFlight, fence, value := a.inFlight, a.fence, a.value
	d.mu.Unlock()

	if inFlight && (fence == nil || fence.Completed() < value) {
		d.mu.Lock()
		ev := d.reportLocked(a.label, "allocator %q reset before fence value %d completed", a.label, value)
		d.mu.Unlock()
		d.notify([]gpucore.ValidationEvent{ev})
		return ErrAllocatorInFlight
	}

	d.mu.Lock()
	a.inFlight = false
	a.fence = nil
	a.resets++
	d.mu.Unlock()
	return nil
}

// Resets returns how many times the allocator was reset.
func (a *Allocator) Resets() int {
	a.dev.mu.Lock()
	defer a.dev.mu.Unlock()
	return a.resets
}

// Destroy is a no-op for simulated allocators.
func (a *Allocator) Destroy() {}

// Recorder is a simulated command recorder.
// Like a real command list it is used from a single goroutine.
type Recorder struct {
	dev   *Device
	label string
	alloc *Allocator

	// open and cmds are read by Queue.Execute under dev.mu.
	open     bool
	cmds     []Command
	executed int
}

var _ gpucore.Recorder = (*Recorder)(nil)

// Reset reopens the recorder against a.
func (r *Recorder) Reset(a gpucore.Allocator) error {
	alloc, ok := a.(*Allocator)
	if !ok || alloc.dev != r.dev {
		return ErrForeignObject
	}
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	if r.open {
		return ErrRecorderOpen
	}
	r.alloc = alloc
	r.cmds = r.cmds[:0]
	r.open = true
	return nil
}

// Close ends recording.
func (r *Recorder) Close() error {
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	if !r.open {
		return ErrRecorderNotOpen
	}
	r.open = false
	return nil
}

// Closed reports whether the recorder is not recording.
func (r *Recorder) Closed() bool {
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	return !r.open
}

// Barrier records state transitions.
func (r *Recorder) Barrier(b ...gpucore.Barrier) {
	for _, br := range b {
		res, ok := br.Resource.(*resource)
		if !ok {
			r.invalid("", "barrier on foreign resource")
			continue
		}
		r.record(Command{Op: OpBarrier, Resource: res.label, Before: br.Before, After: br.After, res: res})
	}
}

// ClearColor records a color clear.
func (r *Recorder) ClearColor(v gpucore.View, _ [4]float32) {
	res := r.viewResource(v, gpucore.ViewRenderTarget)
	if res == nil {
		return
	}
	r.record(Command{Op: OpClearColor, Resource: res.label, res: res})
}

// ClearDepth records a depth/stencil clear.
func (r *Recorder) ClearDepth(v gpucore.View, _ float32, _ uint8) {
	res := r.viewResource(v, gpucore.ViewDepthStencil)
	if res == nil {
		return
	}
	r.record(Command{Op: OpClearDepth, Resource: res.label, res: res})
}

// SetRenderTargets records a render target binding.
func (r *Recorder) SetRenderTargets(color []gpucore.View, depth gpucore.View) {
	labels := make([]string, 0, len(color)+1)
	for _, v := range color {
		if res := r.viewResource(v, gpucore.ViewRenderTarget); res != nil {
			labels = append(labels, res.label)
		}
	}
	if depth != nil {
		if res := r.viewResource(depth, gpucore.ViewDepthStencil); res != nil {
			labels = append(labels, res.label)
		}
	}
	r.record(Command{Op: OpSetTargets, Resource: strings.Join(labels, ",")})
}

// CopyBuffer records a buffer to buffer copy.
func (r *Recorder) CopyBuffer(dst gpucore.Resource, dstOffset uint64, src gpucore.Resource, srcOffset, size uint64) {
	d, s := r.copyResources(dst, src)
	if d == nil {
		return
	}
	if d.kind != gpucore.KindBuffer {
		r.invalid(d.label, "buffer copy into "+d.kind.String())
		return
	}
	if srcOffset+size > s.byteSize() || dstOffset+size > d.byteSize() {
		r.invalid(d.label, fmt.Sprintf("copy of %d bytes from %q+%d to %q+%d out of range",
			size, s.label, srcOffset, d.label, dstOffset))
		return
	}
	r.record(Command{Op: OpCopyBuffer, Resource: d.label, Source: s.label, Value: size,
		res: d, src: s, dstOffset: dstOffset, srcOffset: srcOffset})
}

// CopyBufferToTexture records an upload of a whole color texture.
func (r *Recorder) CopyBufferToTexture(dst gpucore.Resource, src gpucore.Resource, srcOffset uint64, bytesPerRow uint32) {
	d, s := r.copyResources(dst, src)
	if d == nil {
		return
	}
	if d.kind != gpucore.KindColorTexture {
		r.invalid(d.label, "texture copy into "+d.kind.String())
		return
	}
	row := d.width * texelSize(d.format)
	if bytesPerRow < row {
		r.invalid(d.label, fmt.Sprintf("bytes per row %d below row size %d of %q", bytesPerRow, row, d.label))
		return
	}
	if end := srcOffset + uint64(bytesPerRow)*uint64(d.height-1) + uint64(row); end > s.byteSize() {
		r.invalid(d.label, fmt.Sprintf("texture copy reads %d bytes past %q", end-s.byteSize(), s.label))
		return
	}
	r.record(Command{Op: OpCopyBufferToTexture, Resource: d.label, Source: s.label, Value: d.byteSize(),
		res: d, src: s, srcOffset: srcOffset, bytesPerRow: bytesPerRow})
}

// copyResources resolves a copy's resources; src must be a buffer.
func (r *Recorder) copyResources(dst, src gpucore.Resource) (*resource, *resource) {
	d, ok := dst.(*resource)
	s, ok2 := src.(*resource)
	if !ok || !ok2 || d.dev != r.dev || s.dev != r.dev {
		r.invalid("", "copy with foreign resource")
		return nil, nil
	}
	if s.kind != gpucore.KindBuffer {
		r.invalid(s.label, "copy source is "+s.kind.String())
		return nil, nil
	}
	return d, s
}

// Executed returns how many times the recorder was submitted.
func (r *Recorder) Executed() int {
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	return r.executed
}

// Destroy is a no-op for simulated recorders.
func (r *Recorder) Destroy() {}

func (r *Recorder) viewResource(v gpucore.View, kind gpucore.ViewKind) *resource {
	vw, ok := v.(*view)
	if !ok {
		r.invalid("", "foreign view")
		return nil
	}
	if vw.kind != kind {
		r.invalid(vw.res.label, "view of kind "+vw.kind.String()+" used as "+kind.String())
		return nil
	}
	return vw.res
}

func (r *Recorder) record(c Command) {
	r.dev.mu.Lock()
	if !r.open {
		ev := r.dev.reportLocked(c.Resource, "%v recorded on closed recorder %q", c.Op, r.label)
		r.dev.mu.Unlock()
		r.dev.notify([]gpucore.ValidationEvent{ev})
		return
	}
	r.cmds = append(r.cmds, c)
	r.dev.mu.Unlock()
}

func (r *Recorder) invalid(res, msg string) {
	r.dev.mu.Lock()
	ev := r.dev.reportLocked(res, "%s", msg)
	r.dev.mu.Unlock()
	r.dev.notify([]gpucore.ValidationEvent{ev})
}
