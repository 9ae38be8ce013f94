// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Allocator owns the command buffers submitted from recorders reset
// against it.
type Allocator struct {
	dev   *Device
	label string

	mu      sync.Mutex
	buffers []hal.CommandBuffer
	serial  uint64 // last submission holding one of buffers
}

var _ gpucore.Allocator = (*Allocator)(nil)

func (a *Allocator) retain(cb hal.CommandBuffer, serial uint64) {
	a.mu.Lock()
	a.buffers = append(a.buffers, cb)
	a.serial = serial
	a.mu.Unlock()
}

// Reset frees every command buffer submitted from the allocator. It fails
// with ErrAllocatorInFlight if the GPU may still be executing one.
func (a *Allocator) Reset() error {
	a.mu.Lock()
	serial := a.serial
	a.mu.Unlock()

	done, err := a.dev.queue.done(serial)
	if err != nil {
		return fmt.Errorf("native: allocator %q: %w", a.label, err)
	}
	if !done {
		a.dev.report(a.label, "allocator %q reset before submission %d completed", a.label, serial)
		return fmt.Errorf("native: allocator %q: %w", a.label, ErrAllocatorInFlight)
	}
	a.release()
	return nil
}

func (a *Allocator) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, cb := range a.buffers {
		a.dev.device.FreeCommandBuffer(cb)
	}
	a.buffers = a.buffers[:0]
}

// Destroy frees the allocator's command buffers. The GPU must be idle.
func (a *Allocator) Destroy() {
	if a.dev.device != nil {
		a.release()
	}
}

// Recorder wraps a HAL command encoder.
type Recorder struct {
	dev     *Device
	label   string
	encoder hal.CommandEncoder
	alloc   *Allocator

	open     bool
	finished hal.CommandBuffer

	color []*View
	depth *View
}

var _ gpucore.Recorder = (*Recorder)(nil)

// Reset begins encoding against a.
func (r *Recorder) Reset(a gpucore.Allocator) error {
	alloc, ok := a.(*Allocator)
	if !ok || alloc.dev != r.dev {
		return ErrForeignObject
	}
	if r.open {
		return ErrRecorderOpen
	}
	if r.finished != nil {
		// Closed but never executed.
		r.dev.device.FreeCommandBuffer(r.finished)
		r.finished = nil
	}
	if err := r.encoder.BeginEncoding(r.label); err != nil {
		return fmt.Errorf("native: begin encoding %q: %w", r.label, err)
	}
	r.alloc = alloc
	r.open = true
	r.color = r.color[:0]
	r.depth = nil
	return nil
}

// Close ends encoding. The command buffer is submitted by Queue.Execute.
func (r *Recorder) Close() error {
	if !r.open {
		return ErrRecorderNotOpen
	}
	cb, err := r.encoder.EndEncoding()
	r.open = false
	if err != nil {
		return fmt.Errorf("native: end encoding %q: %w", r.label, err)
	}
	r.finished = cb
	return nil
}

// Closed reports whether the recorder is not recording.
func (r *Recorder) Closed() bool { return !r.open }

// Barrier transitions textures and buffers between usages.
func (r *Recorder) Barrier(b ...gpucore.Barrier) {
	if !r.recording("barrier") {
		return
	}
	var (
		textures []hal.TextureBarrier
		buffers  []hal.BufferBarrier
	)
	for _, br := range b {
		switch res := br.Resource.(type) {
		case *Texture:
			textures = append(textures, hal.TextureBarrier{
				Texture: res.texture,
				Usage: hal.TextureUsageTransition{
					OldUsage: usageFor(br.Before),
					NewUsage: usageFor(br.After),
				},
			})
		case *Buffer:
			buffers = append(buffers, hal.BufferBarrier{
				Buffer: res.buffer,
				Usage: hal.BufferUsageTransition{
					OldUsage: bufferUsageFor(br.Before),
					NewUsage: bufferUsageFor(br.After),
				},
			})
		}
	}
	if len(buffers) > 0 {
		r.encoder.TransitionBuffers(buffers)
	}
	if len(textures) > 0 {
		r.encoder.TransitionTextures(textures)
	}
}

// CopyBuffer records a buffer to buffer copy.
func (r *Recorder) CopyBuffer(dst gpucore.Resource, dstOffset uint64, src gpucore.Resource, srcOffset, size uint64) {
	d, ok := dst.(*Buffer)
	s, ok2 := src.(*Buffer)
	if !ok || !ok2 || d.dev != r.dev || s.dev != r.dev {
		r.dev.report("", "buffer copy with foreign or non-buffer resource")
		return
	}
	if srcOffset+size > s.size || dstOffset+size > d.size {
		r.dev.report(d.label, "copy of %d bytes from %q+%d to %q+%d out of range",
			size, s.label, srcOffset, d.label, dstOffset)
		return
	}
	if !r.recording("copy buffer") {
		return
	}
	r.encoder.CopyBufferToBuffer(s.buffer, d.buffer, []hal.BufferCopy{{
		SrcOffset: srcOffset,
		DstOffset: dstOffset,
		Size:      size,
	}})
}

// CopyBufferToTexture records an upload of a whole color texture.
func (r *Recorder) CopyBufferToTexture(dst gpucore.Resource, src gpucore.Resource, srcOffset uint64, bytesPerRow uint32) {
	t, ok := dst.(*Texture)
	s, ok2 := src.(*Buffer)
	if !ok || !ok2 || t.dev != r.dev || s.dev != r.dev || t.kind != gpucore.KindColorTexture {
		r.dev.report("", "texture copy needs a color texture and a buffer of this device")
		return
	}
	row := uint64(t.width) * texelBytes(t.format)
	if uint64(bytesPerRow) < row {
		r.dev.report(t.label, "bytes per row %d below row size %d", bytesPerRow, row)
		return
	}
	if srcOffset+uint64(bytesPerRow)*uint64(t.height-1)+row > s.size {
		r.dev.report(t.label, "texture copy from %q+%d out of range", s.label, srcOffset)
		return
	}
	if !r.recording("copy buffer to texture") {
		return
	}
	r.encoder.CopyBufferToTexture(s.buffer, t.texture, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: srcOffset, BytesPerRow: bytesPerRow},
		TextureBase:  hal.ImageCopyTexture{Texture: t.texture, Aspect: gputypes.TextureAspectAll},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
}

// ClearColor clears a render target with an empty render pass.
func (r *Recorder) ClearColor(v gpucore.View, c [4]float32) {
	view, ok := r.textureView(v, gpucore.ViewRenderTarget)
	if !ok || !r.recording("clear color") {
		return
	}
	rp := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clear " + view.label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])},
		}},
	})
	rp.End()
}

// ClearDepth clears a depth/stencil target with an empty render pass.
func (r *Recorder) ClearDepth(v gpucore.View, depth float32, stencil uint8) {
	view, ok := r.textureView(v, gpucore.ViewDepthStencil)
	if !ok || !r.recording("clear depth") {
		return
	}
	rp := r.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clear " + view.label,
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              view.view,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   depth,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: uint32(stencil),
		},
	})
	rp.End()
}

// SetRenderTargets binds the targets used by BeginRenderPass.
func (r *Recorder) SetRenderTargets(color []gpucore.View, depth gpucore.View) {
	r.color = r.color[:0]
	r.depth = nil
	for _, c := range color {
		if v, ok := r.textureView(c, gpucore.ViewRenderTarget); ok {
			r.color = append(r.color, v)
		}
	}
	if depth != nil {
		if v, ok := r.textureView(depth, gpucore.ViewDepthStencil); ok {
			r.depth = v
		}
	}
}

// BeginRenderPass opens a render pass over the bound targets, keeping
// their contents. Draw code records into the returned encoder and ends it.
func (r *Recorder) BeginRenderPass(label string) (hal.RenderPassEncoder, error) {
	if !r.open {
		return nil, ErrRecorderNotOpen
	}
	desc := &hal.RenderPassDescriptor{Label: label}
	for _, v := range r.color {
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:    v.view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		})
	}
	if r.depth != nil {
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:           r.depth.view,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
	}
	return r.encoder.BeginRenderPass(desc), nil
}

// Destroy discards any open encoding and frees an unexecuted buffer.
func (r *Recorder) Destroy() {
	if r.open {
		r.encoder.DiscardEncoding()
		r.open = false
	}
	if r.finished != nil {
		r.dev.device.FreeCommandBuffer(r.finished)
		r.finished = nil
	}
}

func (r *Recorder) recording(op string) bool {
	if !r.open {
		r.dev.report("", "%s recorded on closed recorder %q", op, r.label)
	}
	return r.open
}

func (r *Recorder) textureView(v gpucore.View, kind gpucore.ViewKind) (*View, bool) {
	view, ok := v.(*View)
	if !ok || view.view == nil {
		r.dev.report("", "view is not a native texture view")
		return nil, false
	}
	if view.kind != kind {
		r.dev.report(view.label, "view of kind %v used as %v", view.kind, kind)
		return nil, false
	}
	return view, true
}

// texelBytes returns the bytes per texel of color format f.
func texelBytes(f gputypes.TextureFormat) uint64 {
	if f == gputypes.TextureFormatR8Unorm {
		return 1
	}
	return 4
}
