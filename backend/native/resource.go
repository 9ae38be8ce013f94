// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a HAL texture.
type Texture struct {
	dev     *Device
	label   string
	kind    gpucore.ResourceKind
	width   uint32
	height  uint32
	format  gputypes.TextureFormat
	texture hal.Texture
	owned   bool // false for swap chain images destroyed by the chain
}

// Label returns the debug name.
func (t *Texture) Label() string { return t.label }

// Kind returns KindColorTexture or KindDepthTexture.
func (t *Texture) Kind() gpucore.ResourceKind { return t.kind }

// Size returns the texture extent.
func (t *Texture) Size() (width, height uint32) { return t.width, t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// HalTexture returns the underlying HAL texture.
func (t *Texture) HalTexture() hal.Texture { return t.texture }

// Destroy releases the texture.
func (t *Texture) Destroy() {
	if t.owned {
		t.release()
	}
}

func (t *Texture) release() {
	if t.texture != nil && t.dev.device != nil {
		t.dev.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

// Buffer is a HAL buffer.
type Buffer struct {
	dev    *Device
	label  string
	size   uint64
	upload bool
	buffer hal.Buffer
}

// Label returns the debug name.
func (b *Buffer) Label() string { return b.label }

// Kind returns KindBuffer.
func (b *Buffer) Kind() gpucore.ResourceKind { return gpucore.KindBuffer }

// Size returns the byte size as width, clamped to 32 bits, and height 1.
func (b *Buffer) Size() (width, height uint32) {
	return uint32(min(b.size, 1<<32-1)), 1
}

// Bytes returns the full byte size.
func (b *Buffer) Bytes() uint64 { return b.size }

// HalBuffer returns the underlying HAL buffer.
func (b *Buffer) HalBuffer() hal.Buffer { return b.buffer }

// Destroy releases the buffer.
func (b *Buffer) Destroy() {
	if b.buffer != nil && b.dev.device != nil {
		b.dev.device.DestroyBuffer(b.buffer)
		b.buffer = nil
	}
}

// View is a texture view, or a buffer binding for shader resource and
// unordered access views of buffers.
type View struct {
	dev   *Device
	label string
	kind  gpucore.ViewKind
	res   gpucore.Resource
	view  hal.TextureView // nil for buffer views
}

// Resource returns the viewed resource.
func (v *View) Resource() gpucore.Resource { return v.res }

// Kind returns the view kind.
func (v *View) Kind() gpucore.ViewKind { return v.kind }

// HalView returns the HAL texture view, or nil for buffer views.
func (v *View) HalView() hal.TextureView { return v.view }

// Destroy releases the HAL view.
func (v *View) Destroy() {
	if v.view != nil && v.dev.device != nil {
		v.dev.device.DestroyTextureView(v.view)
		v.view = nil
	}
}

// bufferUsageFor maps a logical state onto the HAL buffer usage it
// requires.
func bufferUsageFor(s gpucore.ResourceState) gputypes.BufferUsage {
	switch s {
	case gpucore.StateShaderRead:
		return gputypes.BufferUsageStorage
	case gpucore.StateCopySrc:
		return gputypes.BufferUsageCopySrc
	case gpucore.StateCopyDst:
		return gputypes.BufferUsageCopyDst
	case gpucore.StateUnorderedAccess:
		return gputypes.BufferUsageStorage
	default:
		return 0
	}
}

// usageFor maps a logical state onto the HAL texture usage it requires.
func usageFor(s gpucore.ResourceState) gputypes.TextureUsage {
	switch s {
	case gpucore.StateRenderTarget, gpucore.StateDepthWrite:
		return gputypes.TextureUsageRenderAttachment
	case gpucore.StateShaderRead, gpucore.StateDepthRead:
		return gputypes.TextureUsageTextureBinding
	case gpucore.StateCopySrc:
		return gputypes.TextureUsageCopySrc
	case gpucore.StateCopyDst:
		return gputypes.TextureUsageCopyDst
	case gpucore.StateUnorderedAccess:
		return gputypes.TextureUsageStorageBinding
	default:
		return 0
	}
}

// CreateTexture creates a 2D texture usable as an attachment.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.Resource, error) {
	if desc == nil || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture size must be positive", ErrInvalidDesc)
	}
	kind := gpucore.KindColorTexture
	format := desc.Format
	if desc.Depth {
		kind = gpucore.KindDepthTexture
		if format == gputypes.TextureFormatUndefined {
			format = gputypes.TextureFormatDepth24PlusStencil8
		}
	} else if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatRGBA8Unorm
	}
	return d.createTexture(desc.Label, kind, desc.Width, desc.Height, format, desc.ShaderVisible, true)
}

func (d *Device) createTexture(label string, kind gpucore.ResourceKind, w, h uint32,
	format gputypes.TextureFormat, shaderVisible, owned bool,
) (*Texture, error) {
	usage := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst
	if shaderVisible {
		usage |= gputypes.TextureUsageTextureBinding
	}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", label, err)
	}
	return &Texture{
		dev:     d,
		label:   label,
		kind:    kind,
		width:   w,
		height:  h,
		format:  format,
		texture: tex,
		owned:   owned,
	}, nil
}

// CreateBuffer creates an upload buffer, written by the queue and copied
// from, or a device-local storage buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.Resource, error) {
	if desc == nil || desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer size must be positive", ErrInvalidDesc)
	}
	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if desc.Upload {
		usage = gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}
	return &Buffer{dev: d, label: desc.Label, size: desc.Size, upload: desc.Upload, buffer: buf}, nil
}

// CreateView creates a view of r. Render target and depth stencil views
// require a texture of the matching kind.
func (d *Device) CreateView(r gpucore.Resource, desc *gpucore.ViewDesc) (gpucore.View, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil view descriptor", ErrInvalidDesc)
	}
	switch res := r.(type) {
	case *Buffer:
		if res.dev != d {
			return nil, ErrForeignObject
		}
		if desc.Kind != gpucore.ViewShaderResource && desc.Kind != gpucore.ViewUnorderedAccess {
			return nil, fmt.Errorf("%w: %v view of buffer %q", ErrInvalidDesc, desc.Kind, res.label)
		}
		return &View{dev: d, label: desc.Label, kind: desc.Kind, res: res}, nil
	case *Texture:
		if res.dev != d {
			return nil, ErrForeignObject
		}
		switch {
		case desc.Kind == gpucore.ViewRenderTarget && res.kind != gpucore.KindColorTexture,
			desc.Kind == gpucore.ViewDepthStencil && res.kind != gpucore.KindDepthTexture:
			return nil, fmt.Errorf("%w: %v view of %v", ErrInvalidDesc, desc.Kind, res.kind)
		}
		v, err := d.device.CreateTextureView(res.texture, &hal.TextureViewDescriptor{
			Label:         desc.Label,
			Format:        res.format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("native: create view %q: %w", desc.Label, err)
		}
		return &View{dev: d, label: desc.Label, kind: desc.Kind, res: res, view: v}, nil
	default:
		return nil, ErrForeignObject
	}
}
