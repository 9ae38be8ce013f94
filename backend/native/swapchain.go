// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
)

// SwapChain is an offscreen chain of render target textures. Present
// rotates the current image; windowed presentation is left to the host
// that owns the surface.
type SwapChain struct {
	dev    *Device
	label  string
	images []*Texture

	mu      sync.Mutex
	current int
	frames  uint64
}

var _ gpucore.SwapChain = (*SwapChain)(nil)

// CreateSwapChain creates desc.BufferCount images. An undefined format
// uses the device's surface format.
func (d *Device) CreateSwapChain(desc *gpucore.SwapChainDesc) (gpucore.SwapChain, error) {
	if desc == nil || desc.BufferCount < 1 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: swap chain", ErrInvalidDesc)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = d.surfaceFormat
	}
	sc := &SwapChain{dev: d, label: desc.Label}
	for i := 0; i < desc.BufferCount; i++ {
		img, err := d.createTexture(fmt.Sprintf("%s[%d]", desc.Label, i),
			gpucore.KindColorTexture, desc.Width, desc.Height, format, false, false)
		if err != nil {
			sc.Destroy()
			return nil, err
		}
		sc.images = append(sc.images, img)
	}
	slogger().Debug("native: swap chain created",
		"label", desc.Label, "buffers", desc.BufferCount,
		"width", desc.Width, "height", desc.Height, "format", format)
	return sc, nil
}

// CurrentIndex returns the image the next frame renders into.
func (sc *SwapChain) CurrentIndex() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

// Images returns the chain's images.
func (sc *SwapChain) Images() []gpucore.Resource {
	out := make([]gpucore.Resource, len(sc.images))
	for i, img := range sc.images {
		out[i] = img
	}
	return out
}

// Present advances to the next image.
func (sc *SwapChain) Present(syncInterval int) error {
	if len(sc.images) == 0 {
		return fmt.Errorf("%w: swap chain %q has no images", ErrInvalidDesc, sc.label)
	}
	sc.mu.Lock()
	sc.current = (sc.current + 1) % len(sc.images)
	sc.frames++
	sc.mu.Unlock()
	return nil
}

// Presented returns the number of presents so far.
func (sc *SwapChain) Presented() uint64 {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.frames
}

// Destroy releases every image.
func (sc *SwapChain) Destroy() {
	for _, img := range sc.images {
		img.release()
	}
	sc.images = nil
}
