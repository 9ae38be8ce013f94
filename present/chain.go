// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package present manages the presentation chain: the N back buffers a
// frame renders into and the present call that displays them.
package present

import (
	"errors"
	"fmt"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/views"
)

// ErrNoBuffers is returned for a swap chain without images.
var ErrNoBuffers = errors.New("present: swap chain has no images")

// Chain wraps a swap chain.
type Chain struct {
	dev gpucore.Device
	sc  gpucore.SwapChain
}

// NewChain creates a swap chain on dev from desc.
func NewChain(dev gpucore.Device, desc *gpucore.SwapChainDesc) (*Chain, error) {
	sc, err := dev.CreateSwapChain(desc)
	if err != nil {
		return nil, fmt.Errorf("present: create swap chain: %w", err)
	}
	return Wrap(dev, sc)
}

// Wrap adopts an existing swap chain.
func Wrap(dev gpucore.Device, sc gpucore.SwapChain) (*Chain, error) {
	if len(sc.Images()) == 0 {
		return nil, ErrNoBuffers
	}
	return &Chain{dev: dev, sc: sc}, nil
}

// CurrentBackBufferIndex returns the image the current frame renders into.
func (c *Chain) CurrentBackBufferIndex() int { return c.sc.CurrentIndex() }

// BackBuffers returns the backing images.
func (c *Chain) BackBuffers() []gpucore.Resource { return c.sc.Images() }

// BufferCount returns the number of back buffers.
func (c *Chain) BufferCount() int { return len(c.sc.Images()) }

// BackBufferName returns the registry name of back buffer i.
func BackBufferName(i int) string { return fmt.Sprintf("BackBuffer%d", i) }

// CurrentBackBufferName returns the registry name of the current image.
func (c *Chain) CurrentBackBufferName() string {
	return BackBufferName(c.CurrentBackBufferIndex())
}

// RegisterBackBuffers adds every back buffer to rtv as BackBuffer<i>,
// tracked in StatePresent.
func (c *Chain) RegisterBackBuffers(rtv *views.Registry) error {
	for i, img := range c.sc.Images() {
		_, err := rtv.Create(BackBufferName(i), &views.Desc{
			Resource:     img,
			InitialState: gpucore.StatePresent,
		})
		if err != nil {
			return fmt.Errorf("present: register back buffer %d: %w", i, err)
		}
	}
	return nil
}

// Present displays the current back buffer. It blocks only as the
// platform's vertical sync policy requires.
func (c *Chain) Present(syncInterval int) error {
	if err := c.sc.Present(syncInterval); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Destroy releases the swap chain.
func (c *Chain) Destroy() { c.sc.Destroy() }
