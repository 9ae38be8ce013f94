// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import "github.com/gogpu/gframe/gpucore"

// SwapChain is a simulated presentation chain.
type SwapChain struct {
	dev     *Device
	images  []*resource
	current int
	frames  uint64
}

var _ gpucore.SwapChain = (*SwapChain)(nil)

// CurrentIndex returns the image the next frame renders into.
func (sc *SwapChain) CurrentIndex() int {
	sc.dev.mu.Lock()
	defer sc.dev.mu.Unlock()
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

// Present logs a present of the current image and rotates to the next.
// Presenting an image that is not in StatePresent is reported to the
// validation hook.
func (sc *SwapChain) Present(syncInterval int) error {
	d := sc.dev
	d.mu.Lock()
	img := sc.images[sc.current]
	var events []gpucore.ValidationEvent
	if s := d.states[img]; s != gpucore.StatePresent {
		events = append(events, d.reportLocked(img.label, "present of %q in state %v", img.label, s))
	}
	if syncInterval < 0 {
		syncInterval = 0
	}
	d.commands = append(d.commands, Command{Op: OpPresent, Resource: img.label, Value: uint64(syncInterval), res: img})
	sc.current = (sc.current + 1) % len(sc.images)
	sc.frames++
	d.mu.Unlock()

	d.notify(events)
	return nil
}

// Presented returns the number of presents so far.
func (sc *SwapChain) Presented() uint64 {
	sc.dev.mu.Lock()
	defer sc.dev.mu.Unlock()
	return sc.frames
}

// Destroy is a no-op for simulated swap chains.
func (sc *SwapChain) Destroy() {}
