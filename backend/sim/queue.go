// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gframe/gpucore"
)

// Queue is the simulated submission queue.
type Queue struct {
	dev *Device
}

var _ gpucore.Queue = (*Queue)(nil)

// Execute appends the recorder's commands to the device log, applying
// every barrier to the device-tracked resource states.
func (q *Queue) Execute(r gpucore.Recorder) error {
	rec, ok := r.(*Recorder)
	if !ok || rec.dev != q.dev {
		return ErrForeignObject
	}
	d := q.dev

	d.mu.Lock()
	if rec.open {
		d.mu.Unlock()
		return ErrRecorderNotClosed
	}
	var events []gpucore.ValidationEvent
	for _, c := range rec.cmds {
		switch c.Op {
		case OpBarrier:
			if cur, ok := d.states[c.res]; ok && cur != c.Before {
				events = append(events, d.reportLocked(c.Resource,
					"barrier %v->%v on %q but resource is in %v", c.Before, c.After, c.Resource, cur))
			}
			d.states[c.res] = c.After
		case OpClearColor:
			if cur := d.states[c.res]; cur != gpucore.StateRenderTarget {
				events = append(events, d.reportLocked(c.Resource,
					"color clear of %q in state %v", c.Resource, cur))
			}
		case OpClearDepth:
			if cur := d.states[c.res]; cur != gpucore.StateDepthWrite {
				events = append(events, d.reportLocked(c.Resource,
					"depth clear of %q in state %v", c.Resource, cur))
			}
		case OpCopyBuffer, OpCopyBufferToTexture:
			if cur := d.states[c.src]; cur != gpucore.StateCopySrc {
				events = append(events, d.reportLocked(c.Source,
					"%v from %q in state %v", c.Op, c.Source, cur))
			}
			if cur := d.states[c.res]; cur != gpucore.StateCopyDst {
				events = append(events, d.reportLocked(c.Resource,
					"%v into %q in state %v", c.Op, c.Resource, cur))
			}
			copyLocked(c)
		}
		d.commands = append(d.commands, c)
	}
	rec.cmds = rec.cmds[:0]
	rec.executed++
	if d.mode != retireImmediate {
		rec.alloc.inFlight = true
		rec.alloc.fence = nil
		d.unsignalled = append(d.unsignalled, rec.alloc)
	}
	d.mu.Unlock()

	d.notify(events)
	return nil
}

// copyLocked moves the bytes of a copy command. The caller holds dev.mu.
func copyLocked(c Command) {
	src := c.src.contentsLocked()
	dst := c.res.contentsLocked()
	if c.Op == OpCopyBuffer {
		copy(dst[c.dstOffset:c.dstOffset+c.Value], src[c.srcOffset:])
		return
	}
	row := uint64(c.res.width * texelSize(c.res.format))
	for y := uint64(0); y < uint64(c.res.height); y++ {
		from := c.srcOffset + y*uint64(c.bytesPerRow)
		copy(dst[y*row:(y+1)*row], src[from:from+row])
	}
}

// WriteBuffer copies data into an upload buffer immediately.
func (q *Queue) WriteBuffer(b gpucore.Resource, offset uint64, data []byte) error {
	res, ok := b.(*resource)
	if !ok || res.dev != q.dev {
		return ErrForeignObject
	}
	if res.kind != gpucore.KindBuffer || !res.upload {
		return fmt.Errorf("%w: %q", ErrNotHostVisible, res.label)
	}
	if offset+uint64(len(data)) > res.byteSize() {
		return fmt.Errorf("%w: %d bytes at %d into %q of %d bytes",
			ErrOutOfRange, len(data), offset, res.label, res.byteSize())
	}
	d := q.dev
	d.mu.Lock()
	copy(res.contentsLocked()[offset:], data)
	d.commands = append(d.commands, Command{Op: OpWriteBuffer, Resource: res.label, Value: uint64(len(data)), res: res})
	d.mu.Unlock()
	return nil
}

// Signal schedules f to reach value once prior work completes.
func (q *Queue) Signal(f gpucore.Fence, value uint64) error {
	fence, ok := f.(*Fence)
	if !ok || fence.dev != q.dev {
		return ErrForeignObject
	}
	d := q.dev

	d.mu.Lock()
	for _, a := range d.unsignalled {
		a.fence = fence
		a.value = value
	}
	d.unsignalled = d.unsignalled[:0]
	d.commands = append(d.commands, Command{Op: OpSignal, Value: value})

	switch d.mode {
	case retireManual:
		d.pending = append(d.pending, pendingSignal{fence: fence, value: value})
		d.mu.Unlock()
	case retireLatency:
		latency := d.latency
		d.mu.Unlock()
		time.AfterFunc(latency, func() { fence.advance(value) })
	default:
		d.mu.Unlock()
		fence.advance(value)
	}
	return nil
}

// Fence is a simulated timeline fence.
type Fence struct {
	dev *Device

	mu        sync.Mutex
	completed uint64
	changed   chan struct{}
}

var _ gpucore.Fence = (*Fence)(nil)

func newFence(d *Device) *Fence {
	return &Fence{dev: d, changed: make(chan struct{})}
}

// Completed returns the last retired value.
func (f *Fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Wait blocks until the fence reaches value or timeout expires.
func (f *Fence) Wait(value uint64, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout != gpucore.Infinite {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		f.mu.Lock()
		if f.completed >= value {
			f.mu.Unlock()
			return true, nil
		}
		changed := f.changed
		f.mu.Unlock()

		select {
		case <-changed:
		case <-expired:
			return f.Completed() >= value, nil
		}
	}
}

// Destroy is a no-op for simulated fences.
func (f *Fence) Destroy() {}

// advance moves the fence forward to value; it never moves backwards.
func (f *Fence) advance(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value <= f.completed {
		return
	}
	f.completed = value
	close(f.changed)
	f.changed = make(chan struct{})
}
