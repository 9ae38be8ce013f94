// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Queue wraps the HAL queue.
//
// Every Execute submits against an internal fence with a fresh serial, so
// allocators can tell when their command buffers are free. Signal is an
// empty submission that signals the caller's fence.
type Queue struct {
	dev   *Device
	queue hal.Queue

	mu       sync.Mutex
	internal hal.Fence
	serial   uint64
}

var _ gpucore.Queue = (*Queue)(nil)

// Execute submits the recorder's closed command buffer.
func (q *Queue) Execute(r gpucore.Recorder) error {
	rec, ok := r.(*Recorder)
	if !ok || rec.dev != q.dev {
		return ErrForeignObject
	}
	if rec.open {
		q.dev.report(rec.label, "execute of open recorder %q", rec.label)
		return fmt.Errorf("native: execute %q: %w", rec.label, ErrRecorderOpen)
	}
	if rec.finished == nil {
		return fmt.Errorf("native: execute %q: %w", rec.label, ErrNothingToExecute)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.internal == nil {
		f, err := q.dev.device.CreateFence()
		if err != nil {
			return fmt.Errorf("native: create submission fence: %w", err)
		}
		q.internal = f
	}
	q.serial++
	if err := q.queue.Submit([]hal.CommandBuffer{rec.finished}, q.internal, q.serial); err != nil {
		q.serial--
		return fmt.Errorf("native: submit %q: %w", rec.label, err)
	}
	rec.alloc.retain(rec.finished, q.serial)
	rec.finished = nil
	return nil
}

// Signal submits an empty batch that sets f to value when prior work is
// done. It never blocks.
func (q *Queue) Signal(f gpucore.Fence, value uint64) error {
	fence, ok := f.(*Fence)
	if !ok || fence.dev != q.dev {
		return ErrForeignObject
	}
	if err := q.queue.Submit(nil, fence.fence, value); err != nil {
		return fmt.Errorf("native: signal fence value %d: %w", value, err)
	}
	fence.submitted(value)
	return nil
}

// WriteBuffer copies data into upload buffer b through the HAL queue.
func (q *Queue) WriteBuffer(b gpucore.Resource, offset uint64, data []byte) error {
	buf, ok := b.(*Buffer)
	if !ok || buf.dev != q.dev {
		return ErrForeignObject
	}
	if !buf.upload {
		return fmt.Errorf("%w: %q is device-local", ErrNotHostVisible, buf.label)
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("%w: write of %d bytes at %d overflows %q (%d bytes)",
			ErrInvalidDesc, len(data), offset, buf.label, buf.size)
	}
	if err := q.queue.WriteBuffer(buf.buffer, offset, data); err != nil {
		return fmt.Errorf("native: write %q: %w", buf.label, err)
	}
	return nil
}

// done reports whether the submission with the given serial completed.
func (q *Queue) done(serial uint64) (bool, error) {
	q.mu.Lock()
	internal := q.internal
	q.mu.Unlock()
	if serial == 0 {
		return true, nil
	}
	if internal == nil {
		return false, nil
	}
	return q.dev.device.Wait(internal, serial, 0)
}

func (q *Queue) destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.internal != nil && q.dev.device != nil {
		q.dev.device.DestroyFence(q.internal)
		q.internal = nil
	}
}

// Fence wraps a HAL fence and caches the highest value observed complete.
type Fence struct {
	dev   *Device
	fence hal.Fence

	mu        sync.Mutex
	completed uint64
	pending   []uint64 // submitted, not yet observed complete, ascending
}

var _ gpucore.Fence = (*Fence)(nil)

func (f *Fence) submitted(value uint64) {
	f.mu.Lock()
	f.pending = append(f.pending, value)
	f.mu.Unlock()
}

// Completed polls the HAL fence for every pending value and returns the
// highest one reached.
func (f *Fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.pending) > 0 {
		v := f.pending[0]
		ok, err := f.dev.device.Wait(f.fence, v, 0)
		if err != nil || !ok {
			break
		}
		f.completed = max(f.completed, v)
		f.pending = f.pending[1:]
	}
	return f.completed
}

// Wait blocks until the fence reaches value or timeout expires.
func (f *Fence) Wait(value uint64, timeout time.Duration) (bool, error) {
	if f.Completed() >= value {
		return true, nil
	}
	ok, err := f.dev.device.Wait(f.fence, value, timeout)
	if err != nil {
		return false, fmt.Errorf("native: wait for fence value %d: %w", value, err)
	}
	if !ok {
		return false, nil
	}

	f.mu.Lock()
	f.completed = max(f.completed, value)
	for len(f.pending) > 0 && f.pending[0] <= value {
		f.pending = f.pending[1:]
	}
	f.mu.Unlock()
	return true, nil
}

// Destroy releases the HAL fence.
func (f *Fence) Destroy() {
	if f.fence != nil && f.dev.device != nil {
		f.dev.device.DestroyFence(f.fence)
		f.fence = nil
	}
}
