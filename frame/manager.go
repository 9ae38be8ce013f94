// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gframe/gpucore"
)

// Frame manager errors.
var (
	// ErrNotInitialized is returned when the manager is used before
	// Initialize or after Destroy.
	ErrNotInitialized = errors.New("frame: manager not initialized")

	// ErrRecorderReset is returned when an allocator or the shared
	// recorder cannot be reset. It is fatal; the frame cannot proceed.
	ErrRecorderReset = errors.New("frame: recorder reset failed")

	// ErrDeviceStalled is returned when a fence wait exceeds the
	// configured timeout.
	ErrDeviceStalled = errors.New("frame: device stalled")

	// ErrNotRecording is returned by EndFrame when the current context
	// is not recording.
	ErrNotRecording = errors.New("frame: current context is not recording")

	// ErrInvalidFrameCount is returned for a frame count below one.
	ErrInvalidFrameCount = errors.New("frame: frame count must be at least 1")
)

// DefaultFrameCount is the number of frame contexts.
const DefaultFrameCount = 2

// DefaultWaitTimeout bounds every fence wait.
const DefaultWaitTimeout = 5 * time.Second

// State is the lifecycle state of a frame context.
type State uint8

// Frame context states.
const (
	Idle State = iota
	Recording
	Submitted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	case Submitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// frameContext is the per-frame allocator and its last fence value.
// A fenceValue of zero means the context has never submitted.
type frameContext struct {
	allocator  gpucore.Allocator
	fenceValue uint64
	state      State
}

// Manager sequences frames over one queue and one shared recorder.
type Manager struct {
	dev   gpucore.Device
	queue gpucore.Queue

	frameCount int
	timeout    time.Duration
	assertions bool

	fence    gpucore.Fence
	recorder gpucore.Recorder
	contexts []frameContext

	// counter is the last fence value handed out.
	counter uint64
	current int
	ready   bool
}

// NewManager creates a manager for dev's queue. Call Initialize before use.
func NewManager(dev gpucore.Device, opts ...Option) *Manager {
	m := &Manager{
		dev:        dev,
		frameCount: DefaultFrameCount,
		timeout:    DefaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timeout <= 0 {
		m.timeout = gpucore.Infinite
	}
	return m
}

// Initialize creates the fence, one allocator per frame context and the
// shared recorder. The recorder is created closed against the first
// allocator.
func (m *Manager) Initialize() error {
	if m.ready {
		return nil
	}
	if m.frameCount < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidFrameCount, m.frameCount)
	}
	m.queue = m.dev.Queue()

	fence, err := m.dev.CreateFence()
	if err != nil {
		return fmt.Errorf("frame: create fence: %w", err)
	}

	contexts := make([]frameContext, m.frameCount)
	for i := range contexts {
		a, err := m.dev.CreateAllocator(fmt.Sprintf("FrameAllocator%d", i))
		if err != nil {
			for j := 0; j < i; j++ {
				contexts[j].allocator.Destroy()
			}
			fence.Destroy()
			return fmt.Errorf("frame: create allocator %d: %w", i, err)
		}
		contexts[i].allocator = a
	}

	rec, err := m.dev.CreateRecorder(contexts[0].allocator, "FrameRecorder")
	if err != nil {
		for i := range contexts {
			contexts[i].allocator.Destroy()
		}
		fence.Destroy()
		return fmt.Errorf("frame: create recorder: %w", err)
	}

	m.fence = fence
	m.contexts = contexts
	m.recorder = rec
	m.counter = 0
	m.current = 0
	m.ready = true

	slogger().Info("frame: initialized",
		"frames", m.frameCount,
		"adapter", m.dev.Info().Name,
		"timeout", m.timeout)
	return nil
}

// BeginFrame opens context frameIndex mod N for recording. It blocks
// until the context's previous submission has completed on the GPU, then
// resets the context's allocator and the shared recorder against it.
//
// If the context is already current and recording (Reset opened it), the
// call does nothing.
func (m *Manager) BeginFrame(frameIndex int) error {
	if !m.ready {
		return ErrNotInitialized
	}
	idx := m.index(frameIndex)
	ctx := &m.contexts[idx]
	if idx == m.current && ctx.state == Recording {
		return nil
	}
	if err := m.open(idx); err != nil {
		return err
	}
	slogger().Debug("frame: begin", "frame", frameIndex, "context", idx)
	return nil
}

// EndFrame assigns the next fence value to the current context and asks
// the queue to signal it. It never blocks.
func (m *Manager) EndFrame() error {
	if !m.ready {
		return ErrNotInitialized
	}
	ctx := &m.contexts[m.current]
	if ctx.state != Recording {
		return m.fail(fmt.Errorf("%w: context %d is %v", ErrNotRecording, m.current, ctx.state))
	}
	value := m.counter + 1
	if err := m.queue.Signal(m.fence, value); err != nil {
		return fmt.Errorf("frame: signal fence value %d: %w", value, err)
	}
	m.counter = value
	ctx.fenceValue = value
	ctx.state = Submitted
	slogger().Debug("frame: end", "context", m.current, "fence", value)
	return nil
}

// WaitForAllFrames blocks until every submitted frame has completed.
// Afterwards no context is Submitted.
func (m *Manager) WaitForAllFrames() error {
	if !m.ready {
		return ErrNotInitialized
	}
	if err := m.wait(m.counter); err != nil {
		return err
	}
	for i := range m.contexts {
		if m.contexts[i].state == Submitted {
			m.contexts[i].state = Idle
		}
	}
	return nil
}

// WaitForCurrentFrame blocks until the current context's last submission
// has completed.
func (m *Manager) WaitForCurrentFrame() error {
	if !m.ready {
		return ErrNotInitialized
	}
	return m.waitContext(m.current)
}

// Reset performs a full blocking reset of context frameIndex mod N:
// wait for its fence, reset its allocator, reset the recorder against it.
// The context is left current and recording.
//
// The shared recorder must be closed.
func (m *Manager) Reset(frameIndex int) error {
	if !m.ready {
		return ErrNotInitialized
	}
	idx := m.index(frameIndex)
	if err := m.open(idx); err != nil {
		return err
	}
	slogger().Debug("frame: reset", "frame", frameIndex, "context", idx)
	return nil
}

// Execute closes the shared recorder and submits it to the queue.
func (m *Manager) Execute() error {
	if !m.ready {
		return ErrNotInitialized
	}
	if !m.recorder.Closed() {
		if err := m.recorder.Close(); err != nil {
			return fmt.Errorf("frame: close recorder: %w", err)
		}
	}
	if err := m.queue.Execute(m.recorder); err != nil {
		return fmt.Errorf("frame: execute: %w", err)
	}
	return nil
}

// Recorder returns the shared command recorder.
func (m *Manager) Recorder() gpucore.Recorder { return m.recorder }

// Device returns the device the manager records for.
func (m *Manager) Device() gpucore.Device { return m.dev }

// CurrentIndex returns the index of the current frame context.
func (m *Manager) CurrentIndex() int { return m.current }

// FrameCount returns N, the number of frame contexts.
func (m *Manager) FrameCount() int { return m.frameCount }

// State returns the state of context i mod N.
func (m *Manager) State(i int) State {
	if !m.ready {
		return Idle
	}
	return m.contexts[m.index(i)].state
}

// FenceValue returns the fence value of context i's last submission, or
// zero if it never submitted.
func (m *Manager) FenceValue(i int) uint64 {
	if !m.ready {
		return 0
	}
	return m.contexts[m.index(i)].fenceValue
}

// CompletedValue returns the last fence value the GPU completed.
func (m *Manager) CompletedValue() uint64 {
	if !m.ready {
		return 0
	}
	return m.fence.Completed()
}

// Destroy drains the GPU and releases the fence, allocators and recorder.
func (m *Manager) Destroy() error {
	if !m.ready {
		return nil
	}
	err := m.wait(m.counter)
	m.recorder.Destroy()
	for i := range m.contexts {
		m.contexts[i].allocator.Destroy()
	}
	m.fence.Destroy()
	m.recorder = nil
	m.contexts = nil
	m.fence = nil
	m.ready = false
	return err
}

// open waits for context idx, resets its allocator and the recorder, and
// makes it the current recording context.
func (m *Manager) open(idx int) error {
	if !m.recorder.Closed() {
		return m.fail(fmt.Errorf("%w: recorder still open for context %d", ErrRecorderReset, m.current))
	}
	if err := m.waitContext(idx); err != nil {
		return err
	}
	ctx := &m.contexts[idx]
	if err := ctx.allocator.Reset(); err != nil {
		return m.fail(fmt.Errorf("%w: allocator %d: %w", ErrRecorderReset, idx, err))
	}
	if err := m.recorder.Reset(ctx.allocator); err != nil {
		return m.fail(fmt.Errorf("%w: context %d: %w", ErrRecorderReset, idx, err))
	}
	ctx.state = Recording
	m.current = idx
	return nil
}

// waitContext blocks until context idx's last submission is complete.
func (m *Manager) waitContext(idx int) error {
	ctx := &m.contexts[idx]
	if ctx.fenceValue == 0 {
		return nil
	}
	if err := m.wait(ctx.fenceValue); err != nil {
		return err
	}
	if ctx.state == Submitted {
		ctx.state = Idle
	}
	return nil
}

func (m *Manager) wait(value uint64) error {
	if value == 0 || m.fence.Completed() >= value {
		return nil
	}
	start := time.Now()
	ok, err := m.fence.Wait(value, m.timeout)
	if err != nil {
		return fmt.Errorf("frame: wait for fence value %d: %w", value, err)
	}
	if !ok {
		slogger().Error("frame: fence wait timed out",
			"value", value,
			"completed", m.fence.Completed(),
			"timeout", m.timeout)
		return fmt.Errorf("%w: fence value %d not reached after %v", ErrDeviceStalled, value, m.timeout)
	}
	slogger().Debug("frame: fence wait", "value", value, "waited", time.Since(start))
	return nil
}

// fail reports a precondition violation. With assertions enabled it
// panics instead of returning.
func (m *Manager) fail(err error) error {
	slogger().Error("frame: precondition violated", "err", err)
	if m.assertions {
		panic(err)
	}
	return err
}

func (m *Manager) index(i int) int {
	n := len(m.contexts)
	if n == 0 {
		n = m.frameCount
	}
	return ((i % n) + n) % n
}
