// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package passes

import (
	"context"
	"fmt"

	"github.com/gogpu/gframe/gpucore"
)

// DrawFunc records a pass's draws into the bound targets.
type DrawFunc func(rc *RenderContext, rec gpucore.Recorder) error

// Draws are the caller-supplied draws for each pass. Nil entries are
// skipped.
type Draws struct {
	Shadow    DrawFunc
	Scene     DrawFunc
	Composite DrawFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPipelinedFrames keeps frames in flight instead of draining the
// queue after every present.
func WithPipelinedFrames() Option {
	return func(o *Orchestrator) { o.rc.Config.Pipelined = true }
}

// Orchestrator runs frames through the fixed pass pipeline.
type Orchestrator struct {
	rc      *RenderContext
	started bool
}

// NewOrchestrator creates an orchestrator over rc. rc must hold an
// initialized frame manager, the chain and the three registries.
func NewOrchestrator(rc *RenderContext, opts ...Option) (*Orchestrator, error) {
	if rc == nil || rc.Frame == nil || rc.Chain == nil || rc.RTV == nil || rc.DSV == nil {
		return nil, ErrIncomplete
	}
	o := &Orchestrator{rc: rc}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Context returns the render context.
func (o *Orchestrator) Context() *RenderContext { return o.rc }

// RenderFrame records and presents one frame.
func (o *Orchestrator) RenderFrame(ctx context.Context, d Draws) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rc := o.rc
	if !o.started {
		if rc.Pacer != nil {
			rc.Pacer.Start()
		}
		o.started = true
	}
	if err := rc.Frame.BeginFrame(rc.frameIndex); err != nil {
		return fmt.Errorf("passes: frame %d: %w", rc.frameIndex, err)
	}

	stages := []struct {
		name  string
		setup func(*RenderContext) error
		draw  DrawFunc
	}{
		{"shadow", SetupShadowPass, d.Shadow},
		{"offscreen", SetupOffscreenPass, d.Scene},
		{"backbuffer", SetupBackbufferPass, d.Composite},
	}
	for _, s := range stages {
		if err := s.setup(rc); err != nil {
			return err
		}
		if s.draw == nil {
			continue
		}
		if err := s.draw(rc, rc.Recorder()); err != nil {
			return fmt.Errorf("passes: %s draws: %w", s.name, err)
		}
	}
	return PostPass(rc)
}

// Run renders frames until ctx is done or n frames have been presented.
// A non-positive n renders until ctx is done.
func (o *Orchestrator) Run(ctx context.Context, n int, d Draws) error {
	for i := 0; n <= 0 || i < n; i++ {
		if err := o.RenderFrame(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Stop drains every frame in flight.
func (o *Orchestrator) Stop() error {
	if err := o.rc.Frame.WaitForAllFrames(); err != nil {
		return fmt.Errorf("passes: stop: %w", err)
	}
	return nil
}
