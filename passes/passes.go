// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package passes

import (
	"fmt"

	"github.com/gogpu/gframe/gpucore"
)

var clearDepth = gpucore.ClearValue{Depth: 1}

// SetupShadowPass binds the shadow map as the only target, in depth-write
// state, and clears it.
func SetupShadowPass(rc *RenderContext) error {
	rec := rc.Recorder()
	if rec == nil || rc.DSV == nil {
		return ErrIncomplete
	}
	if err := rc.DSV.Transition(rec, ShadowMap, gpucore.StateDepthWrite); err != nil {
		return fmt.Errorf("passes: shadow: %w", err)
	}
	shadow, _ := rc.DSV.Get(ShadowMap)
	rec.SetRenderTargets(nil, shadow.View)
	if err := rc.DSV.Clear(ShadowMap, rec, clearDepth); err != nil {
		return fmt.Errorf("passes: shadow: %w", err)
	}
	return nil
}

// SetupOffscreenPass binds the offscreen color target and the main depth
// buffer, makes the shadow map readable and clears both targets.
func SetupOffscreenPass(rc *RenderContext) error {
	rec := rc.Recorder()
	if rec == nil || rc.RTV == nil || rc.DSV == nil {
		return ErrIncomplete
	}
	if err := rc.RTV.Transition(rec, Offscreen, gpucore.StateRenderTarget); err != nil {
		return fmt.Errorf("passes: offscreen: %w", err)
	}
	if err := rc.DSV.Transition(rec, MainDepth, gpucore.StateDepthWrite); err != nil {
		return fmt.Errorf("passes: offscreen: %w", err)
	}
	if err := rc.DSV.Transition(rec, ShadowMap, gpucore.StateShaderRead); err != nil {
		return fmt.Errorf("passes: offscreen: %w", err)
	}

	color, _ := rc.RTV.Get(Offscreen)
	depth, _ := rc.DSV.Get(MainDepth)
	if err := rc.RTV.Clear(Offscreen, rec, gpucore.ClearValue{Color: rc.Config.ClearColor}); err != nil {
		return fmt.Errorf("passes: offscreen: %w", err)
	}
	if err := rc.DSV.Clear(MainDepth, rec, clearDepth); err != nil {
		return fmt.Errorf("passes: offscreen: %w", err)
	}
	rec.SetRenderTargets([]gpucore.View{color.View}, depth.View)
	return nil
}

// SetupBackbufferPass makes the offscreen color and main depth readable,
// binds the current back buffer and clears it.
func SetupBackbufferPass(rc *RenderContext) error {
	rec := rc.Recorder()
	if rec == nil || rc.RTV == nil || rc.DSV == nil || rc.Chain == nil {
		return ErrIncomplete
	}
	if err := rc.RTV.Transition(rec, Offscreen, gpucore.StateShaderRead); err != nil {
		return fmt.Errorf("passes: backbuffer: %w", err)
	}
	if err := rc.DSV.Transition(rec, MainDepth, gpucore.StateShaderRead); err != nil {
		return fmt.Errorf("passes: backbuffer: %w", err)
	}
	bb := rc.Chain.CurrentBackBufferName()
	if err := rc.RTV.Transition(rec, bb, gpucore.StateRenderTarget); err != nil {
		return fmt.Errorf("passes: backbuffer: %w", err)
	}
	target, _ := rc.RTV.Get(bb)
	rec.SetRenderTargets([]gpucore.View{target.View}, nil)
	if err := rc.RTV.Clear(bb, rec, gpucore.ClearValue{Color: rc.Config.ClearColor}); err != nil {
		return fmt.Errorf("passes: backbuffer: %w", err)
	}
	return nil
}

// PostPass presents the frame and opens the next one: the back buffer
// goes to the present state, the recorder is submitted, the chain
// presents, the frame ends, and the next frame context is reset. Unless
// the context is pipelined, the queue is drained before the reset. The
// pacer then waits out the rest of the frame budget.
//
// With no chain, RTV registry or recorder yet the post pass does nothing;
// this happens while the renderer is starting or stopping.
func PostPass(rc *RenderContext) error {
	if rc == nil || rc.Chain == nil || rc.RTV == nil || rc.Recorder() == nil {
		rc.log().Warn("passes: post pass skipped, renderer not constructed")
		return nil
	}
	rec := rc.Recorder()
	bb := rc.Chain.CurrentBackBufferName()
	if err := rc.RTV.Transition(rec, bb, gpucore.StatePresent); err != nil {
		return fmt.Errorf("passes: post: %w", err)
	}
	if err := rc.Frame.Execute(); err != nil {
		return fmt.Errorf("passes: post: %w", err)
	}
	if err := rc.Chain.Present(rc.Config.SyncInterval); err != nil {
		return fmt.Errorf("passes: post: %w", err)
	}
	if err := rc.Frame.EndFrame(); err != nil {
		return fmt.Errorf("passes: post: %w", err)
	}
	if !rc.Config.Pipelined {
		if err := rc.Frame.WaitForAllFrames(); err != nil {
			return fmt.Errorf("passes: post: %w", err)
		}
	}
	rc.frameIndex++
	if err := rc.Frame.Reset(rc.frameIndex); err != nil {
		return fmt.Errorf("passes: post: %w", err)
	}
	if rc.Pacer != nil {
		rc.Pacer.Wait()
	}
	rc.log().Debug("passes: frame presented", "next", rc.frameIndex)
	return nil
}
