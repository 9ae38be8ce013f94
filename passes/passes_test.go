// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package passes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gogpu/gframe/backend/sim"
	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/present"
	"github.com/gogpu/gframe/views"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = time.Millisecond
)

func newContext(t *testing.T, dev *sim.Device, cfg Config) *RenderContext {
	t.Helper()
	m := frame.NewManager(dev)
	require.NoError(t, m.Initialize())

	chain, err := present.NewChain(dev, &gpucore.SwapChainDesc{
		Label: "swap", Width: cfg.Width, Height: cfg.Height,
		Format: gputypes.TextureFormatBGRA8Unorm, BufferCount: 2,
	})
	require.NoError(t, err)

	srv, err := views.New(gpucore.ViewShaderResource, dev, 16)
	require.NoError(t, err)
	rtv, err := views.New(gpucore.ViewRenderTarget, dev, 8, views.WithCompanions(srv))
	require.NoError(t, err)
	dsv, err := views.New(gpucore.ViewDepthStencil, dev, 4, views.WithCompanions(srv))
	require.NoError(t, err)

	rc := &RenderContext{Frame: m, Chain: chain, RTV: rtv, DSV: dsv, SRV: srv, Config: cfg}
	require.NoError(t, CreateTargets(rc))
	t.Cleanup(func() {
		dev.RetireAll()
		_ = m.Destroy()
		rtv.Destroy()
		dsv.Destroy()
		srv.Destroy()
		chain.Destroy()
	})
	return rc
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height, cfg.ShadowSize = 64, 48, 32
	return cfg
}

type transition struct {
	res    string
	before gpucore.ResourceState
	after  gpucore.ResourceState
}

func (tr transition) String() string {
	return fmt.Sprintf("%s %v->%v", tr.res, tr.before, tr.after)
}

func barriers(cmds []sim.Command) []transition {
	var out []transition
	for _, c := range cmds {
		if c.Op == sim.OpBarrier {
			out = append(out, transition{c.Resource, c.Before, c.After})
		}
	}
	return out
}

// checkSequence replays barriers against independently tracked states.
// Every before must equal the previous after for the same resource, and
// no barrier may be a self-transition.
func checkSequence(initial map[string]gpucore.ResourceState, seq []transition) error {
	tracked := make(map[string]gpucore.ResourceState, len(initial))
	for k, v := range initial {
		tracked[k] = v
	}
	for i, tr := range seq {
		cur, ok := tracked[tr.res]
		if !ok {
			return fmt.Errorf("barrier %d: unknown resource %q", i, tr.res)
		}
		if tr.before != cur {
			return fmt.Errorf("barrier %d (%v): tracked state is %v", i, tr, cur)
		}
		if tr.before == tr.after {
			return fmt.Errorf("barrier %d (%v): self-transition", i, tr)
		}
		tracked[tr.res] = tr.after
	}
	return nil
}

func initialStates() map[string]gpucore.ResourceState {
	return map[string]gpucore.ResourceState{
		ShadowMap: gpucore.StateDepthWrite,
		Offscreen: gpucore.StateRenderTarget,
		MainDepth: gpucore.StateDepthWrite,
		"swap[0]": gpucore.StatePresent,
		"swap[1]": gpucore.StatePresent,
	}
}

func TestFirstFrameTransitions(t *testing.T) {
	dev := sim.New()
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)

	require.NoError(t, o.RenderFrame(context.Background(), Draws{}))

	want := []transition{
		{ShadowMap, gpucore.StateDepthWrite, gpucore.StateShaderRead},
		{Offscreen, gpucore.StateRenderTarget, gpucore.StateShaderRead},
		{MainDepth, gpucore.StateDepthWrite, gpucore.StateShaderRead},
		{"swap[0]", gpucore.StatePresent, gpucore.StateRenderTarget},
		{"swap[0]", gpucore.StateRenderTarget, gpucore.StatePresent},
	}
	assert.Equal(t, want, barriers(dev.Commands()))
	assert.Empty(t, dev.Events())
	assert.Equal(t, 1, rc.FrameIndex())
}

func TestSteadyStateTransitions(t *testing.T) {
	dev := sim.New()
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)

	const frames = 5
	require.NoError(t, o.Run(context.Background(), frames, Draws{}))

	seq := barriers(dev.Commands())
	require.NoError(t, checkSequence(initialStates(), seq))
	assert.Empty(t, dev.Events())

	// After the first frame each frame moves every target out and back.
	assert.Len(t, seq, 5+8*(frames-1))

	var presents []string
	for _, c := range dev.Commands() {
		if c.Op == sim.OpPresent {
			presents = append(presents, c.Resource)
		}
	}
	assert.Equal(t, []string{"swap[0]", "swap[1]", "swap[0]", "swap[1]", "swap[0]"}, presents)

	for i := 0; i < rc.Frame.FrameCount(); i++ {
		assert.NotEqual(t, frame.Submitted, rc.Frame.State(i))
	}
}

func TestHarnessDetectsMismatch(t *testing.T) {
	bad := []transition{
		{ShadowMap, gpucore.StateDepthWrite, gpucore.StateShaderRead},
		{ShadowMap, gpucore.StateDepthWrite, gpucore.StateShaderRead},
	}
	assert.Error(t, checkSequence(initialStates(), bad))
	assert.Error(t, checkSequence(initialStates(), []transition{
		{Offscreen, gpucore.StateRenderTarget, gpucore.StateRenderTarget},
	}))
}

func TestDrawsRunInOrder(t *testing.T) {
	dev := sim.New()
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)

	var order []string
	record := func(name string, reg *views.Registry, target string, want gpucore.ResourceState) DrawFunc {
		return func(rc *RenderContext, rec gpucore.Recorder) error {
			order = append(order, name)
			state, ok := reg.State(target)
			require.True(t, ok)
			assert.Equal(t, want, state, name)
			assert.False(t, rec.Closed())
			return nil
		}
	}
	d := Draws{
		Shadow:    record("shadow", rc.DSV, ShadowMap, gpucore.StateDepthWrite),
		Scene:     record("scene", rc.RTV, Offscreen, gpucore.StateRenderTarget),
		Composite: record("composite", rc.RTV, "BackBuffer0", gpucore.StateRenderTarget),
	}
	require.NoError(t, o.RenderFrame(context.Background(), d))
	assert.Equal(t, []string{"shadow", "scene", "composite"}, order)

	// Companion views share state: the shadow map reads back as
	// shader-readable through the SRV registry.
	state, ok := rc.SRV.State(ShadowMap)
	require.True(t, ok)
	assert.Equal(t, gpucore.StateShaderRead, state)
}

func TestDrawErrorAborts(t *testing.T) {
	dev := sim.New()
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = o.RenderFrame(context.Background(), Draws{
		Scene: func(*RenderContext, gpucore.Recorder) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, rc.FrameIndex())
}

func TestPostPassNilGuard(t *testing.T) {
	assert.NoError(t, PostPass(nil))
	assert.NoError(t, PostPass(&RenderContext{}))

	// A manager that was never initialized has no recorder yet.
	dev := sim.New()
	rc := &RenderContext{Frame: frame.NewManager(dev)}
	chain, err := present.NewChain(dev, &gpucore.SwapChainDesc{Width: 4, Height: 4, BufferCount: 2})
	require.NoError(t, err)
	rc.Chain = chain
	assert.NoError(t, PostPass(rc))
	assert.Empty(t, dev.Commands())

	// Torn down registries leave the recorder and chain in place.
	dev = sim.New()
	rc = newContext(t, dev, testConfig())
	before := len(dev.Commands())
	rc.RTV = nil
	assert.NoError(t, PostPass(rc))
	assert.Len(t, dev.Commands(), before)
	assert.Zero(t, rc.FrameIndex())
}

func TestSetupRequiresComponents(t *testing.T) {
	assert.ErrorIs(t, SetupShadowPass(&RenderContext{}), ErrIncomplete)
	assert.ErrorIs(t, SetupOffscreenPass(&RenderContext{}), ErrIncomplete)
	assert.ErrorIs(t, SetupBackbufferPass(&RenderContext{}), ErrIncomplete)
	assert.ErrorIs(t, CreateTargets(nil), ErrIncomplete)
	_, err := NewOrchestrator(&RenderContext{})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestPipelinedFrames(t *testing.T) {
	dev := sim.New(sim.WithManualRetire())
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc, WithPipelinedFrames())
	require.NoError(t, err)
	assert.True(t, rc.Config.Pipelined)

	// Frame 0's post pass opens context 1, which has never submitted.
	require.NoError(t, o.RenderFrame(context.Background(), Draws{}))
	assert.Equal(t, frame.Submitted, rc.Frame.State(0))
	assert.Equal(t, 1, dev.Pending())

	// Frame 1's post pass must wait for frame 0 before reopening context 0.
	done := make(chan error, 1)
	go func() { done <- o.RenderFrame(context.Background(), Draws{}) }()
	require.Eventually(t, func() bool { return dev.Pending() == 2 }, timeout, tick)
	select {
	case err := <-done:
		t.Fatalf("RenderFrame returned before frame 0 retired: %v", err)
	default:
	}
	dev.Retire(1)
	require.NoError(t, <-done)
	assert.Equal(t, 2, rc.FrameIndex())

	dev.RetireAll()
	require.NoError(t, o.Stop())
	require.NoError(t, checkSequence(initialStates(), barriers(dev.Commands())))
}

func TestCanceledContext(t *testing.T) {
	dev := sim.New()
	rc := newContext(t, dev, testConfig())
	o, err := NewOrchestrator(rc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, o.Run(ctx, 0, Draws{}), context.Canceled)
	assert.Empty(t, dev.Commands())
}
