// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gframe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/pacer"
	"github.com/gogpu/gframe/passes"
	"github.com/gogpu/gframe/present"
	"github.com/gogpu/gframe/shader"
	"github.com/gogpu/gframe/views"
)

// Renderer owns a device and every component of the frame pipeline.
type Renderer struct {
	cfg     Config
	dev     gpucore.Device
	rc      *passes.RenderContext
	orch    *passes.Orchestrator
	shaders *shader.Compiler

	validation atomic.Uint64
	closed     bool
}

// Host-supplied collaborators that cannot be expressed in TOML.
type extras struct {
	shared     any
	validation gpucore.ValidationHook
	shaderFS   fs.FS
}

// OpenOption configures Open beyond the Config.
type OpenOption func(*extras)

// WithSharedDevice renders on a device owned by the host application,
// such as a gpucontext.DeviceProvider exposing its HAL handles.
func WithSharedDevice(provider any) OpenOption {
	return func(e *extras) { e.shared = provider }
}

// WithValidation receives backend validation events.
func WithValidation(h gpucore.ValidationHook) OpenOption {
	return func(e *extras) { e.validation = h }
}

// WithShaders enables the shader compiler over fsys.
func WithShaders(fsys fs.FS) OpenOption {
	return func(e *extras) { e.shaderFS = fsys }
}

// Open creates a renderer from cfg: it opens the device, initializes the
// frame manager, creates the presentation chain and the three view
// registries, creates the pipeline's targets and starts the pacer.
func Open(cfg Config, opts ...OpenOption) (r *Renderer, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var ex extras
	for _, opt := range opts {
		opt(&ex)
	}
	format, _ := parseFormat(cfg.Format)
	log := Logger()

	r = &Renderer{cfg: cfg}
	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
			r = nil
		}
	}()

	r.dev, err = device.Open(
		device.WithBackend(cfg.Backend),
		device.WithAdapter(cfg.Adapter),
		device.WithShared(ex.shared),
		device.WithValidation(r.validationHook(ex.validation)),
	)
	if err != nil {
		return nil, fmt.Errorf("gframe: open device: %w", err)
	}
	cleanup = append(cleanup, r.dev.Destroy)

	fm := frame.NewManager(r.dev,
		frame.WithFrameCount(cfg.FramesInFlight),
		frame.WithWaitTimeout(time.Duration(cfg.WaitTimeout)),
		frame.WithAssertions(cfg.Debug),
	)
	if err = fm.Initialize(); err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}
	cleanup = append(cleanup, func() { _ = fm.Destroy() })

	chain, err := present.NewChain(r.dev, &gpucore.SwapChainDesc{
		Label:       "BackBuffer",
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      format,
		BufferCount: cfg.BackBuffers,
	})
	if err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}
	cleanup = append(cleanup, chain.Destroy)

	srv, err := views.New(gpucore.ViewShaderResource, r.dev, cfg.ShaderViews, views.WithAssertions(cfg.Debug))
	if err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}
	cleanup = append(cleanup, srv.Destroy)
	rtv, err := views.New(gpucore.ViewRenderTarget, r.dev, cfg.RenderTargets,
		views.WithCompanions(srv), views.WithAssertions(cfg.Debug))
	if err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}
	cleanup = append(cleanup, rtv.Destroy)
	dsv, err := views.New(gpucore.ViewDepthStencil, r.dev, cfg.DepthStencils,
		views.WithCompanions(srv), views.WithAssertions(cfg.Debug))
	if err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}
	cleanup = append(cleanup, dsv.Destroy)

	r.rc = &passes.RenderContext{
		Frame:  fm,
		Chain:  chain,
		RTV:    rtv,
		DSV:    dsv,
		SRV:    srv,
		Pacer:  pacer.New(pacer.ForFPS(cfg.TargetFPS), pacer.WithLogger(log)),
		Logger: log,
		Config: passes.Config{
			Width:        cfg.Width,
			Height:       cfg.Height,
			ShadowSize:   cfg.ShadowSize,
			ClearColor:   cfg.ClearColor,
			SyncInterval: cfg.SyncInterval,
		},
	}
	if err = passes.CreateTargets(r.rc); err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}

	var popts []passes.Option
	if cfg.Pipelined {
		popts = append(popts, passes.WithPipelinedFrames())
	}
	if r.orch, err = passes.NewOrchestrator(r.rc, popts...); err != nil {
		return nil, fmt.Errorf("gframe: %w", err)
	}

	if ex.shaderFS != nil {
		if r.shaders, err = shader.NewCompiler(ex.shaderFS); err != nil {
			return nil, fmt.Errorf("gframe: %w", err)
		}
	}

	info := r.dev.Info()
	log.Info("gframe: renderer opened",
		"backend", info.Backend,
		"adapter", info.Name,
		"framesInFlight", cfg.FramesInFlight,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"targetFPS", cfg.TargetFPS)
	return r, nil
}

func (r *Renderer) validationHook(user gpucore.ValidationHook) gpucore.ValidationHook {
	debug := r.cfg.Debug
	return func(ev gpucore.ValidationEvent) {
		r.validation.Add(1)
		if debug {
			Logger().Warn("gframe: validation", "resource", ev.Resource, "message", ev.Message)
		}
		if user != nil {
			user(ev)
		}
	}
}

// Config returns the configuration the renderer was opened with.
func (r *Renderer) Config() Config { return r.cfg }

// Device returns the device.
func (r *Renderer) Device() gpucore.Device { return r.dev }

// Context returns the render context passed to every pass.
func (r *Renderer) Context() *passes.RenderContext { return r.rc }

// Frames returns the frame manager.
func (r *Renderer) Frames() *frame.Manager { return r.rc.Frame }

// Shaders returns the shader compiler, or nil without WithShaders.
func (r *Renderer) Shaders() *shader.Compiler { return r.shaders }

// Stats returns the pacer's frame statistics.
func (r *Renderer) Stats() pacer.Stats { return r.rc.Pacer.Stats() }

// ValidationEvents returns the number of backend validation events so far.
func (r *Renderer) ValidationEvents() uint64 { return r.validation.Load() }

// RenderFrame records and presents one frame.
func (r *Renderer) RenderFrame(ctx context.Context, d passes.Draws) error {
	if r.closed {
		return ErrClosed
	}
	return r.orch.RenderFrame(ctx, d)
}

// Run renders n frames, or until ctx is done if n is not positive.
func (r *Renderer) Run(ctx context.Context, n int, d passes.Draws) error {
	if r.closed {
		return ErrClosed
	}
	return r.orch.Run(ctx, n, d)
}

// ErrClosed is returned by a renderer after Close.
var ErrClosed = errors.New("gframe: renderer closed")

// Close drains the GPU and releases everything Open created. Devices
// shared by the host application are left open.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.orch.Stop()
	r.rc.RTV.Destroy()
	r.rc.DSV.Destroy()
	r.rc.SRV.Destroy()
	r.rc.Chain.Destroy()
	err = errors.Join(err, r.rc.Frame.Destroy())
	if r.shaders != nil {
		r.shaders.Purge()
	}
	r.dev.Destroy()
	Logger().Info("gframe: renderer closed", "frames", r.rc.FrameIndex())
	return err
}
