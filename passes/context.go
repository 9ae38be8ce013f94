// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package passes

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/pacer"
	"github.com/gogpu/gframe/present"
	"github.com/gogpu/gframe/views"
)

// Names of the targets the built-in passes render to.
const (
	ShadowMap = "ShadowMap"
	Offscreen = "Offscreen"
	MainDepth = "MainDepth"
)

// ErrIncomplete is returned when a RenderContext lacks a component a
// setup pass needs.
var ErrIncomplete = errors.New("passes: render context is incomplete")

// Config fixes the pipeline's targets and presentation.
type Config struct {
	// Width and Height size the offscreen color and main depth targets.
	Width  uint32
	Height uint32

	// ShadowSize is the edge length of the square shadow map.
	ShadowSize uint32

	// ClearColor clears the offscreen target and the back buffer.
	ClearColor [4]float32

	// SyncInterval is passed to Present.
	SyncInterval int

	// Pipelined keeps up to the frame manager's frame count in flight.
	// Otherwise the post pass drains the queue every frame.
	Pipelined bool
}

// DefaultConfig returns a 1280x720 pipeline with a 2048 shadow map.
func DefaultConfig() Config {
	return Config{
		Width:        1280,
		Height:       720,
		ShadowSize:   2048,
		ClearColor:   [4]float32{0, 0, 0, 1},
		SyncInterval: 1,
	}
}

// RenderContext threads every component of the renderer through the
// pass functions.
type RenderContext struct {
	Frame *frame.Manager
	Chain *present.Chain
	RTV   *views.Registry
	DSV   *views.Registry
	SRV   *views.Registry
	Pacer *pacer.Pacer

	// Logger overrides the package logger for this context.
	Logger *slog.Logger

	Config Config

	frameIndex int
}

// FrameIndex returns the index of the frame being recorded.
func (rc *RenderContext) FrameIndex() int { return rc.frameIndex }

// Recorder returns the frame manager's shared recorder, or nil.
func (rc *RenderContext) Recorder() gpucore.Recorder {
	if rc == nil || rc.Frame == nil {
		return nil
	}
	return rc.Frame.Recorder()
}

func (rc *RenderContext) log() *slog.Logger {
	if rc != nil && rc.Logger != nil {
		return rc.Logger
	}
	return slogger()
}

// CreateTargets creates the shadow map, the offscreen color target and
// the main depth buffer, each with a shader-readable companion, and
// registers the chain's back buffers. The DSV and RTV registries must be
// linked to the SRV registry.
func CreateTargets(rc *RenderContext) error {
	if rc == nil || rc.RTV == nil || rc.DSV == nil || rc.Chain == nil {
		return ErrIncomplete
	}
	cfg := rc.Config
	if _, err := rc.DSV.Create(ShadowMap, &views.Desc{
		Width: cfg.ShadowSize, Height: cfg.ShadowSize, Companion: true,
	}); err != nil {
		return fmt.Errorf("passes: shadow map: %w", err)
	}
	if _, err := rc.RTV.Create(Offscreen, &views.Desc{
		Width: cfg.Width, Height: cfg.Height, Companion: true,
	}); err != nil {
		return fmt.Errorf("passes: offscreen target: %w", err)
	}
	if _, err := rc.DSV.Create(MainDepth, &views.Desc{
		Width: cfg.Width, Height: cfg.Height, Companion: true,
	}); err != nil {
		return fmt.Errorf("passes: main depth: %w", err)
	}
	if err := rc.Chain.RegisterBackBuffers(rc.RTV); err != nil {
		return fmt.Errorf("passes: %w", err)
	}
	rc.log().Info("passes: targets created",
		"width", cfg.Width, "height", cfg.Height,
		"shadow", cfg.ShadowSize, "backBuffers", rc.Chain.BufferCount())
	return nil
}
