// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package main

import (
	"fmt"

	"github.com/gogpu/gframe"
	"github.com/gogpu/gframe/backend/native"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/passes"
	"github.com/gogpu/gframe/shader"
)

const compositeSource = "composite.wgsl"

// compositeDraw compiles the composite shader and, on native devices,
// builds a pipeline that samples the offscreen target into the back
// buffer. Other devices only get the shader validated. Any pipeline
// error is returned, so the caller can refuse to run without it.
func compositeDraw(r *gframe.Renderer) (passes.DrawFunc, func(), error) {
	vs, err := r.Shaders().Module(compositeSource, "vs_main")
	if err != nil {
		return nil, nil, err
	}
	fs, err := r.Shaders().Module(compositeSource, "fs_main")
	if err != nil {
		return nil, nil, err
	}
	if vs.Stage != shader.StageVertex || fs.Stage != shader.StageFragment {
		return nil, nil, fmt.Errorf("%s: unexpected stages %s, %s", compositeSource, vs.Stage, fs.Stage)
	}

	dev, ok := r.Device().(*native.Device)
	if !ok {
		return nil, func() {}, nil
	}
	return nativeComposite(dev, vs, fs)
}

func nativeComposite(dev *native.Device, vs, fs *shader.Module) (passes.DrawFunc, func(), error) {
	vm, err := dev.CreateShaderModule("composite vs", vs.SPIRV)
	if err != nil {
		return nil, nil, err
	}
	fm, err := dev.CreateShaderModule("composite fs", fs.SPIRV)
	if err != nil {
		dev.DestroyShaderModule(vm)
		return nil, nil, err
	}
	comp, err := dev.CreateComposite(&native.CompositeDesc{
		Label:         "composite",
		Vertex:        vm,
		VertexEntry:   vs.Entry,
		Fragment:      fm,
		FragmentEntry: fs.Entry,
	})
	if err != nil {
		dev.DestroyShaderModule(fm)
		dev.DestroyShaderModule(vm)
		return nil, nil, err
	}
	release := func() {
		comp.Destroy()
		dev.DestroyShaderModule(fm)
		dev.DestroyShaderModule(vm)
	}

	draw := func(rc *passes.RenderContext, rec gpucore.Recorder) error {
		if rc.SRV == nil {
			return passes.ErrIncomplete
		}
		src, ok := rc.SRV.Get(passes.Offscreen)
		if !ok {
			return fmt.Errorf("composite: no shader-readable %s", passes.Offscreen)
		}
		return comp.Draw(rec, src.View)
	}
	return draw, release, nil
}
