// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// CompositeDesc describes a fullscreen pass that samples one texture.
// The shaders read the texture at @group(0) @binding(0) and a filtering
// sampler at @binding(1).
type CompositeDesc struct {
	Label string

	Vertex        hal.ShaderModule
	VertexEntry   string
	Fragment      hal.ShaderModule
	FragmentEntry string

	// Format is the color target format. It defaults to the device's
	// surface format.
	Format gputypes.TextureFormat
}

// Composite draws a fullscreen triangle sampling a shader-resource view
// into the recorder's bound color target.
type Composite struct {
	dev   *Device
	label string

	sampler  hal.Sampler
	bgLayout hal.BindGroupLayout
	layout   hal.PipelineLayout
	pipeline hal.RenderPipeline

	group hal.BindGroup
	bound *View
}

// CreateComposite builds the sampler, layouts and render pipeline of a
// composite pass. Errors wrap ErrPipeline.
func (d *Device) CreateComposite(desc *CompositeDesc) (*Composite, error) {
	if desc == nil || desc.Vertex == nil || desc.Fragment == nil {
		return nil, fmt.Errorf("%w: composite needs vertex and fragment modules", ErrPipeline)
	}
	if desc.VertexEntry == "" || desc.FragmentEntry == "" {
		return nil, fmt.Errorf("%w: %q: empty entry point", ErrPipeline, desc.Label)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = d.surfaceFormat
	}

	c := &Composite{dev: d, label: desc.Label}
	err := c.build(desc, format)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("%w: %q: %w", ErrPipeline, desc.Label, err)
	}
	slogger().Debug("native: composite pipeline created", "label", desc.Label, "format", format)
	return c, nil
}

func (c *Composite) build(desc *CompositeDesc, format gputypes.TextureFormat) error {
	dev := c.dev.device
	var err error

	c.sampler, err = dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label + " sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	c.bgLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + " bind group layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	c.layout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + " pipeline layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.bgLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	c.pipeline, err = dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: c.layout,
		Vertex: hal.VertexState{
			Module:     desc.Vertex,
			EntryPoint: desc.VertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     desc.Fragment,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{Format: format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	return nil
}

// Draw records a render pass over rec's bound targets that samples src
// with a fullscreen triangle. src must be a shader-resource view of a
// texture on the same device, already in the shader-read state.
func (c *Composite) Draw(rec gpucore.Recorder, src gpucore.View) error {
	r, ok := rec.(*Recorder)
	if !ok || r.dev != c.dev {
		return ErrForeignObject
	}
	view, ok := src.(*View)
	if !ok || view.dev != c.dev {
		return ErrForeignObject
	}
	if view.kind != gpucore.ViewShaderResource || view.view == nil {
		return fmt.Errorf("%w: composite source %q is a %v view", ErrInvalidDesc, view.label, view.kind)
	}
	if err := c.bind(view); err != nil {
		return err
	}

	rp, err := r.BeginRenderPass(c.label)
	if err != nil {
		return err
	}
	rp.SetPipeline(c.pipeline)
	rp.SetBindGroup(0, c.group, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return nil
}

// bind rebuilds the bind group when the source view changes.
func (c *Composite) bind(view *View) error {
	if c.group != nil && c.bound == view {
		return nil
	}
	group, err := c.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  c.label + " bind group",
		Layout: c.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("native: bind %q to %q: %w", view.label, c.label, err)
	}
	if c.group != nil {
		c.dev.device.DestroyBindGroup(c.group)
	}
	c.group, c.bound = group, view
	return nil
}

// Destroy releases the pipeline objects. It is safe on a partly built
// composite.
func (c *Composite) Destroy() {
	dev := c.dev.device
	if c.group != nil {
		dev.DestroyBindGroup(c.group)
		c.group, c.bound = nil, nil
	}
	if c.pipeline != nil {
		dev.DestroyRenderPipeline(c.pipeline)
		c.pipeline = nil
	}
	if c.layout != nil {
		dev.DestroyPipelineLayout(c.layout)
		c.layout = nil
	}
	if c.bgLayout != nil {
		dev.DestroyBindGroupLayout(c.bgLayout)
		c.bgLayout = nil
	}
	if c.sampler != nil {
		dev.DestroySampler(c.sampler)
		c.sampler = nil
	}
}
