// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Register the Vulkan HAL backend.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Native backend errors.
var (
	// ErrBackendUnavailable is returned when the HAL backend is not
	// compiled in or cannot create an instance.
	ErrBackendUnavailable = errors.New("native: HAL backend unavailable")

	// ErrForeignObject is returned when an object from another backend is
	// passed to a native device.
	ErrForeignObject = errors.New("native: object does not belong to this device")

	// ErrRecorderOpen is returned when resetting a recorder that is still
	// recording.
	ErrRecorderOpen = errors.New("native: recorder is still recording")

	// ErrRecorderNotOpen is returned when closing a closed recorder.
	ErrRecorderNotOpen = errors.New("native: recorder is not recording")

	// ErrNothingToExecute is returned when executing a recorder that has
	// no finished command buffer.
	ErrNothingToExecute = errors.New("native: recorder has no closed command buffer")

	// ErrAllocatorInFlight is returned when resetting an allocator whose
	// command buffers may still be executing.
	ErrAllocatorInFlight = errors.New("native: allocator reset while in flight")

	// ErrInvalidDesc is returned for zero-sized resources.
	ErrInvalidDesc = errors.New("native: invalid descriptor")

	// ErrNotHostVisible is returned when the CPU writes a device-local
	// buffer.
	ErrNotHostVisible = errors.New("native: buffer is not host-visible")

	// ErrPipeline is returned when a render pipeline cannot be created.
	ErrPipeline = errors.New("native: pipeline creation failed")

	// ErrNotHALProvider is returned when a shared device provider does not
	// expose HAL handles.
	ErrNotHALProvider = errors.New("native: provider does not expose HAL device and queue")
)

// Backend names registered with the device package.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// instanceCreator is the part of a HAL backend used to open devices.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// halProvider is implemented by host device providers that expose their
// HAL handles.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Device is a gpucore.Device backed by a HAL device.
type Device struct {
	mu sync.Mutex

	instance hal.Instance // nil for imported devices
	device   hal.Device
	queue    *Queue
	info     gpucore.AdapterInfo
	owned    bool

	// surfaceFormat is the default swap chain format.
	surfaceFormat gputypes.TextureFormat

	hook gpucore.ValidationHook
}

var _ gpucore.Device = (*Device)(nil)

// OpenVulkan opens the most capable Vulkan adapter.
func OpenVulkan(opts device.Options) (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan", ErrBackendUnavailable)
	}
	return open(backend, BackendVulkan, opts)
}

// OpenNoop opens the HAL no-op backend. Every call succeeds and no work
// reaches a GPU.
func OpenNoop(opts device.Options) (*Device, error) {
	return open(noop.API{}, BackendNoop, opts)
}

func open(api instanceCreator, name string, opts device.Options) (*Device, error) {
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, name, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", device.ErrNoAdapter, name)
	}
	infos := make([]gpucore.AdapterInfo, len(adapters))
	for i := range adapters {
		infos[i] = gpucore.AdapterInfo{
			Name:    adapters[i].Info.Name,
			Backend: name,
			Type:    adapterType(adapters[i].Info.DeviceType),
		}
	}

	var errs []error
	for _, i := range device.RankAdapters(infos, opts.Adapter) {
		openDev, err := adapters[i].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			slogger().Warn("native: adapter failed to open", "adapter", infos[i].Name, "err", err)
			errs = append(errs, err)
			continue
		}
		d := newDevice(openDev.Device, openDev.Queue, infos[i], true)
		d.instance = instance
		slogger().Info("native: adapter selected",
			"backend", name,
			"adapter", infos[i].Name,
			"type", infos[i].Type)
		return d, nil
	}
	instance.Destroy()
	return nil, fmt.Errorf("%w: %s: %w", device.ErrNoAdapter, name, errors.Join(errs...))
}

// Import wraps a device owned by the host application. The provider must
// expose HalDevice() and HalQueue(); if it is a gpucontext.DeviceProvider
// its surface format becomes the default swap chain format. Destroy does
// not release an imported device.
func Import(provider any) (*Device, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHALProvider
	}
	halDev, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHALProvider, hp.HalDevice())
	}
	halQueue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHALProvider, hp.HalQueue())
	}

	d := newDevice(halDev, halQueue, gpucore.AdapterInfo{
		Name:    "shared",
		Backend: "shared",
		Type:    gpucore.AdapterOther,
	}, false)
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		if f := dp.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			d.surfaceFormat = f
		}
	}
	slogger().Info("native: imported shared device", "surfaceFormat", d.surfaceFormat)
	return d, nil
}

func newDevice(dev hal.Device, queue hal.Queue, info gpucore.AdapterInfo, owned bool) *Device {
	d := &Device{
		device:        dev,
		info:          info,
		owned:         owned,
		surfaceFormat: gputypes.TextureFormatBGRA8Unorm,
	}
	d.queue = &Queue{dev: d, queue: queue}
	return d
}

func adapterType(t gputypes.DeviceType) gpucore.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucore.AdapterDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucore.AdapterIntegrated
	default:
		return gpucore.AdapterOther
	}
}

// HalDevice returns the HAL device, so a Device can itself be shared with
// code that imports HAL providers.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the HAL queue.
func (d *Device) HalQueue() any { return d.queue.queue }

// Info describes the adapter.
func (d *Device) Info() gpucore.AdapterInfo { return d.info }

// Queue returns the device's queue.
func (d *Device) Queue() gpucore.Queue { return d.queue }

// SurfaceFormat returns the default swap chain format.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.surfaceFormat }

// SetValidationHook installs h.
func (d *Device) SetValidationHook(h gpucore.ValidationHook) {
	d.mu.Lock()
	d.hook = h
	d.mu.Unlock()
}

func (d *Device) report(res, format string, args ...any) {
	ev := gpucore.ValidationEvent{Message: fmt.Sprintf(format, args...), Resource: res}
	slogger().Warn("native: validation", "resource", res, "message", ev.Message)
	d.mu.Lock()
	h := d.hook
	d.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// CreateFence creates a HAL fence.
func (d *Device) CreateFence() (gpucore.Fence, error) {
	f, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create fence: %w", err)
	}
	return &Fence{dev: d, fence: f}, nil
}

// CreateAllocator creates a command allocator.
func (d *Device) CreateAllocator(label string) (gpucore.Allocator, error) {
	return &Allocator{dev: d, label: label}, nil
}

// CreateRecorder creates a closed recorder backed by a HAL command encoder.
func (d *Device) CreateRecorder(a gpucore.Allocator, label string) (gpucore.Recorder, error) {
	alloc, ok := a.(*Allocator)
	if !ok || alloc.dev != d {
		return nil, ErrForeignObject
	}
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder %q: %w", label, err)
	}
	return &Recorder{dev: d, label: label, encoder: enc, alloc: alloc}, nil
}

// CreateShaderModule creates a HAL shader module from SPIR-V code.
func (d *Device) CreateShaderModule(label string, spirv []uint32) (hal.ShaderModule, error) {
	if len(spirv) == 0 {
		return nil, fmt.Errorf("%w: empty SPIR-V for %q", ErrInvalidDesc, label)
	}
	m, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", label, err)
	}
	return m, nil
}

// DestroyShaderModule releases a module created by CreateShaderModule.
func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	if m != nil {
		d.device.DestroyShaderModule(m)
	}
}

// Destroy releases the queue's internal fence and, for devices this
// package opened, the HAL device and instance.
func (d *Device) Destroy() {
	d.queue.destroy()
	if !d.owned {
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
