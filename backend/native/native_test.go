// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func openNoop(t *testing.T) *Device {
	t.Helper()
	d, err := OpenNoop(device.Options{})
	if err != nil {
		t.Fatalf("OpenNoop: %v", err)
	}
	t.Cleanup(d.Destroy)
	return d
}

func TestOpenNoop(t *testing.T) {
	d := openNoop(t)
	if d.Info().Backend != BackendNoop {
		t.Errorf("Backend = %q, want %q", d.Info().Backend, BackendNoop)
	}
	if d.Queue() == nil {
		t.Fatal("Queue() = nil")
	}
	if d.HalDevice() == nil || d.HalQueue() == nil {
		t.Error("HAL handles not exposed")
	}
	if d.SurfaceFormat() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat = %v", d.SurfaceFormat())
	}
}

func TestCreateTextureAndViews(t *testing.T) {
	d := openNoop(t)

	color, err := d.CreateTexture(&gpucore.TextureDesc{Label: "color", Width: 64, Height: 32, ShaderVisible: true})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer color.Destroy()
	if w, h := color.Size(); w != 64 || h != 32 {
		t.Errorf("Size = %dx%d", w, h)
	}
	if got := color.(*Texture).Format(); got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("default color format = %v", got)
	}

	depth, err := d.CreateTexture(&gpucore.TextureDesc{Label: "depth", Width: 64, Height: 32, Depth: true})
	if err != nil {
		t.Fatalf("CreateTexture(depth): %v", err)
	}
	defer depth.Destroy()
	if depth.Kind() != gpucore.KindDepthTexture {
		t.Errorf("Kind = %v", depth.Kind())
	}

	rtv, err := d.CreateView(color, &gpucore.ViewDesc{Label: "rtv", Kind: gpucore.ViewRenderTarget})
	if err != nil {
		t.Fatalf("CreateView(rtv): %v", err)
	}
	defer rtv.Destroy()
	if rtv.Resource() != color {
		t.Error("view does not reference its texture")
	}

	if _, err := d.CreateView(color, &gpucore.ViewDesc{Kind: gpucore.ViewDepthStencil}); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("DSV of color texture: err = %v, want ErrInvalidDesc", err)
	}
	if _, err := d.CreateTexture(&gpucore.TextureDesc{Width: 0, Height: 1}); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("zero texture: err = %v", err)
	}
}

func TestCreateBuffer(t *testing.T) {
	d := openNoop(t)

	upload, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "upload", Size: 256, Upload: true})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer upload.Destroy()
	if err := d.Queue().WriteBuffer(upload, 0, make([]byte, 128)); err != nil {
		t.Errorf("WriteBuffer: %v", err)
	}
	if err := d.Queue().WriteBuffer(upload, 200, make([]byte, 128)); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("overflowing write: err = %v", err)
	}

	uav, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "uav", Size: 1024})
	if err != nil {
		t.Fatalf("CreateBuffer(uav): %v", err)
	}
	defer uav.Destroy()
	if err := d.Queue().WriteBuffer(uav, 0, []byte{1}); !errors.Is(err, ErrNotHostVisible) {
		t.Errorf("write to device-local buffer: err = %v, want ErrNotHostVisible", err)
	}
	if _, err := d.CreateView(uav, &gpucore.ViewDesc{Kind: gpucore.ViewUnorderedAccess}); err != nil {
		t.Errorf("UAV of buffer: %v", err)
	}
	if _, err := d.CreateView(uav, &gpucore.ViewDesc{Kind: gpucore.ViewRenderTarget}); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("RTV of buffer: err = %v", err)
	}
}

func TestRecorderLifecycle(t *testing.T) {
	d := openNoop(t)

	var events []gpucore.ValidationEvent
	d.SetValidationHook(func(ev gpucore.ValidationEvent) { events = append(events, ev) })

	alloc, err := d.CreateAllocator("alloc")
	if err != nil {
		t.Fatal(err)
	}
	defer alloc.Destroy()
	if err := alloc.Reset(); err != nil {
		t.Fatalf("fresh allocator Reset: %v", err)
	}

	rec, err := d.CreateRecorder(alloc, "rec")
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Destroy()
	if !rec.Closed() {
		t.Fatal("new recorder should be closed")
	}
	if err := rec.Close(); !errors.Is(err, ErrRecorderNotOpen) {
		t.Errorf("Close of closed recorder: err = %v", err)
	}

	tex, err := d.CreateTexture(&gpucore.TextureDesc{Label: "rt", Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()
	rtv, err := d.CreateView(tex, &gpucore.ViewDesc{Label: "rt", Kind: gpucore.ViewRenderTarget})
	if err != nil {
		t.Fatal(err)
	}
	defer rtv.Destroy()

	// Recording while closed is reported and ignored.
	rec.ClearColor(rtv, [4]float32{})
	if len(events) != 1 {
		t.Fatalf("events = %v, want one closed-recorder event", events)
	}

	if err := rec.Reset(alloc); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := rec.Reset(alloc); !errors.Is(err, ErrRecorderOpen) {
		t.Errorf("double Reset: err = %v", err)
	}
	rec.Barrier(gpucore.Barrier{Resource: tex, Before: gpucore.StateCommon, After: gpucore.StateRenderTarget})
	rec.SetRenderTargets([]gpucore.View{rtv}, nil)
	rec.ClearColor(rtv, [4]float32{0, 0.2, 0.4, 1})
	rp, err := rec.(*Recorder).BeginRenderPass("draw")
	if err != nil {
		t.Fatalf("BeginRenderPass: %v", err)
	}
	rp.End()

	if err := d.Queue().Execute(rec); !errors.Is(err, ErrRecorderOpen) {
		t.Errorf("Execute of open recorder: err = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Queue().Execute(rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := d.Queue().Execute(rec); !errors.Is(err, ErrNothingToExecute) {
		t.Errorf("second Execute: err = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %v, want closed-recorder and open-execute events", events)
	}
}

func TestViewKindMismatchReported(t *testing.T) {
	d := openNoop(t)
	var events []gpucore.ValidationEvent
	d.SetValidationHook(func(ev gpucore.ValidationEvent) { events = append(events, ev) })

	alloc, _ := d.CreateAllocator("a")
	rec, _ := d.CreateRecorder(alloc, "r")
	defer rec.Destroy()
	depth, err := d.CreateTexture(&gpucore.TextureDesc{Label: "depth", Width: 4, Height: 4, Depth: true})
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Destroy()
	dsv, err := d.CreateView(depth, &gpucore.ViewDesc{Label: "dsv", Kind: gpucore.ViewDepthStencil})
	if err != nil {
		t.Fatal(err)
	}
	defer dsv.Destroy()

	if err := rec.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	rec.ClearColor(dsv, [4]float32{})
	rec.ClearDepth(dsv, 1, 0)
	if len(events) != 1 {
		t.Errorf("events = %v, want one kind mismatch", events)
	}
}

func TestForeignObjects(t *testing.T) {
	a := openNoop(t)
	b := openNoop(t)

	alloc, _ := b.CreateAllocator("b")
	if _, err := a.CreateRecorder(alloc, "r"); !errors.Is(err, ErrForeignObject) {
		t.Errorf("CreateRecorder with foreign allocator: err = %v", err)
	}
	f, err := b.CreateFence()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Destroy()
	if err := a.Queue().Signal(f, 1); !errors.Is(err, ErrForeignObject) {
		t.Errorf("Signal of foreign fence: err = %v", err)
	}
}

func TestSwapChain(t *testing.T) {
	d := openNoop(t)
	sc, err := d.CreateSwapChain(&gpucore.SwapChainDesc{Label: "sc", Width: 16, Height: 16, BufferCount: 3})
	if err != nil {
		t.Fatalf("CreateSwapChain: %v", err)
	}
	defer sc.Destroy()

	images := sc.Images()
	if len(images) != 3 {
		t.Fatalf("images = %d, want 3", len(images))
	}
	if got := images[0].(*Texture).Format(); got != d.SurfaceFormat() {
		t.Errorf("image format = %v, want surface format %v", got, d.SurfaceFormat())
	}
	for i := 0; i < 4; i++ {
		if got, want := sc.CurrentIndex(), i%3; got != want {
			t.Errorf("frame %d: CurrentIndex = %d, want %d", i, got, want)
		}
		if err := sc.Present(1); err != nil {
			t.Fatal(err)
		}
	}
	if got := sc.(*SwapChain).Presented(); got != 4 {
		t.Errorf("Presented = %d", got)
	}

	if _, err := d.CreateSwapChain(&gpucore.SwapChainDesc{Width: 16, Height: 16}); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("zero buffers: err = %v", err)
	}
}

func TestCreateShaderModule(t *testing.T) {
	d := openNoop(t)
	if _, err := d.CreateShaderModule("empty", nil); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("empty SPIR-V: err = %v", err)
	}
	m, err := d.CreateShaderModule("min", []uint32{0x07230203, 0x00010000, 0, 1, 0})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	d.DestroyShaderModule(m)
}

func TestRankedAdapterSelection(t *testing.T) {
	d, err := OpenNoop(device.Options{Adapter: "does-not-exist"})
	if err != nil {
		t.Fatalf("unmatched preference must still open an adapter: %v", err)
	}
	defer d.Destroy()
	if d.Info().Name == "" {
		t.Error("adapter name empty")
	}
}

// Host provider mocks, shaped like a gogpu application's device provider.

type mockDevice struct{}

func (mockDevice) Poll(bool) {}
func (mockDevice) Destroy()  {}

type mockQueue struct{}

type mockAdapter struct{}

type mockProvider struct {
	dev    hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

func (p *mockProvider) Device() gpucontext.Device { return mockDevice{} }
func (p *mockProvider) Queue() gpucontext.Queue { return mockQueue{} }
func (p *mockProvider) Adapter() gpucontext.Adapter { return mockAdapter{} }
func (p *mockProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }
func (p *mockProvider) HalDevice() any { return p.dev }
func (p *mockProvider) HalQueue() any { return p.queue }

var _ gpucontext.DeviceProvider = (*mockProvider)(nil)

func TestImport(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	defer openDev.Device.Destroy()

	provider := &mockProvider{dev: openDev.Device, queue: openDev.Queue, format: gputypes.TextureFormatRGBA8Unorm}
	d, err := Import(provider)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if d.SurfaceFormat() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat = %v, want provider's", d.SurfaceFormat())
	}
	if _, err := d.CreateTexture(&gpucore.TextureDesc{Width: 4, Height: 4}); err != nil {
		t.Errorf("CreateTexture on imported device: %v", err)
	}
	// Destroy must leave the host's device alone.
	d.Destroy()
	if d.HalDevice() == nil {
		t.Error("imported HAL device released")
	}

	if _, err := Import(struct{}{}); !errors.Is(err, ErrNotHALProvider) {
		t.Errorf("Import(non-provider): err = %v", err)
	}
	bad := &mockProvider{dev: nil, queue: openDev.Queue}
	if _, err := Import(bad); !errors.Is(err, ErrNotHALProvider) {
		t.Errorf("Import(nil HAL device): err = %v", err)
	}
}

func TestRegistered(t *testing.T) {
	names := device.List()
	var vulkan, noopFound bool
	for _, n := range names {
		vulkan = vulkan || n == BackendVulkan
		noopFound = noopFound || n == BackendNoop
	}
	if !vulkan || !noopFound {
		t.Errorf("List() = %v, want vulkan and noop registered", names)
	}

	d, err := device.Open(device.WithBackend(BackendNoop))
	if err != nil {
		t.Fatalf("Open(noop): %v", err)
	}
	d.Destroy()
}

func TestUploadCopies(t *testing.T) {
	d := openNoop(t)
	var events []gpucore.ValidationEvent
	d.SetValidationHook(func(ev gpucore.ValidationEvent) { events = append(events, ev) })

	upload, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "upload", Size: 64, Upload: true})
	if err != nil {
		t.Fatal(err)
	}
	defer upload.Destroy()
	dst, err := d.CreateBuffer(&gpucore.BufferDesc{Label: "dst", Size: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Destroy()
	tex, err := d.CreateTexture(&gpucore.TextureDesc{Label: "tex", Width: 4, Height: 2, ShaderVisible: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()

	if err := d.Queue().WriteBuffer(upload, 0, make([]byte, 32)); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}

	alloc, _ := d.CreateAllocator("a")
	defer alloc.Destroy()
	rec, err := d.CreateRecorder(alloc, "upload")
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Destroy()
	if err := rec.Reset(alloc); err != nil {
		t.Fatal(err)
	}

	rec.Barrier(
		gpucore.Barrier{Resource: upload, Before: gpucore.StateCommon, After: gpucore.StateCopySrc},
		gpucore.Barrier{Resource: dst, Before: gpucore.StateCommon, After: gpucore.StateCopyDst},
		gpucore.Barrier{Resource: tex, Before: gpucore.StateCommon, After: gpucore.StateCopyDst},
	)
	rec.CopyBuffer(dst, 16, upload, 0, 32)
	rec.CopyBufferToTexture(tex, upload, 0, 16)
	if len(events) != 0 {
		t.Fatalf("valid copies reported %v", events)
	}

	rec.CopyBuffer(dst, 48, upload, 0, 32)
	rec.CopyBufferToTexture(tex, upload, 40, 16)
	rec.CopyBufferToTexture(tex, upload, 0, 8)
	rec.CopyBuffer(tex, 0, upload, 0, 4)
	if len(events) != 4 {
		t.Errorf("events = %v, want range, range, row pitch and kind errors", events)
	}

	rec.Barrier(gpucore.Barrier{Resource: tex, Before: gpucore.StateCopyDst, After: gpucore.StateShaderRead})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Queue().Execute(rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func compositeModules(t *testing.T, d *Device) (vs, fs hal.ShaderModule) {
	t.Helper()
	code := []uint32{0x07230203, 0x00010000, 0, 1, 0}
	vs, err := d.CreateShaderModule("vs", code)
	if err != nil {
		t.Fatal(err)
	}
	fs, err = d.CreateShaderModule("fs", code)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		d.DestroyShaderModule(fs)
		d.DestroyShaderModule(vs)
	})
	return vs, fs
}

func TestCompositeDraw(t *testing.T) {
	d := openNoop(t)
	var events []gpucore.ValidationEvent
	d.SetValidationHook(func(ev gpucore.ValidationEvent) { events = append(events, ev) })
	vs, fs := compositeModules(t, d)

	comp, err := d.CreateComposite(&CompositeDesc{
		Label: "composite", Vertex: vs, VertexEntry: "vs_main", Fragment: fs, FragmentEntry: "fs_main",
	})
	if err != nil {
		t.Fatalf("CreateComposite: %v", err)
	}
	defer comp.Destroy()

	scene, err := d.CreateTexture(&gpucore.TextureDesc{Label: "scene", Width: 8, Height: 8, ShaderVisible: true})
	if err != nil {
		t.Fatal(err)
	}
	defer scene.Destroy()
	srv, err := d.CreateView(scene, &gpucore.ViewDesc{Label: "scene", Kind: gpucore.ViewShaderResource})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Destroy()
	target, err := d.CreateTexture(&gpucore.TextureDesc{Label: "bb", Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer target.Destroy()
	rtv, err := d.CreateView(target, &gpucore.ViewDesc{Label: "bb", Kind: gpucore.ViewRenderTarget})
	if err != nil {
		t.Fatal(err)
	}
	defer rtv.Destroy()

	alloc, _ := d.CreateAllocator("a")
	defer alloc.Destroy()
	rec, _ := d.CreateRecorder(alloc, "r")
	defer rec.Destroy()

	if err := comp.Draw(rec, srv); !errors.Is(err, ErrRecorderNotOpen) {
		t.Errorf("Draw on closed recorder: err = %v", err)
	}
	if err := rec.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	rec.SetRenderTargets([]gpucore.View{rtv}, nil)
	for i := 0; i < 2; i++ {
		if err := comp.Draw(rec, srv); err != nil {
			t.Fatalf("Draw %d: %v", i, err)
		}
	}
	if comp.bound != srv.(*View) {
		t.Error("bind group not built for the source view")
	}
	if err := comp.Draw(rec, rtv); !errors.Is(err, ErrInvalidDesc) {
		t.Errorf("Draw from render target view: err = %v", err)
	}

	other := openNoop(t)
	otherAlloc, _ := other.CreateAllocator("a")
	defer otherAlloc.Destroy()
	otherRec, _ := other.CreateRecorder(otherAlloc, "r")
	defer otherRec.Destroy()
	if err := comp.Draw(otherRec, srv); !errors.Is(err, ErrForeignObject) {
		t.Errorf("Draw on foreign recorder: err = %v", err)
	}

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Queue().Execute(rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v", events)
	}
}

func TestCreateCompositeErrors(t *testing.T) {
	d := openNoop(t)
	vs, fs := compositeModules(t, d)

	cases := []struct {
		name string
		desc *CompositeDesc
	}{
		{"nil", nil},
		{"no fragment", &CompositeDesc{Vertex: vs, VertexEntry: "vs_main", FragmentEntry: "fs_main"}},
		{"no entry", &CompositeDesc{Vertex: vs, VertexEntry: "vs_main", Fragment: fs}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := d.CreateComposite(tc.desc); !errors.Is(err, ErrPipeline) {
				t.Errorf("err = %v, want ErrPipeline", err)
			}
		})
	}
}
