// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package views

import (
	"errors"
	"fmt"

	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
)

// Registry errors.
var (
	// ErrDuplicateName is returned when a name is already registered.
	ErrDuplicateName = errors.New("views: name already registered")

	// ErrCapacityExhausted is returned when no slots remain.
	ErrCapacityExhausted = errors.New("views: capacity exhausted")

	// ErrNotFound is returned when an operation names an unknown entry.
	ErrNotFound = errors.New("views: no such entry")

	// ErrStateMismatch is returned when a barrier's before-state differs
	// from the tracked state.
	ErrStateMismatch = errors.New("views: before-state does not match tracked state")

	// ErrInvalidTransition is returned for transitions the resource kind
	// does not allow.
	ErrInvalidTransition = errors.New("views: invalid state transition")

	// ErrNotWritable is returned when clearing a resource that is not in
	// its write state.
	ErrNotWritable = errors.New("views: resource is not in a writable state")

	// ErrUnsupported is returned for operations the registry kind does
	// not provide.
	ErrUnsupported = errors.New("views: operation not supported by registry kind")

	// ErrNoCompanion is returned when a companion view is requested but
	// no shader-resource registry is linked.
	ErrNoCompanion = errors.New("views: no shader-resource registry linked")
)

// NoSlot marks an entry without a companion view.
const NoSlot = -1

// Desc describes a registry entry.
type Desc struct {
	Width  uint32
	Height uint32

	// Format defaults to RGBA8Unorm for color and Depth24PlusStencil8 for
	// depth entries.
	Format gputypes.TextureFormat

	// InitialState is the tracked state of the new entry. Left at
	// StateCommon for a created resource, it defaults to the registry's
	// write state (render target or depth write) or shader read.
	InitialState gpucore.ResourceState

	// Resource registers an existing resource instead of creating one.
	// The registry does not destroy resources it did not create.
	Resource gpucore.Resource

	// Companion also registers a shader-readable view of the resource,
	// under the same name, in the linked shader-resource registry.
	Companion bool
}

// Entry is a snapshot of a registered view.
type Entry struct {
	Name     string
	Slot     int
	Resource gpucore.Resource
	View     gpucore.View
	State    gpucore.ResourceState

	// Companion is the slot of the shader-resource companion, or NoSlot.
	Companion int
}

type entry struct {
	name      string
	slot      int
	resource  gpucore.Resource
	view      gpucore.View
	state     *gpucore.ResourceState
	companion int
	owned     bool
}

func (e *entry) snapshot() Entry {
	return Entry{
		Name:      e.name,
		Slot:      e.slot,
		Resource:  e.resource,
		View:      e.view,
		State:     *e.state,
		Companion: e.companion,
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithCompanions links the shader-resource registry that receives
// companion views.
func WithCompanions(srv *Registry) Option {
	return func(r *Registry) { r.srv = srv }
}

// WithAssertions makes precondition violations panic.
func WithAssertions(on bool) Option {
	return func(r *Registry) { r.assertions = on }
}

// Registry is a fixed-capacity table of named views of one kind.
type Registry struct {
	kind gpucore.ViewKind
	dev  gpucore.Device

	table  []*entry
	byName map[string]*entry
	next   int

	srv        *Registry
	assertions bool
}

// New creates a registry of kind with room for capacity slots.
func New(kind gpucore.ViewKind, dev gpucore.Device, capacity int, opts ...Option) (*Registry, error) {
	switch kind {
	case gpucore.ViewRenderTarget, gpucore.ViewDepthStencil, gpucore.ViewShaderResource:
	default:
		return nil, fmt.Errorf("%w: %v registry", ErrUnsupported, kind)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("views: %v capacity must be positive, got %d", kind, capacity)
	}
	r := &Registry{
		kind:   kind,
		dev:    dev,
		table:  make([]*entry, capacity),
		byName: make(map[string]*entry, capacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.srv != nil && r.srv.kind != gpucore.ViewShaderResource {
		return nil, fmt.Errorf("views: companion registry is %v, want SRV", r.srv.kind)
	}
	return r, nil
}

// Kind returns the registry's view kind.
func (r *Registry) Kind() gpucore.ViewKind { return r.kind }

// Capacity returns the fixed slot count.
func (r *Registry) Capacity() int { return len(r.table) }

// Len returns the number of named entries.
func (r *Registry) Len() int { return len(r.byName) }

// NextSlot returns the slot the next Create or Allocate will hand out.
func (r *Registry) NextSlot() int { return r.next }

// Names returns the registered names in slot order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, e := range r.table[:r.next] {
		if e != nil {
			names = append(names, e.name)
		}
	}
	return names
}

// Create registers name and returns its slot. Unless desc.Resource is
// set, the backing resource is created first.
func (r *Registry) Create(name string, desc *Desc) (int, error) {
	if desc == nil {
		desc = &Desc{}
	}
	if _, ok := r.byName[name]; ok {
		return NoSlot, r.fail(fmt.Errorf("%w: %v %q", ErrDuplicateName, r.kind, name))
	}
	if r.next >= len(r.table) {
		return NoSlot, r.fail(fmt.Errorf("%w: %v %q needs slot %d of %d", ErrCapacityExhausted, r.kind, name, r.next, len(r.table)))
	}
	if desc.Companion {
		if r.srv == nil {
			return NoSlot, r.fail(fmt.Errorf("%w: %q", ErrNoCompanion, name))
		}
		if _, ok := r.srv.byName[name]; ok {
			return NoSlot, r.fail(fmt.Errorf("%w: SRV companion %q", ErrDuplicateName, name))
		}
		if r.srv.next >= len(r.srv.table) {
			return NoSlot, r.fail(fmt.Errorf("%w: SRV companion %q", ErrCapacityExhausted, name))
		}
	}

	res, state, owned, err := r.resource(name, desc)
	if err != nil {
		return NoSlot, err
	}
	view, err := r.dev.CreateView(res, &gpucore.ViewDesc{Label: name, Kind: r.kind})
	if err != nil {
		if owned {
			res.Destroy()
		}
		return NoSlot, fmt.Errorf("views: create %v view %q: %w", r.kind, name, err)
	}

	e := &entry{
		name:      name,
		slot:      r.next,
		resource:  res,
		view:      view,
		state:     &state,
		companion: NoSlot,
		owned:     owned,
	}
	if desc.Companion {
		slot, err := r.srv.adopt(name, res, e.state)
		if err != nil {
			view.Destroy()
			if owned {
				res.Destroy()
			}
			return NoSlot, err
		}
		e.companion = slot
	}
	r.table[e.slot] = e
	r.byName[name] = e
	r.next++

	slogger().Debug("views: created", "kind", r.kind, "name", name, "slot", e.slot, "state", state)
	return e.slot, nil
}

// adopt registers a shader-resource view of a resource owned by another
// registry, sharing its tracked state.
func (r *Registry) adopt(name string, res gpucore.Resource, state *gpucore.ResourceState) (int, error) {
	view, err := r.dev.CreateView(res, &gpucore.ViewDesc{Label: name, Kind: gpucore.ViewShaderResource})
	if err != nil {
		return NoSlot, fmt.Errorf("views: create companion view %q: %w", name, err)
	}
	e := &entry{name: name, slot: r.next, resource: res, view: view, state: state, companion: NoSlot}
	r.table[e.slot] = e
	r.byName[name] = e
	r.next++
	return e.slot, nil
}

func (r *Registry) resource(name string, desc *Desc) (gpucore.Resource, gpucore.ResourceState, bool, error) {
	if desc.Resource != nil {
		return desc.Resource, desc.InitialState, false, nil
	}

	td := &gpucore.TextureDesc{
		Label:         name,
		Width:         desc.Width,
		Height:        desc.Height,
		Format:        desc.Format,
		ShaderVisible: desc.Companion,
		InitialState:  desc.InitialState,
	}
	switch r.kind {
	case gpucore.ViewRenderTarget:
		if td.Format == gputypes.TextureFormatUndefined {
			td.Format = gputypes.TextureFormatRGBA8Unorm
		}
		if td.InitialState == gpucore.StateCommon {
			td.InitialState = gpucore.StateRenderTarget
		}
	case gpucore.ViewDepthStencil:
		td.Depth = true
		if td.Format == gputypes.TextureFormatUndefined {
			td.Format = gputypes.TextureFormatDepth24PlusStencil8
		}
		if td.InitialState == gpucore.StateCommon {
			td.InitialState = gpucore.StateDepthWrite
		}
	case gpucore.ViewShaderResource:
		td.ShaderVisible = true
		if td.Format == gputypes.TextureFormatUndefined {
			td.Format = gputypes.TextureFormatRGBA8Unorm
		}
		if td.InitialState == gpucore.StateCommon {
			td.InitialState = gpucore.StateShaderRead
		}
	}
	res, err := r.dev.CreateTexture(td)
	if err != nil {
		return nil, 0, false, fmt.Errorf("views: create %v texture %q: %w", r.kind, name, err)
	}
	return res, td.InitialState, true, nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.byName[name]
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// GetByIndex returns the entry at slot. Slots reserved by Allocate have
// no entry.
func (r *Registry) GetByIndex(slot int) (Entry, bool) {
	if slot < 0 || slot >= r.next || r.table[slot] == nil {
		return Entry{}, false
	}
	return r.table[slot].snapshot(), true
}

// State returns the tracked state of name.
func (r *Registry) State(name string) (gpucore.ResourceState, bool) {
	e, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return *e.state, true
}

// TransitionBarrier records a barrier moving name from before to after
// and updates the tracked state. before must equal the tracked state.
func (r *Registry) TransitionBarrier(rec gpucore.Recorder, name string, before, after gpucore.ResourceState) error {
	e, ok := r.byName[name]
	if !ok {
		return r.fail(fmt.Errorf("%w: %v %q", ErrNotFound, r.kind, name))
	}
	if *e.state != before {
		slogger().Error("views: state mismatch",
			"kind", r.kind, "name", name, "tracked", *e.state, "before", before, "after", after)
		return r.fail(fmt.Errorf("%w: %v %q is %v, barrier says %v", ErrStateMismatch, r.kind, name, *e.state, before))
	}
	if !gpucore.CanTransition(e.resource.Kind(), before, after) {
		return r.fail(fmt.Errorf("%w: %v %q %v -> %v", ErrInvalidTransition, r.kind, name, before, after))
	}
	rec.Barrier(gpucore.Barrier{Resource: e.resource, Before: before, After: after})
	*e.state = after
	return nil
}

// Transition moves name to after from whatever state it is tracked in.
// It records nothing when name is already in after.
func (r *Registry) Transition(rec gpucore.Recorder, name string, after gpucore.ResourceState) error {
	e, ok := r.byName[name]
	if !ok {
		return r.fail(fmt.Errorf("%w: %v %q", ErrNotFound, r.kind, name))
	}
	if *e.state == after {
		return nil
	}
	return r.TransitionBarrier(rec, name, *e.state, after)
}

// Clear records a clear of name. Render targets must be in
// StateRenderTarget and depth buffers in StateDepthWrite.
func (r *Registry) Clear(name string, rec gpucore.Recorder, value gpucore.ClearValue) error {
	e, ok := r.byName[name]
	if !ok {
		return r.fail(fmt.Errorf("%w: %v %q", ErrNotFound, r.kind, name))
	}
	switch r.kind {
	case gpucore.ViewRenderTarget:
		if *e.state != gpucore.StateRenderTarget {
			return r.fail(fmt.Errorf("%w: %v %q is %v", ErrNotWritable, r.kind, name, *e.state))
		}
		rec.ClearColor(e.view, value.Color)
	case gpucore.ViewDepthStencil:
		if *e.state != gpucore.StateDepthWrite {
			return r.fail(fmt.Errorf("%w: %v %q is %v", ErrNotWritable, r.kind, name, *e.state))
		}
		rec.ClearDepth(e.view, value.Depth, value.Stencil)
	default:
		return fmt.Errorf("%w: clear on %v", ErrUnsupported, r.kind)
	}
	return nil
}

// Allocate reserves count contiguous slots without creating views and
// returns the first. Only shader-resource registries allocate.
func (r *Registry) Allocate(count int) (int, error) {
	if r.kind != gpucore.ViewShaderResource {
		return NoSlot, fmt.Errorf("%w: allocate on %v", ErrUnsupported, r.kind)
	}
	if count < 1 {
		return NoSlot, fmt.Errorf("views: allocate count must be positive, got %d", count)
	}
	if r.next+count > len(r.table) {
		return NoSlot, r.fail(fmt.Errorf("%w: %d slots requested, %d free", ErrCapacityExhausted, count, len(r.table)-r.next))
	}
	first := r.next
	r.next += count
	slogger().Debug("views: allocated", "first", first, "count", count)
	return first, nil
}

// Destroy releases every view and the resources the registry created.
func (r *Registry) Destroy() {
	for i, e := range r.table[:r.next] {
		if e == nil {
			continue
		}
		e.view.Destroy()
		if e.owned {
			e.resource.Destroy()
		}
		r.table[i] = nil
	}
	clear(r.byName)
}

func (r *Registry) fail(err error) error {
	if r.assertions {
		panic(err)
	}
	return err
}
