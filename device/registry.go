// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gframe/gpucore"
)

// Factory opens a device with the given options.
type Factory func(opts Options) (gpucore.Device, error)

// Entry is a registered backend.
type Entry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	Priority int

	// Factory opens devices.
	Factory Factory

	// Available reports whether the backend can run on this system.
	Available func() bool
}

// globalRegistry is the default registry.
var globalRegistry = NewRegistry()

// Registry manages registered device backends.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
// Most code uses the global registry via Register and Open.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a backend to the global registry.
// If available is nil, the backend is assumed always available.
// Registering an existing name replaces the previous entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names, highest priority first.
func List() []string {
	return globalRegistry.List()
}

// Available returns the available backend names, highest priority first.
func Available() []string {
	return globalRegistry.Available()
}

// Open opens a device from the global registry.
func Open(opts ...Option) (gpucore.Device, error) {
	return globalRegistry.Open(opts...)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	cp := *e
	return &cp, true
}

// List returns all registered backend names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the available backend names, highest priority first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Open opens a device. With WithBackend the named backend is used;
// otherwise every available backend is tried in priority order and the
// first that opens wins. The validation hook, if any, is installed on
// the returned device.
func (r *Registry) Open(opts ...Option) (gpucore.Device, error) {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		dev gpucore.Device
		err error
	)
	if o.Backend != "" {
		dev, err = r.openByName(o.Backend, o)
	} else {
		dev, err = r.openBest(o)
	}
	if err != nil {
		return nil, err
	}

	if o.Validation != nil {
		dev.SetValidationHook(o.Validation)
	}
	info := dev.Info()
	slogger().Info("device: opened",
		"backend", info.Backend,
		"adapter", info.Name,
		"type", info.Type,
		"validation", o.Validation != nil)
	return dev, nil
}

func (r *Registry) openBest(o Options) (gpucore.Device, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}
	var errs []error
	for _, name := range names {
		dev, err := r.openByName(name, o)
		if err == nil {
			return dev, nil
		}
		slogger().Warn("device: backend failed, trying next", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoBackendAvailable, errors.Join(errs...))
}

func (r *Registry) openByName(name string, o Options) (gpucore.Device, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	dev, err := e.Factory(o)
	if err != nil {
		return nil, fmt.Errorf("device: open %s: %w", name, err)
	}
	return dev, nil
}

// sortedNames returns backend names by priority (highest first), ties by
// name. Must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Errors.
var (
	// ErrNoBackendAvailable is returned when no backend is registered or
	// none could open a device.
	ErrNoBackendAvailable = errors.New("device: no backend available")

	// ErrNoAdapter is returned by backends that found no usable adapter.
	ErrNoAdapter = errors.New("device: no suitable adapter")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "device: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but is not available.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "device: backend unavailable: " + e.Name
}
