// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import "github.com/gogpu/gframe/gpucore"

// Options are passed to backend factories.
type Options struct {
	// Backend selects a registered backend by name. Empty picks the best
	// available one.
	Backend string

	// Adapter, if set, prefers adapters whose name contains it.
	Adapter string

	// Validation receives backend validation events.
	Validation gpucore.ValidationHook

	// Shared, if set, is a host-provided device handle the backend should
	// import instead of opening its own device. Backends that cannot
	// import it return an error.
	Shared any
}

// Option configures Open.
type Option func(*Options)

// WithBackend selects a backend by name.
func WithBackend(name string) Option {
	return func(o *Options) { o.Backend = name }
}

// WithAdapter prefers adapters whose name contains name.
func WithAdapter(name string) Option {
	return func(o *Options) { o.Adapter = name }
}

// WithValidation installs h on the opened device.
func WithValidation(h gpucore.ValidationHook) Option {
	return func(o *Options) { o.Validation = h }
}

// WithShared asks the backend to wrap a device owned by the host
// application, such as a gpucontext.DeviceProvider.
func WithShared(provider any) Option {
	return func(o *Options) { o.Shared = provider }
}
