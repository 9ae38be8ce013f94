// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/gpucore"
)

// BackendName is the name the simulated backend registers under.
const BackendName = "sim"

func init() {
	device.Register(BackendName, 10, open, nil)
}

// open is the registry factory. A simulated device cannot import a host
// device, and picking it without asking for it means no GPU backend
// opened.
func open(opts device.Options) (gpucore.Device, error) {
	if opts.Shared != nil {
		return nil, ErrSharedUnsupported
	}
	if opts.Backend == "" {
		slogger().Warn("sim: no GPU backend available, rendering into the simulated device")
	}
	return New(), nil
}
