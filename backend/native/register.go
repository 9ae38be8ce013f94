// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func init() {
	device.Register(BackendVulkan, 100, func(opts device.Options) (gpucore.Device, error) {
		if opts.Shared != nil {
			return Import(opts.Shared)
		}
		return OpenVulkan(opts)
	}, func() bool {
		_, ok := hal.GetBackend(gputypes.BackendVulkan)
		return ok
	})

	device.Register(BackendNoop, 1, func(opts device.Options) (gpucore.Device, error) {
		if opts.Shared != nil {
			return Import(opts.Shared)
		}
		return OpenNoop(opts)
	}, nil)
}
