// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"fmt"

	"github.com/gogpu/gframe/gpucore"
)

// CreateBuffer creates a host-visible upload buffer of size bytes.
// Loaders write content into it and copy it to device-local resources
// through the recorder.
func (m *Manager) CreateBuffer(size uint64) (gpucore.Resource, error) {
	return m.createBuffer("UploadBuffer", size, true)
}

// CreateUAVBuffer creates a device-local buffer of size bytes in the
// unordered access state.
func (m *Manager) CreateUAVBuffer(size uint64) (gpucore.Resource, error) {
	return m.createBuffer("UAVBuffer", size, false)
}

func (m *Manager) createBuffer(label string, size uint64, upload bool) (gpucore.Resource, error) {
	if size == 0 {
		return nil, fmt.Errorf("frame: create %s: size must be positive", label)
	}
	buf, err := m.dev.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: size, Upload: upload})
	if err != nil {
		return nil, fmt.Errorf("frame: create %s of %d bytes: %w", label, size, err)
	}
	slogger().Debug("frame: buffer created", "label", label, "size", size)
	return buf, nil
}

// WriteBuffer copies data into upload buffer b at offset. Copies recorded
// afterwards through Recorder see the new contents.
func (m *Manager) WriteBuffer(b gpucore.Resource, offset uint64, data []byte) error {
	if err := m.dev.Queue().WriteBuffer(b, offset, data); err != nil {
		return fmt.Errorf("frame: write %s: %w", b.Label(), err)
	}
	return nil
}
