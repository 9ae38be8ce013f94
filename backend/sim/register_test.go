// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/gogpu/gframe/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestOpenByName(t *testing.T) {
	buf := captureLog(t)
	d, err := device.Open(device.WithBackend(BackendName))
	require.NoError(t, err)
	defer d.Destroy()
	assert.IsType(t, &Device{}, d)
	assert.Empty(t, buf.String(), "explicit selection is not a fallback")
}

func TestOpenRejectsShared(t *testing.T) {
	_, err := device.Open(device.WithBackend(BackendName), device.WithShared(struct{}{}))
	assert.ErrorIs(t, err, ErrSharedUnsupported)

	_, err = open(device.Options{Shared: struct{}{}})
	assert.ErrorIs(t, err, ErrSharedUnsupported)
}

func TestFallbackWarns(t *testing.T) {
	buf := captureLog(t)
	d, err := open(device.Options{})
	require.NoError(t, err)
	defer d.Destroy()
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no GPU backend available")
}
