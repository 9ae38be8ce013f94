// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gframe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gframe/backend/sim"
	"github.com/gogpu/gframe/device"
	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/passes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		assert.False(t, h.Enabled(context.Background(), level), "level %v", level)
	}
	assert.NoError(t, h.Handle(context.Background(), slog.Record{}))
	assert.IsType(t, nopHandler{}, h.WithAttrs(nil))
	assert.IsType(t, nopHandler{}, h.WithGroup("g"))
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	r, err := Open(testConfig())
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), 1, passes.Draws{}))
	require.NoError(t, r.Close())

	out := buf.String()
	for _, want := range []string{
		"gframe: renderer opened", // root
		"device: opened",          // device
		"frame: initialized",      // frame
		"views: created",          // views
		"passes: targets created", // passes
	} {
		assert.Contains(t, out, want)
	}

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}

func testConfig() Config {
	return DefaultConfig().With(
		WithBackend(sim.BackendName),
		WithTargetFPS(0),
		WithSize(64, 48),
		WithWaitTimeout(time.Second),
	)
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, frame.DefaultFrameCount, DefaultConfig().FramesInFlight)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  func(*Config)
	}{
		{"no frames", func(c *Config) { c.FramesInFlight = 0 }},
		{"negative fps", func(c *Config) { c.TargetFPS = -1 }},
		{"zero size", func(c *Config) { c.Width = 0 }},
		{"no back buffers", func(c *Config) { c.BackBuffers = 0 }},
		{"rtv too small", func(c *Config) { c.RenderTargets = c.BackBuffers }},
		{"dsv too small", func(c *Config) { c.DepthStencils = 1 }},
		{"srv too small", func(c *Config) { c.ShaderViews = 2 }},
		{"unknown format", func(c *Config) { c.Format = "r5g6b5" }},
		{"negative timeout", func(c *Config) { c.WaitTimeout = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig().With(tt.opt)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gframe.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend = "sim"
frames_in_flight = 3
target_fps = 120
width = 800
height = 600
format = "rgba8unorm"
wait_timeout = "250ms"
clear_color = [0.1, 0.2, 0.3, 1.0]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, 3, cfg.FramesInFlight)
	assert.InDelta(t, 120, cfg.TargetFPS, 1e-9)
	assert.Equal(t, uint32(800), cfg.Width)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.WaitTimeout)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, cfg.ClearColor)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultConfig().ShaderViews, cfg.ShaderViews)

	saved := filepath.Join(dir, "saved.toml")
	require.NoError(t, cfg.Save(saved))
	again, err := LoadConfig(saved)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("frames_in_flite = 2\n"), 0o644))
	_, err = LoadConfig(unknown)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("frames_in_flight = 0\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	badDuration := filepath.Join(dir, "duration.toml")
	require.NoError(t, os.WriteFile(badDuration, []byte(`wait_timeout = "soon"`), 0o644))
	_, err = LoadConfig(badDuration)
	assert.Error(t, err)
}

func TestOpenRunClose(t *testing.T) {
	var events []gpucore.ValidationEvent
	r, err := Open(testConfig(), WithValidation(func(ev gpucore.ValidationEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, err)

	dev, ok := r.Device().(*sim.Device)
	require.True(t, ok, "device is %T", r.Device())

	var scenes int
	err = r.Run(context.Background(), 4, passes.Draws{
		Scene: func(rc *passes.RenderContext, rec gpucore.Recorder) error {
			scenes++
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, scenes)
	assert.Equal(t, 4, r.Context().FrameIndex())
	assert.Equal(t, uint64(4), r.Stats().Frames)
	assert.Empty(t, events)
	assert.Zero(t, r.ValidationEvents())
	assert.Empty(t, dev.Events())

	for i := 0; i < r.Frames().FrameCount(); i++ {
		assert.NotEqual(t, frame.Submitted, r.Frames().State(i))
	}

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.RenderFrame(context.Background(), passes.Draws{}), ErrClosed)
}

func TestOpenValidationCounted(t *testing.T) {
	var got []string
	r, err := Open(testConfig(), WithValidation(func(ev gpucore.ValidationEvent) {
		got = append(got, ev.Message)
	}))
	require.NoError(t, err)
	defer r.Close()

	// Clearing a target outside a recording is reported by the device.
	rec := r.Context().Recorder()
	entry, ok := r.Context().RTV.Get(passes.Offscreen)
	require.True(t, ok)
	rec.ClearColor(entry.View, [4]float32{})

	assert.Equal(t, uint64(1), r.ValidationEvents())
	require.Len(t, got, 1)
	assert.True(t, strings.Contains(got[0], "closed"), got[0])
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(DefaultConfig().With(WithFramesInFlight(0)))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Open(testConfig().With(WithBackend("no-such-backend")))
	var nf *device.BackendNotFoundError
	assert.True(t, errors.As(err, &nf), "err = %v", err)
}

func TestOpenWithShaders(t *testing.T) {
	r, err := Open(testConfig(), WithShaders(os.DirFS("shader/testdata")))
	require.NoError(t, err)
	defer r.Close()
	require.NotNil(t, r.Shaders())

	r2, err := Open(testConfig())
	require.NoError(t, err)
	defer r2.Close()
	assert.Nil(t, r2.Shaders())
}

func TestPipelinedConfig(t *testing.T) {
	r, err := Open(testConfig().With(WithPipelined(true), WithFramesInFlight(3)))
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Context().Config.Pipelined)
	require.NoError(t, r.Run(context.Background(), 6, passes.Draws{}))
	assert.Equal(t, 3, r.Frames().FrameCount())
}
