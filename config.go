// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gframe

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gframe/frame"
	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is returned by Config.Validate and Open.
var ErrInvalidConfig = errors.New("gframe: invalid config")

// Duration is a time.Duration read from TOML strings such as "5s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is fixed when the renderer is opened.
type Config struct {
	// Backend names a registered device backend. Empty picks the best
	// available one.
	Backend string `toml:"backend"`

	// Adapter prefers adapters whose name contains it.
	Adapter string `toml:"adapter"`

	// FramesInFlight is the number of frame contexts.
	FramesInFlight int `toml:"frames_in_flight"`

	// TargetFPS sets the frame budget. Zero disables pacing.
	TargetFPS float64 `toml:"target_fps"`

	Width       uint32 `toml:"width"`
	Height      uint32 `toml:"height"`
	BackBuffers int    `toml:"back_buffers"`

	// Format is the back buffer format: "bgra8unorm", "rgba8unorm" or
	// empty for the device default.
	Format string `toml:"format"`

	ShadowSize   uint32     `toml:"shadow_size"`
	ClearColor   [4]float32 `toml:"clear_color"`
	SyncInterval int        `toml:"sync_interval"`

	// Pipelined keeps frames in flight instead of draining the queue
	// after every present.
	Pipelined bool `toml:"pipelined"`

	// Registry capacities.
	RenderTargets int `toml:"render_targets"`
	DepthStencils int `toml:"depth_stencils"`
	ShaderViews   int `toml:"shader_views"`

	// WaitTimeout bounds fence waits. Zero waits forever.
	WaitTimeout Duration `toml:"wait_timeout"`

	// Debug turns precondition violations into panics and logs backend
	// validation events.
	Debug bool `toml:"debug"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		FramesInFlight: frame.DefaultFrameCount,
		TargetFPS:      60,
		Width:          1280,
		Height:         720,
		BackBuffers:    2,
		ShadowSize:     2048,
		ClearColor:     [4]float32{0, 0, 0, 1},
		SyncInterval:   1,
		RenderTargets:  16,
		DepthStencils:  8,
		ShaderViews:    256,
		WaitTimeout:    Duration(frame.DefaultWaitTimeout),
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("gframe: load config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, strict.String())
		}
		return cfg, fmt.Errorf("gframe: load config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg as TOML.
func (c Config) Save(path string) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("gframe: encode config: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("gframe: save config: %w", err)
	}
	return nil
}

// Validate checks that the configuration can open a renderer.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}
	check(c.FramesInFlight >= 1, "frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	check(c.TargetFPS >= 0, "target_fps must not be negative, got %g", c.TargetFPS)
	check(c.Width > 0 && c.Height > 0, "size %dx%d must be positive", c.Width, c.Height)
	check(c.ShadowSize > 0, "shadow_size must be positive")
	check(c.BackBuffers >= 1, "back_buffers must be at least 1, got %d", c.BackBuffers)
	// The offscreen target plus every back buffer.
	check(c.RenderTargets >= 1+c.BackBuffers, "render_targets %d cannot hold %d back buffers and the offscreen target",
		c.RenderTargets, c.BackBuffers)
	// Shadow map and main depth.
	check(c.DepthStencils >= 2, "depth_stencils must be at least 2, got %d", c.DepthStencils)
	// Companions of the shadow map, offscreen target and main depth.
	check(c.ShaderViews >= 3, "shader_views must be at least 3, got %d", c.ShaderViews)
	check(c.WaitTimeout >= 0, "wait_timeout must not be negative")
	if _, err := parseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseFormat(s string) (gputypes.TextureFormat, error) {
	switch strings.ToLower(s) {
	case "":
		return gputypes.TextureFormatUndefined, nil
	case "bgra8unorm":
		return gputypes.TextureFormatBGRA8Unorm, nil
	case "rgba8unorm":
		return gputypes.TextureFormatRGBA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, s)
	}
}

// Option adjusts a Config before Open.
type Option func(*Config)

// WithBackend selects a device backend by name.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithFramesInFlight sets the number of frame contexts.
func WithFramesInFlight(n int) Option {
	return func(c *Config) { c.FramesInFlight = n }
}

// WithTargetFPS sets the frame budget. Zero disables pacing.
func WithTargetFPS(fps float64) Option {
	return func(c *Config) { c.TargetFPS = fps }
}

// WithSize sets the render target size.
func WithSize(width, height uint32) Option {
	return func(c *Config) { c.Width, c.Height = width, height }
}

// WithPipelined keeps frames in flight between presents.
func WithPipelined(on bool) Option {
	return func(c *Config) { c.Pipelined = on }
}

// WithDebug enables assertions and validation logging.
func WithDebug(on bool) Option {
	return func(c *Config) { c.Debug = on }
}

// WithWaitTimeout bounds fence waits. Zero waits forever.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Config) { c.WaitTimeout = Duration(d) }
}

// With returns a copy of c with opts applied.
func (c Config) With(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
