// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command gframe renders a fixed number of headless frames through the
// shadow, offscreen and back buffer passes and prints frame statistics.
package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/gframe"
	"github.com/gogpu/gframe/passes"
	"github.com/pkg/profile"
)

//go:embed shaders/*.wgsl
var builtinShaders embed.FS

func main() {
	var (
		configPath = flag.String("config", "", "TOML configuration file")
		backend    = flag.String("backend", "", "device backend (vulkan, noop, sim)")
		frames     = flag.Int("frames", 300, "frames to render, 0 to run until interrupted")
		fps        = flag.Float64("fps", -1, "target frame rate, 0 disables pacing")
		shaderDir  = flag.String("shaders", "", "directory with composite.wgsl (default: built in)")
		cpuProfile = flag.String("profile", "", "write a CPU profile to this directory")
		debug      = flag.Bool("debug", false, "debug logging and assertions")
	)
	flag.Parse()

	if *cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProfile), profile.Quiet).Stop()
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	gframe.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := gframe.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = gframe.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *backend != "" {
		cfg = cfg.With(gframe.WithBackend(*backend))
	}
	if *fps >= 0 {
		cfg = cfg.With(gframe.WithTargetFPS(*fps))
	}
	if *debug {
		cfg = cfg.With(gframe.WithDebug(true))
	}

	var shaders fs.FS
	if *shaderDir != "" {
		shaders = os.DirFS(*shaderDir)
	} else {
		sub, err := fs.Sub(builtinShaders, "shaders")
		if err != nil {
			log.Fatalf("Failed to open built-in shaders: %v", err)
		}
		shaders = sub
	}

	if err := run(cfg, shaders, *frames); err != nil {
		log.Fatalf("gframe: %v", err)
	}
}

func run(cfg gframe.Config, shaders fs.FS, frames int) error {
	r, err := gframe.Open(cfg, gframe.WithShaders(shaders))
	if err != nil {
		return err
	}
	defer r.Close()

	composite, release, err := compositeDraw(r)
	if err != nil {
		return err
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = r.Run(ctx, frames, passes.Draws{Composite: composite})
	if err != nil && ctx.Err() == nil {
		return err
	}

	info := r.Device().Info()
	s := r.Stats()
	fmt.Printf("%s (%s): %d frames\n", info.Name, info.Backend, r.Context().FrameIndex())
	fmt.Printf("  fps      %.1f\n", s.FPS())
	fmt.Printf("  average  %v\n", s.Average)
	fmt.Printf("  max      %v\n", s.Max)
	fmt.Printf("  resyncs  %d\n", s.Resyncs)
	if n := r.ValidationEvents(); n > 0 {
		fmt.Printf("  validation events  %d\n", n)
	}
	return nil
}
