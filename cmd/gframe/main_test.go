// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/gogpu/gframe"
	"github.com/gogpu/gframe/backend/sim"
)

func testConfig() gframe.Config {
	return gframe.DefaultConfig().With(
		gframe.WithBackend(sim.BackendName),
		gframe.WithTargetFPS(0),
		gframe.WithSize(32, 32),
	)
}

func TestRunBuiltinShaders(t *testing.T) {
	shaders, err := fs.Sub(builtinShaders, "shaders")
	if err != nil {
		t.Fatal(err)
	}
	if err := run(testConfig(), shaders, 3); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunMissingShader(t *testing.T) {
	if err := run(testConfig(), fstest.MapFS{}, 1); err == nil {
		t.Fatal("run succeeded without composite.wgsl")
	}
}
