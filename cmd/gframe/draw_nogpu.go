// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build nogpu

package main

import (
	"github.com/gogpu/gframe"
	"github.com/gogpu/gframe/passes"
)

// compositeDraw only validates the composite shader; without GPU backends
// there is nothing to draw into.
func compositeDraw(r *gframe.Renderer) (passes.DrawFunc, func(), error) {
	if _, err := r.Shaders().Module("composite.wgsl", "fs_main"); err != nil {
		return nil, nil, err
	}
	return nil, func() {}, nil
}
