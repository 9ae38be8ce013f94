// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package present

import (
	"testing"

	"github.com/gogpu/gframe/backend/sim"
	"github.com/gogpu/gframe/gpucore"
	"github.com/gogpu/gframe/views"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChain(t *testing.T, dev *sim.Device, n int) *Chain {
	t.Helper()
	c, err := NewChain(dev, &gpucore.SwapChainDesc{
		Label: "swap", Width: 320, Height: 240,
		Format: gputypes.TextureFormatBGRA8Unorm, BufferCount: n,
	})
	require.NoError(t, err)
	return c
}

func TestChainRotates(t *testing.T) {
	dev := sim.New()
	c := newChain(t, dev, 3)
	assert.Equal(t, 3, c.BufferCount())
	assert.Len(t, c.BackBuffers(), 3)

	for i := 0; i < 4; i++ {
		assert.Equal(t, i%3, c.CurrentBackBufferIndex())
		require.NoError(t, c.Present(1))
	}
	assert.Empty(t, dev.Events())
}

func TestRegisterBackBuffers(t *testing.T) {
	dev := sim.New()
	c := newChain(t, dev, 2)
	rtv, err := views.New(gpucore.ViewRenderTarget, dev, 8)
	require.NoError(t, err)

	require.NoError(t, c.RegisterBackBuffers(rtv))
	assert.Equal(t, []string{"BackBuffer0", "BackBuffer1"}, rtv.Names())
	e, ok := rtv.Get(c.CurrentBackBufferName())
	require.True(t, ok)
	assert.Equal(t, gpucore.StatePresent, e.State)
	assert.Same(t, c.BackBuffers()[0], e.Resource)

	assert.ErrorIs(t, c.RegisterBackBuffers(rtv), views.ErrDuplicateName)
}

func TestNewChainErrors(t *testing.T) {
	_, err := NewChain(sim.New(), &gpucore.SwapChainDesc{Width: 1, Height: 1})
	assert.ErrorIs(t, err, sim.ErrInvalidDesc)
}
