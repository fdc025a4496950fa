// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/recording"
)

// fixture holds the minimum resources for a valid submission.
type fixture struct {
	d        *Device
	sc       gpucore.SwapchainID
	images   []gpucore.TextureID
	views    []gpucore.TextureViewID
	pipeline gpucore.RenderPipelineID
	layout   gpucore.PipelineLayoutID
	group    gpucore.BindGroupID
	uniform  gpucore.BufferID
	vertices gpucore.BufferID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	d := New(opts...)
	f := &fixture{d: d}

	var err error
	extent := gpucore.Extent{Width: 64, Height: 64}
	f.sc, f.images, err = d.ConfigureSwapchain(&gpucore.SwapchainDesc{
		Extent:     extent,
		Format:     gputypes.TextureFormatBGRA8Unorm,
		ImageCount: 3,
	})
	require.NoError(t, err)
	for _, img := range f.images {
		v, err := d.CreateTextureView(img)
		require.NoError(t, err)
		f.views = append(f.views, v)
	}

	bgl, err := d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{})
	require.NoError(t, err)
	f.layout, err = d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}})
	require.NoError(t, err)
	shader, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{SPIRV: []uint32{0x07230203}})
	require.NoError(t, err)
	f.pipeline, err = d.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Layout:      f.layout,
		Shader:      shader,
		ColorFormat: gputypes.TextureFormatBGRA8Unorm,
	})
	require.NoError(t, err)

	f.uniform, err = d.CreateBuffer(&gpucore.BufferDesc{Size: 192, Usage: gputypes.BufferUsageUniform})
	require.NoError(t, err)
	f.group, err = d.CreateBindGroup(&gpucore.BindGroupDesc{
		Layout:  bgl,
		Buffers: []gpucore.BufferBinding{{Buffer: f.uniform, Size: 192}},
	})
	require.NoError(t, err)
	f.vertices, err = d.CreateBuffer(&gpucore.BufferDesc{Size: 36, Usage: gputypes.BufferUsageVertex})
	require.NoError(t, err)
	return f
}

func (f *fixture) sequence(t *testing.T, image uint32) *recording.Sequence {
	t.Helper()
	seq, err := (&recording.Recorder{}).Record(
		recording.Target{Index: image, Color: f.views[image], Extent: gpucore.Extent{Width: 64, Height: 64}},
		recording.Pipeline{ID: f.pipeline},
		f.layout,
		f.group,
		recording.VertexSource{Buffers: []recording.VertexBuffer{{Buffer: f.vertices}}, Count: 3},
	)
	require.NoError(t, err)
	return seq
}

// frame acquires, submits and presents one image.
func (f *fixture) frame(t *testing.T) gpucore.Token {
	t.Helper()
	img, err := f.d.AcquireNextImage(f.sc, 0)
	require.NoError(t, err)
	tok, err := f.d.Submit(&gpucore.SubmitInfo{Commands: f.sequence(t, img.Index), Swapchain: f.sc, Image: img.Index})
	require.NoError(t, err)
	require.NoError(t, f.d.Present(f.sc, img.Index, tok))
	return tok
}

func TestAcquireRoundRobin(t *testing.T) {
	f := newFixture(t)
	var got []uint32
	for range 5 {
		img, err := f.d.AcquireNextImage(f.sc, 0)
		require.NoError(t, err)
		got = append(got, img.Index)
	}
	assert.Equal(t, []uint32{0, 1, 2, 0, 1}, got)

	f.d.SetAcquireOrder(2, 2)
	img, err := f.d.AcquireNextImage(f.sc, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), img.Index)
}

func TestSubmitCompletesAfterLatency(t *testing.T) {
	f := newFixture(t, WithLatency(2))
	t1 := f.frame(t)
	t2 := f.frame(t)
	assert.False(t, f.d.IsSignaled(t1))
	t3 := f.frame(t)
	assert.True(t, f.d.IsSignaled(t1))
	assert.False(t, f.d.IsSignaled(t2))
	assert.False(t, f.d.IsSignaled(t3))
	assert.Equal(t, 2, f.d.MaxInFlight())
	assert.True(t, f.d.IsSignaled(gpucore.NoToken))

	ok, err := f.d.Wait(t3, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, f.d.IsSignaled(t2))
	assert.Equal(t, 0, f.d.InFlight())
	assert.Empty(t, f.d.Violations())
}

func TestWaitStallRounds(t *testing.T) {
	f := newFixture(t, WithLatency(10), WithStallRounds(2))
	tok := f.frame(t)

	for range 2 {
		ok, err := f.d.Wait(tok, 0)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := f.d.Wait(tok, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	waits := f.d.EventsOf(OpWait)
	require.Len(t, waits, 3)
	assert.True(t, waits[0].TimedOut)
	assert.False(t, waits[2].TimedOut)

	_, err = f.d.Wait(tok+5, 0)
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
}

func TestDestroyInFlightIsViolation(t *testing.T) {
	f := newFixture(t, WithLatency(10))
	f.frame(t)

	f.d.DestroyBindGroup(f.group)
	require.Len(t, f.d.Violations(), 1)
	assert.Contains(t, f.d.Violations()[0], "bind group")

	require.NoError(t, f.d.WaitIdle())
	f.d.DestroyBuffer(f.vertices)
	assert.Len(t, f.d.Violations(), 1)
}

func TestWriteInFlightIsViolation(t *testing.T) {
	f := newFixture(t, WithLatency(10))
	f.frame(t)
	require.NoError(t, f.d.WriteBuffer(f.uniform, 0, make([]byte, 64)))
	assert.Len(t, f.d.Violations(), 1)

	assert.Error(t, f.d.WriteBuffer(f.uniform, 0, make([]byte, 3)), "unaligned")
	assert.Error(t, f.d.WriteBuffer(f.uniform, 128, make([]byte, 128)), "overflow")
}

func TestSubmitRejectsWrongImage(t *testing.T) {
	f := newFixture(t)
	img, err := f.d.AcquireNextImage(f.sc, 0)
	require.NoError(t, err)

	other := (img.Index + 1) % 3
	_, err = f.d.Submit(&gpucore.SubmitInfo{Commands: f.sequence(t, other), Swapchain: f.sc, Image: img.Index})
	require.ErrorIs(t, err, gpucore.ErrInvalidID)
	assert.NotEmpty(t, f.d.Violations())
}

func TestSurfaceResizeMakesChainStale(t *testing.T) {
	f := newFixture(t)
	f.d.SetSurfaceExtent(gpucore.Extent{Width: 128, Height: 64})

	_, err := f.d.AcquireNextImage(f.sc, 0)
	assert.ErrorIs(t, err, gpucore.ErrStale)

	sc2, _, err := f.d.ConfigureSwapchain(&gpucore.SwapchainDesc{
		Extent:     gpucore.Extent{Width: 128, Height: 64},
		Format:     gputypes.TextureFormatBGRA8Unorm,
		ImageCount: 3,
		Old:        f.sc,
	})
	require.NoError(t, err)
	_, err = f.d.AcquireNextImage(sc2, 0)
	require.NoError(t, err)

	// The replaced chain stays stale even at a matching extent.
	f.d.SetSurfaceExtent(gpucore.Extent{})
	_, err = f.d.AcquireNextImage(f.sc, 0)
	assert.ErrorIs(t, err, gpucore.ErrStale)
}

func TestDestroySwapchainWithLiveViews(t *testing.T) {
	f := newFixture(t)
	f.d.DestroySwapchain(f.sc)
	assert.Len(t, f.d.Violations(), 3)
	assert.Equal(t, 0, f.d.LiveSwapchains())
}

func TestInjectedFailures(t *testing.T) {
	f := newFixture(t)

	f.d.InjectAcquireErrors(gpucore.ErrNotReady)
	_, err := f.d.AcquireNextImage(f.sc, 0)
	assert.ErrorIs(t, err, gpucore.ErrNotReady)

	f.d.InjectPresentErrors(gpucore.ErrStale)
	img, err := f.d.AcquireNextImage(f.sc, 0)
	require.NoError(t, err)
	tok, err := f.d.Submit(&gpucore.SubmitInfo{Commands: f.sequence(t, img.Index), Swapchain: f.sc, Image: img.Index})
	require.NoError(t, err)
	assert.ErrorIs(t, f.d.Present(f.sc, img.Index, tok), gpucore.ErrStale)

	f.d.SetSuboptimal(1)
	img, err = f.d.AcquireNextImage(f.sc, 0)
	require.NoError(t, err)
	assert.True(t, img.Suboptimal)

	f.d.FailConfigure(gpucore.ErrOutOfMemory)
	_, _, err = f.d.ConfigureSwapchain(&gpucore.SwapchainDesc{
		Extent: gpucore.Extent{Width: 8, Height: 8}, ImageCount: 3,
	})
	assert.ErrorIs(t, err, gpucore.ErrOutOfMemory)

	_, _, err = f.d.ConfigureSwapchain(&gpucore.SwapchainDesc{
		Extent: gpucore.Extent{Width: 1 << 20, Height: 8}, ImageCount: 3,
	})
	assert.ErrorIs(t, err, gpucore.ErrSurfaceLost)

	f.d.LoseDevice()
	_, err = f.d.AcquireNextImage(f.sc, 0)
	assert.ErrorIs(t, err, gpucore.ErrDeviceLost)
	_, err = f.d.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	assert.ErrorIs(t, err, gpucore.ErrDeviceLost)
}

func TestSurfaceSizeFollowsWindow(t *testing.T) {
	size := gpucore.Extent{Width: 64, Height: 64}
	f := newFixture(t, WithSurfaceSize(func() gpucore.Extent { return size }))
	f.frame(t)

	size = gpucore.Extent{Width: 32, Height: 32}
	caps, err := f.d.SurfaceCapabilities()
	require.NoError(t, err)
	assert.Equal(t, size, caps.CurrentExtent)
	_, err = f.d.AcquireNextImage(f.sc, 0)
	assert.ErrorIs(t, err, gpucore.ErrStale)
}
