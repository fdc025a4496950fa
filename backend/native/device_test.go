// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/frame"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/pipeline"
	"github.com/gogpu/g3d/recording"
	"github.com/gogpu/g3d/scene"
)

var testExtent = gpucore.Extent{Width: 320, Height: 240}

// windowSize is a resizable drawable size shared with the device.
type windowSize struct{ v atomic.Uint64 }

func (w *windowSize) set(e gpucore.Extent) { w.v.Store(uint64(e.Width)<<32 | uint64(e.Height)) }

func (w *windowSize) get() gpucore.Extent {
	v := w.v.Load()
	return gpucore.Extent{Width: uint32(v >> 32), Height: uint32(v)}
}

// createNoopDevice opens the noop hal backend behind a resizable window.
func createNoopDevice(t *testing.T) (*Device, *windowSize) {
	t.Helper()
	win := &windowSize{}
	win.set(testExtent)
	d, err := Open(Config{Backend: gputypes.BackendEmpty, Size: win.get})
	require.NoError(t, err)
	t.Cleanup(d.Destroy)
	return d, win
}

func configure(t *testing.T, d *Device, old gpucore.SwapchainID) (gpucore.SwapchainID, []gpucore.TextureViewID) {
	t.Helper()
	sc, images, err := d.ConfigureSwapchain(&gpucore.SwapchainDesc{
		Extent:     testExtent,
		Format:     gputypes.TextureFormatBGRA8Unorm,
		ImageCount: 3,
		Old:        old,
	})
	require.NoError(t, err)
	require.Len(t, images, 3)
	views := make([]gpucore.TextureViewID, len(images))
	for i, img := range images {
		views[i], err = d.CreateTextureView(img)
		require.NoError(t, err)
	}
	return sc, views
}

type drawResources struct {
	pipeline gpucore.RenderPipelineID
	layout   gpucore.PipelineLayoutID
	group    gpucore.BindGroupID
	vertices gpucore.BufferID
}

func createDrawResources(t *testing.T, d *Device) drawResources {
	t.Helper()
	var r drawResources
	bgl, err := d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	require.NoError(t, err)
	r.layout, err = d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}})
	require.NoError(t, err)
	shader, err := d.CreateShaderModule(&gpucore.ShaderModuleDesc{WGSL: pipeline.DefaultShader()})
	require.NoError(t, err)
	r.pipeline, err = d.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Layout:        r.layout,
		Shader:        shader,
		VertexEntry:   pipeline.VertexEntry,
		FragmentEntry: pipeline.FragmentEntry,
		VertexBuffers: pipeline.VertexLayouts(),
		ColorFormat:   gputypes.TextureFormatBGRA8Unorm,
		DepthFormat:   gputypes.TextureFormatDepth16Unorm,
		DepthCompare:  gputypes.CompareFunctionLess,
		DepthWrite:    true,
	})
	require.NoError(t, err)
	uniform, err := d.CreateBuffer(&gpucore.BufferDesc{Size: scene.UniformSize, Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst})
	require.NoError(t, err)
	require.NoError(t, d.WriteBuffer(uniform, 0, make([]byte, scene.UniformSize)))
	r.group, err = d.CreateBindGroup(&gpucore.BindGroupDesc{
		Layout:  bgl,
		Buffers: []gpucore.BufferBinding{{Buffer: uniform, Size: scene.UniformSize}},
	})
	require.NoError(t, err)
	r.vertices, err = d.CreateBuffer(&gpucore.BufferDesc{Size: 36, Usage: gputypes.BufferUsageVertex})
	require.NoError(t, err)
	return r
}

func (r drawResources) sequence(t *testing.T, view gpucore.TextureViewID, image uint32) *recording.Sequence {
	t.Helper()
	seq, err := recording.NewRecorder(gputypes.Color{B: 1, A: 1}, 1).Record(
		recording.Target{Index: image, Color: view, Extent: testExtent},
		recording.Pipeline{ID: r.pipeline},
		r.layout,
		r.group,
		recording.VertexSource{Buffers: []recording.VertexBuffer{{Buffer: r.vertices}}, Count: 3},
	)
	require.NoError(t, err)
	return seq
}

func TestOpenNoop(t *testing.T) {
	d, _ := createNoopDevice(t)
	assert.Equal(t, "noop", d.Name())

	caps, err := d.SurfaceCapabilities()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), caps.MinImageCount)
	assert.Equal(t, uint32(3), caps.MaxImageCount)
	assert.Equal(t, testExtent, caps.CurrentExtent)
	assert.Contains(t, caps.Formats, gputypes.TextureFormatBGRA8Unorm)
	assert.True(t, caps.Supports(testExtent))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: gputypes.BackendBrowserWebGPU})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestFrameLoop(t *testing.T) {
	d, _ := createNoopDevice(t)
	sc, views := configure(t, d, gpucore.InvalidID)
	r := createDrawResources(t, d)

	var indices []uint32
	var last gpucore.Token
	for range 5 {
		img, err := d.AcquireNextImage(sc, time.Second)
		require.NoError(t, err)
		indices = append(indices, img.Index)

		tok, err := d.Submit(&gpucore.SubmitInfo{
			Commands:  r.sequence(t, views[img.Index], img.Index),
			Swapchain: sc,
			Image:     img.Index,
			After:     []gpucore.Token{last},
		})
		require.NoError(t, err)
		assert.Greater(t, tok, last)
		require.NoError(t, d.Present(sc, img.Index, tok))
		last = tok
	}
	assert.Equal(t, []uint32{0, 1, 2, 0, 1}, indices)

	ok, err := d.Wait(last, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d.IsSignaled(last))
	assert.True(t, d.IsSignaled(gpucore.NoToken))
	require.NoError(t, d.WaitIdle())
	assert.Empty(t, d.pending)
}

func TestWaitOnUnknownToken(t *testing.T) {
	d, _ := createNoopDevice(t)
	_, err := d.Wait(42, time.Millisecond)
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
}

func TestAcquireStaleAfterWindowResize(t *testing.T) {
	d, win := createNoopDevice(t)
	sc, _ := configure(t, d, gpucore.InvalidID)

	win.set(gpucore.Extent{Width: 800, Height: 600})
	_, err := d.AcquireNextImage(sc, time.Second)
	assert.True(t, gpucore.IsStale(err))

	caps, err := d.SurfaceCapabilities()
	require.NoError(t, err)
	assert.Equal(t, gpucore.Extent{Width: 800, Height: 600}, caps.CurrentExtent)
}

func TestReconfigureRetiresOldChain(t *testing.T) {
	d, _ := createNoopDevice(t)
	old, _ := configure(t, d, gpucore.InvalidID)
	img, err := d.AcquireNextImage(old, time.Second)
	require.NoError(t, err)

	sc, _ := configure(t, d, old)
	assert.NotEqual(t, old, sc)

	_, err = d.AcquireNextImage(old, time.Second)
	assert.True(t, gpucore.IsStale(err))
	err = d.Present(old, img.Index, gpucore.NoToken)
	assert.ErrorIs(t, err, ErrNotAcquired, "reconfiguring discards acquired textures")

	d.DestroySwapchain(old)
	_, err = d.AcquireNextImage(sc, time.Second)
	assert.NoError(t, err)
}

func TestSubmitRequiresAcquiredImage(t *testing.T) {
	d, _ := createNoopDevice(t)
	sc, views := configure(t, d, gpucore.InvalidID)
	r := createDrawResources(t, d)

	_, err := d.Submit(&gpucore.SubmitInfo{Commands: r.sequence(t, views[1], 1), Swapchain: sc, Image: 1})
	assert.ErrorIs(t, err, ErrNotAcquired)

	img, err := d.AcquireNextImage(sc, time.Second)
	require.NoError(t, err)
	other := (img.Index + 1) % 3
	_, err = d.Submit(&gpucore.SubmitInfo{Commands: r.sequence(t, views[other], other), Swapchain: sc, Image: img.Index})
	assert.ErrorIs(t, err, ErrNotAcquired, "the color view must be the acquired image")
}

func TestPlaybackUnknownResourceFails(t *testing.T) {
	d, _ := createNoopDevice(t)
	sc, views := configure(t, d, gpucore.InvalidID)
	r := createDrawResources(t, d)
	d.DestroyRenderPipeline(r.pipeline)

	img, err := d.AcquireNextImage(sc, time.Second)
	require.NoError(t, err)
	_, err = d.Submit(&gpucore.SubmitInfo{Commands: r.sequence(t, views[img.Index], img.Index), Swapchain: sc, Image: img.Index})
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
	assert.Empty(t, d.pending)
}

func TestInvalidIDs(t *testing.T) {
	d, _ := createNoopDevice(t)
	_, err := d.CreateTextureView(99)
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
	_, err = d.CreateBindGroup(&gpucore.BindGroupDesc{Layout: 99})
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
	_, err = d.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{99}})
	assert.ErrorIs(t, err, gpucore.ErrInvalidID)
	assert.ErrorIs(t, d.WriteBuffer(99, 0, []byte{1}), gpucore.ErrInvalidID)

	// Destroying unknown IDs is silent.
	d.DestroyBuffer(99)
	d.DestroyTexture(99)
	d.DestroyTextureView(99)
	d.DestroySwapchain(99)
}

func TestUseAfterDestroy(t *testing.T) {
	d, _ := createNoopDevice(t)
	d.Destroy()
	d.Destroy()
	_, err := d.CreateBuffer(&gpucore.BufferDesc{Size: 4})
	assert.ErrorIs(t, err, ErrDestroyed)
	_, err = d.SurfaceCapabilities()
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{hal.ErrSurfaceOutdated, gpucore.ErrStale},
		{hal.ErrTimeout, gpucore.ErrNotReady},
		{hal.ErrNotReady, gpucore.ErrNotReady},
		{hal.ErrSurfaceLost, gpucore.ErrSurfaceLost},
		{hal.ErrZeroArea, gpucore.ErrSurfaceLost},
		{hal.ErrDeviceOutOfMemory, gpucore.ErrOutOfMemory},
		{fmt.Errorf("vulkan: %w", hal.ErrDeviceLost), gpucore.ErrDeviceLost},
	}
	for _, tt := range tests {
		t.Run(tt.in.Error(), func(t *testing.T) {
			err := mapError(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.in)
		})
	}
	assert.NoError(t, mapError(nil))
	other := errors.New("other")
	assert.Equal(t, other, mapError(other))
}

func TestSchedulerOnNoop(t *testing.T) {
	d, _ := createNoopDevice(t)
	sc := scene.New()
	mesh, err := scene.Cube().Upload(d)
	require.NoError(t, err)
	defer mesh.Release(d)

	b := pipeline.NewBuilder(d, "", nil)
	sched, err := frame.New(d, b, sc, mesh.Source(), testExtent, frame.DefaultOptions())
	require.NoError(t, err)

	for range 6 {
		sc.Tick()
		ok, err := sched.Draw()
		require.NoError(t, err)
		assert.True(t, ok)
	}
	stats := sched.Stats()
	assert.Equal(t, uint64(6), stats.Presented)
	assert.Equal(t, 3, sched.Slots())
	require.NoError(t, sched.Close())
}
