// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/backend/sim"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/native"
	"github.com/gogpu/g3d/swapchain"
)

const spirvMagic = 0x07230203

// fakeCompile stands in for naga so that builder tests do not depend on
// the shader compiler.
func fakeCompile(calls *int) native.CompileFunc {
	return func(wgsl string) ([]uint32, error) {
		*calls++
		if strings.Contains(wgsl, "syntax error") {
			return nil, errors.New("parse error")
		}
		return []uint32{spirvMagic, uint32(len(wgsl))}, nil
	}
}

var testLayout = swapchain.TargetLayout{
	ColorFormat: gputypes.TextureFormatBGRA8Unorm,
	DepthFormat: gputypes.TextureFormatDepth16Unorm,
}

func TestBuild(t *testing.T) {
	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))
	viewport := gpucore.Extent{Width: 640, Height: 480}

	s, err := b.Build(testLayout, viewport)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Generation)
	assert.True(t, s.Matches(testLayout, viewport))
	assert.False(t, s.Matches(testLayout, gpucore.Extent{Width: 1, Height: 1}))
	assert.Equal(t, s.Pipeline, s.Recording().ID)
	assert.Equal(t, s.Generation, s.Recording().Generation)
	assert.Equal(t, 1, dev.LivePipelines())
	assert.False(t, b.Dirty())

	s2, err := b.Build(testLayout, gpucore.Extent{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s2.Generation)
	assert.Equal(t, 1, calls, "unchanged source is compiled once")
	assert.Equal(t, 1, b.Compilations())

	s.Release(dev)
	s2.Release(dev)
	assert.Equal(t, 0, dev.LivePipelines())
	assert.Empty(t, dev.Violations())
}

func TestBuildWithoutDepth(t *testing.T) {
	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))
	layout := swapchain.TargetLayout{ColorFormat: gputypes.TextureFormatRGBA8Unorm}

	s, err := b.Build(layout, gpucore.Extent{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.False(t, s.Layout.HasDepth())
	s.Release(dev)
}

func TestSetSourceMarksDirty(t *testing.T) {
	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))

	b.SetSource(DefaultShader())
	assert.False(t, b.Dirty(), "same source")

	b.SetSource(DefaultShader() + "\n// edited\n")
	assert.True(t, b.Dirty())

	s, err := b.Build(testLayout, gpucore.Extent{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.False(t, b.Dirty())
	assert.Equal(t, 1, calls)
	s.Release(dev)
}

func TestBuildCompileError(t *testing.T) {
	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))
	b.SetSource("syntax error")
	require.True(t, b.Dirty())

	_, err := b.Build(testLayout, gpucore.Extent{Width: 8, Height: 8})
	require.ErrorIs(t, err, ErrCompile)
	assert.Equal(t, 0, dev.LivePipelines())
	assert.False(t, b.Dirty(), "a broken source waits for the next edit")

	b.SetSource("")
	_, err = b.Build(testLayout, gpucore.Extent{Width: 8, Height: 8})
	assert.ErrorIs(t, err, ErrEmptyShader)
}

func TestBuildAllocationFailureReleases(t *testing.T) {
	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))

	// Shader, uniform layout and pipeline layout succeed; the pipeline fails.
	dev.FailNthAllocation(4, gpucore.ErrOutOfMemory)
	_, err := b.Build(testLayout, gpucore.Extent{Width: 8, Height: 8})
	require.ErrorIs(t, err, gpucore.ErrOutOfMemory)
	assert.Equal(t, 0, dev.LivePipelines())

	s, err := b.Build(testLayout, gpucore.Extent{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Generation, "failed builds do not consume a generation")
	s.Release(dev)
}

func TestDefaultShaderCompiles(t *testing.T) {
	code, err := native.CompileShaderToSPIRV(DefaultShader())
	require.NoError(t, err)
	require.NotEmpty(t, code)
	assert.Equal(t, uint32(spirvMagic), code[0])
}

func TestVertexLayouts(t *testing.T) {
	layouts := VertexLayouts()
	require.Len(t, layouts, 2)
	for i, l := range layouts {
		assert.Equal(t, uint64(12), l.ArrayStride)
		require.Len(t, l.Attributes, 1)
		assert.Equal(t, uint32(i), l.Attributes[0].ShaderLocation)
	}
}

func TestWatchShader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(DefaultShader()), 0o600))

	dev := sim.New()
	var calls int
	b := NewBuilder(dev, "", fakeCompile(&calls))
	w, err := WatchShader(b, path)
	require.NoError(t, err)
	defer w.Close()
	assert.False(t, b.Dirty(), "initial content equals the default shader")

	edited := DefaultShader() + "\n// tinted\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o600))
	assert.Eventually(t, b.Dirty, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatchShaderMissingFile(t *testing.T) {
	b := NewBuilder(sim.New(), "", nil)
	_, err := WatchShader(b, filepath.Join(t.TempDir(), "missing.wgsl"))
	assert.Error(t, err)
}
