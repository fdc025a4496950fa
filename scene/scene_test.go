// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/g3d/backend/sim"
	"github.com/gogpu/g3d/gpucore"
)

func TestNewSceneDefaultPose(t *testing.T) {
	s := New()
	world := s.WorldTransform()
	assert.InDelta(t, -5, world[11], eps)
	assert.InDelta(t, FullTurn-0.3, s.Model.Rotation[1], 1e-5)

	v0 := s.Version()
	s.Tick()
	assert.Equal(t, v0+1, s.Version())
	assert.InDelta(t, FullTurn-0.1, s.Model.Rotation[0], 1e-5)
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := New()
	u := s.Snapshot(gpucore.Extent{Width: 800, Height: 600})
	before := u.World
	s.Tick()
	assert.Equal(t, before, u.World)
	assert.NotEqual(t, u.World, s.WorldTransform())
}

func TestCameraView(t *testing.T) {
	c := DefaultCamera()
	v := c.View()
	// The eye maps to the origin and the target lies on -z.
	assertVec(t, f32.Vec3{0, 0, 0}, Apply(v, c.Eye))
	assertVec(t, f32.Vec3{0, 0, -1}, Apply(v, c.Target))
}

func TestCameraProjectionDepthRange(t *testing.T) {
	c := DefaultCamera()
	p := c.Projection(2)

	ndcZ := func(z float32) float32 {
		return (p[10]*z + p[11]) / (p[14] * z)
	}
	assert.InDelta(t, 0, ndcZ(-c.Near), 1e-4)
	assert.InDelta(t, 1, ndcZ(-c.Far), 1e-4)

	f := 1 / math32.Tan(c.FovY/2)
	assert.InDelta(t, f/2, p[0], eps)
	assert.InDelta(t, f, p[5], eps)

	// Non-positive aspect falls back to square.
	assert.InDelta(t, f, c.Projection(0)[0], eps)
}

func TestUniformBytesColumnMajor(t *testing.T) {
	u := Uniforms{
		World: Translation(f32.Vec3{1, 2, 3}),
		View:  Identity(),
		Proj:  Identity(),
	}
	b := u.Bytes()
	require.Len(t, b, UniformSize)

	at := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])) }
	// Column 3 of World holds the translation.
	assert.Equal(t, float32(1), at(12))
	assert.Equal(t, float32(2), at(13))
	assert.Equal(t, float32(3), at(14))
	assert.Equal(t, float32(1), at(15))
	// View starts at float 16.
	assert.Equal(t, float32(1), at(16))
}

func TestCubeMesh(t *testing.T) {
	m := Cube()
	require.NoError(t, m.Validate())
	assert.Len(t, m.Positions, 24)
	assert.Len(t, m.Normals, 24)
	assert.Len(t, m.Indices, 36)
	for i, n := range m.Normals {
		assert.InDeltaf(t, 1, math32.Sqrt(dot(n, n)), eps, "normal %d", i)
		// Every vertex lies on the face its normal points out of.
		assert.InDeltaf(t, 0.5, dot(m.Positions[i], n), eps, "vertex %d", i)
	}
}

func TestMeshValidate(t *testing.T) {
	assert.ErrorIs(t, (&Mesh{}).Validate(), ErrInvalidMesh)
	assert.ErrorIs(t, (&Mesh{
		Positions: []f32.Vec3{{0, 0, 0}},
		Normals:   nil,
	}).Validate(), ErrInvalidMesh)
	assert.ErrorIs(t, (&Mesh{
		Positions: []f32.Vec3{{0, 0, 0}},
		Normals:   []f32.Vec3{{0, 0, 1}},
		Indices:   []uint16{0, 1},
	}).Validate(), ErrInvalidMesh)
}

func TestMeshUpload(t *testing.T) {
	dev := sim.New()
	t.Cleanup(dev.Destroy)

	g, err := Cube().Upload(dev)
	require.NoError(t, err)

	src := g.Source()
	assert.Len(t, src.Buffers, 2)
	assert.Equal(t, uint32(36), src.Count)
	assert.NotEqual(t, gpucore.BufferID(gpucore.InvalidID), src.Index)
	assert.Equal(t, 3, dev.LiveBuffers())

	data := dev.BufferData(src.Index)
	require.Len(t, data, 72)
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(data[5*2:]))

	g.Release(dev)
	assert.Equal(t, 0, dev.LiveBuffers())
}

func TestMeshUploadAllocationFailure(t *testing.T) {
	dev := sim.New()
	t.Cleanup(dev.Destroy)
	// Positions succeed, normals fail: the positions buffer must not leak.
	dev.FailNthAllocation(2, gpucore.ErrOutOfMemory)

	_, err := Cube().Upload(dev)
	require.ErrorIs(t, err, gpucore.ErrOutOfMemory)
	assert.Equal(t, 0, dev.LiveBuffers())
}
