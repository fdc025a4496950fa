// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/recording"
)

// ErrInvalidMesh is returned when positions, normals and indices disagree.
var ErrInvalidMesh = errors.New("scene: invalid mesh")

// Mesh is indexed triangle-list geometry with one normal per vertex.
type Mesh struct {
	Positions []f32.Vec3
	Normals   []f32.Vec3
	Indices   []uint16
}

// Validate checks that every index refers to an existing vertex.
func (m *Mesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("%w: no vertices", ErrInvalidMesh)
	}
	if len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %d normals for %d positions", ErrInvalidMesh, len(m.Normals), len(m.Positions))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at %d out of range", ErrInvalidMesh, idx, i)
		}
	}
	return nil
}

// Cube returns a unit cube centred on the origin: 24 vertices (four per
// face, so that each face has a flat normal) and 36 indices.
func Cube() *Mesh {
	const h = 0.5
	return &Mesh{
		Positions: []f32.Vec3{
			{-h, -h, h}, {h, -h, h}, {-h, h, h}, {h, h, h}, // front
			{-h, -h, -h}, {h, -h, -h}, {-h, h, -h}, {h, h, -h}, // back
			{-h, -h, h}, {-h, -h, -h}, {-h, h, h}, {-h, h, -h}, // left
			{h, -h, h}, {h, -h, -h}, {h, h, h}, {h, h, -h}, // right
			{-h, -h, -h}, {h, -h, -h}, {-h, -h, h}, {h, -h, h}, // bottom
			{-h, h, -h}, {h, h, -h}, {-h, h, h}, {h, h, h}, // top
		},
		Normals: []f32.Vec3{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
			{0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1},
			{-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0}, {-1, 0, 0},
			{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0},
			{0, -1, 0}, {0, -1, 0}, {0, -1, 0}, {0, -1, 0},
			{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0},
		},
		Indices: []uint16{
			0, 1, 2, 1, 2, 3,
			4, 5, 6, 5, 6, 7,
			8, 9, 10, 9, 10, 11,
			12, 13, 14, 13, 14, 15,
			16, 17, 18, 17, 18, 19,
			20, 21, 22, 21, 22, 23,
		},
	}
}

// GPUMesh is a mesh uploaded to device buffers.
type GPUMesh struct {
	positions gpucore.BufferID
	normals   gpucore.BufferID
	indices   gpucore.BufferID
	count     uint32
}

// Upload copies the mesh into vertex and index buffers.
func (m *Mesh) Upload(alloc gpucore.Allocator) (*GPUMesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	g := &GPUMesh{}
	var err error
	if g.positions, err = uploadBuffer(alloc, "mesh positions", vec3Bytes(m.Positions), gputypes.BufferUsageVertex); err != nil {
		return nil, err
	}
	if g.normals, err = uploadBuffer(alloc, "mesh normals", vec3Bytes(m.Normals), gputypes.BufferUsageVertex); err != nil {
		g.Release(alloc)
		return nil, err
	}
	if len(m.Indices) > 0 {
		if g.indices, err = uploadBuffer(alloc, "mesh indices", indexBytes(m.Indices), gputypes.BufferUsageIndex); err != nil {
			g.Release(alloc)
			return nil, err
		}
		g.count = uint32(len(m.Indices))
	} else {
		g.count = uint32(len(m.Positions))
	}
	return g, nil
}

// Source describes the buffers for a draw: positions in slot 0 and
// normals in slot 1.
func (g *GPUMesh) Source() recording.VertexSource {
	src := recording.VertexSource{
		Buffers: []recording.VertexBuffer{{Buffer: g.positions}, {Buffer: g.normals}},
		Count:   g.count,
	}
	if g.indices != gpucore.InvalidID {
		src.Index = g.indices
		src.IndexFormat = gputypes.IndexFormatUint16
	}
	return src
}

// Release destroys the buffers.
func (g *GPUMesh) Release(alloc gpucore.Allocator) {
	alloc.DestroyBuffer(g.positions)
	alloc.DestroyBuffer(g.normals)
	alloc.DestroyBuffer(g.indices)
	*g = GPUMesh{}
}

func uploadBuffer(alloc gpucore.Allocator, label string, data []byte, usage gputypes.BufferUsage) (gpucore.BufferID, error) {
	id, err := alloc.CreateBuffer(&gpucore.BufferDesc{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("scene: create %s: %w", label, err)
	}
	if err := alloc.WriteBuffer(id, 0, data); err != nil {
		alloc.DestroyBuffer(id)
		return gpucore.InvalidID, fmt.Errorf("scene: write %s: %w", label, err)
	}
	return id, nil
}

func vec3Bytes(vs []f32.Vec3) []byte {
	buf := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		for _, c := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
		}
	}
	return buf
}

// indexBytes packs uint16 indices, padded to a multiple of four bytes
// as buffer writes require.
func indexBytes(idx []uint16) []byte {
	buf := make([]byte, 0, (len(idx)*2+3)&^3)
	for _, i := range idx {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}
