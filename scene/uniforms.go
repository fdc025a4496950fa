// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"encoding/binary"
	"math"

	"golang.org/x/image/math/f32"
)

// UniformSize is the size in bytes of a packed Uniforms block.
const UniformSize = 3 * 16 * 4

// Uniforms is the per-frame uniform block read by the vertex shader.
type Uniforms struct {
	World f32.Mat4
	View  f32.Mat4
	Proj  f32.Mat4
}

// Bytes packs the matrices column-major as little-endian float32,
// matching a WGSL struct of three mat4x4<f32>.
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	for _, m := range [...]*f32.Mat4{&u.World, &u.View, &u.Proj} {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(m[r*4+c]))
			}
		}
	}
	return buf
}
