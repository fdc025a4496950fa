// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Camera is a perspective camera in a right-handed world.
type Camera struct {
	Eye    f32.Vec3
	Target f32.Vec3
	Up     f32.Vec3

	FovY float32 // vertical field of view in radians
	Near float32
	Far  float32
}

// DefaultCamera looks from (0,0,1) at the origin with a 90° field of view.
func DefaultCamera() Camera {
	return Camera{
		Eye:  f32.Vec3{0, 0, 1},
		Up:   f32.Vec3{0, 1, 0},
		FovY: math32.Pi / 2,
		Near: 0.01,
		Far:  100,
	}
}

// View returns the right-handed look-at matrix.
func (c Camera) View() f32.Mat4 {
	f := normalize(sub(c.Target, c.Eye))
	s := normalize(cross(f, c.Up))
	u := cross(s, f)
	return f32.Mat4{
		s[0], s[1], s[2], -dot(s, c.Eye),
		u[0], u[1], u[2], -dot(u, c.Eye),
		-f[0], -f[1], -f[2], dot(f, c.Eye),
		0, 0, 0, 1,
	}
}

// Projection returns a right-handed perspective projection that maps view
// depth [-Near, -Far] to clip depth [0, 1], as WebGPU and Vulkan expect.
func (c Camera) Projection(aspect float32) f32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	f := 1 / math32.Tan(c.FovY/2)
	r := c.Far / (c.Near - c.Far)
	return f32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, r, r * c.Near,
		0, 0, -1, 0,
	}
}
