// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// FullTurn is one full rotation in radians.
const FullTurn = 2 * math32.Pi

// Transform is a model transform composed of a translation and three
// rotation accumulators in radians.
type Transform struct {
	Translation f32.Vec3
	Rotation    f32.Vec3 // about x, y and z
}

// WorldMatrix composes translation, then rotation about x, then y, then z:
//
//	W = T * Rx * Ry * Rz
//
// A vertex is rotated about z first and translated last.
func (t Transform) WorldMatrix() f32.Mat4 {
	m := Translation(t.Translation)
	m = Mul(m, RotationX(t.Rotation[0]))
	m = Mul(m, RotationY(t.Rotation[1]))
	return Mul(m, RotationZ(t.Rotation[2]))
}

// Advance adds d to the rotation accumulators, wrapping each into [0, FullTurn).
func (t *Transform) Advance(d f32.Vec3) {
	for i := range t.Rotation {
		t.Rotation[i] = wrapAngle(t.Rotation[i] + d[i])
	}
}

// Translate moves the transform by v.
func (t *Transform) Translate(v f32.Vec3) {
	for i := range t.Translation {
		t.Translation[i] += v[i]
	}
}

func wrapAngle(a float32) float32 {
	a = math32.Mod(a, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}
