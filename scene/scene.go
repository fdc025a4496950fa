// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene holds the per-frame scene state of the g3d engine: the model
// transform, the camera and the uniform block uploaded for every frame.
//
// Scene is touched only by the goroutine driving the draw cycle and is not
// safe for concurrent use.
package scene

import (
	"golang.org/x/image/math/f32"

	"github.com/gogpu/g3d/gpucore"
)

// Scene is the mutable transform and camera state updated once per frame.
type Scene struct {
	Model  Transform
	Camera Camera

	// Step is the rotation applied by Tick.
	Step f32.Vec3

	// version is incremented on each mutation.
	version uint64
}

// New creates the default scene: the model pushed 5 units away from the
// camera, turned by -0.3 rad about y, spinning -0.1 rad about x per frame.
func New() *Scene {
	s := &Scene{
		Camera: DefaultCamera(),
		Step:   f32.Vec3{-0.1, 0, 0},
	}
	s.Model.Translate(f32.Vec3{0, 0, -5})
	s.Model.Advance(f32.Vec3{0, -0.3, 0})
	return s
}

// WorldTransform returns the model matrix T * Rx * Ry * Rz.
func (s *Scene) WorldTransform() f32.Mat4 { return s.Model.WorldMatrix() }

// Advance adds d to the rotation accumulators modulo a full turn.
func (s *Scene) Advance(d f32.Vec3) {
	s.Model.Advance(d)
	s.version++
}

// Tick advances the rotation by Step.
func (s *Scene) Tick() { s.Advance(s.Step) }

// Snapshot captures the uniforms for a frame drawn at extent.
// The returned value does not alias the scene.
func (s *Scene) Snapshot(extent gpucore.Extent) Uniforms {
	return Uniforms{
		World: s.WorldTransform(),
		View:  s.Camera.View(),
		Proj:  s.Camera.Projection(extent.Aspect()),
	}
}

// Version returns a counter that changes whenever the scene is mutated.
func (s *Scene) Version() uint64 { return s.version }
