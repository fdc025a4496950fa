// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/pipeline"
	"github.com/gogpu/g3d/recording"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/swapchain"
)

// SlotState is the state of a frame slot.
type SlotState uint8

const (
	// SlotIdle means no submission of the slot is outstanding.
	SlotIdle SlotState = iota

	// SlotInFlight means the slot's last submission has a completion
	// token that was not observed signaled yet.
	SlotInFlight
)

func (s SlotState) String() string {
	if s == SlotInFlight {
		return "InFlight"
	}
	return "Idle"
}

// lease is a reference-counted value that is released once it has been
// superseded and no in-flight frame holds it.
type lease[T any] struct {
	value    T
	refs     int
	retired  bool
	released bool
	release  func(T)
}

func newLease[T any](v T, release func(T)) *lease[T] {
	return &lease[T]{value: v, release: release}
}

func (l *lease[T]) hold() { l.refs++ }

func (l *lease[T]) drop() {
	l.refs--
	l.collect()
}

// retire marks the lease superseded.
func (l *lease[T]) retire() {
	l.retired = true
	l.collect()
}

func (l *lease[T]) collect() {
	if l.retired && l.refs == 0 && !l.released {
		l.released = true
		l.release(l.value)
	}
}

// chainSet is one swapchain build with its render targets.
type chainSet struct {
	state   *swapchain.State
	targets *swapchain.Targets
}

// uniforms is one uniform buffer and the bind group exposing it.
type uniforms struct {
	buffer   gpucore.BufferID
	group    gpucore.BindGroupID
	pipeline uint64 // generation of the pipeline whose layout it matches
}

func newUniforms(alloc gpucore.Allocator, p *pipeline.State, label string) (*uniforms, error) {
	buf, err := alloc.CreateBuffer(&gpucore.BufferDesc{
		Label: label,
		Size:  scene.UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("frame: create uniform buffer: %w", err)
	}
	group, err := alloc.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  label,
		Layout: p.UniformLayout,
		Buffers: []gpucore.BufferBinding{{
			Binding: 0,
			Buffer:  buf,
			Size:    scene.UniformSize,
		}},
	})
	if err != nil {
		alloc.DestroyBuffer(buf)
		return nil, fmt.Errorf("frame: create uniform bind group: %w", err)
	}
	return &uniforms{buffer: buf, group: group, pipeline: p.Generation}, nil
}

func (u *uniforms) release(alloc gpucore.Allocator) {
	alloc.DestroyBindGroup(u.group)
	alloc.DestroyBuffer(u.buffer)
}

// record is one submitted frame. It keeps everything the submission
// references alive until its token signals.
type record struct {
	token gpucore.Token
	slot  int
	chain *lease[*chainSet]
	pipe  *lease[*pipeline.State]

	// uniform is owned by the record; nil when the slot owns it.
	uniform *uniforms
}

// slot is the per-image state.
type slot struct {
	index    int
	inflight *record

	// uniform is the slot's own allocation under UniformPerSlot.
	uniform *uniforms

	cache recording.Cache
}

func (s *slot) state() SlotState {
	if s.inflight != nil {
		return SlotInFlight
	}
	return SlotIdle
}
