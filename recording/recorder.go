// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
)

// MaxVertexBuffers is the number of vertex buffer slots a sequence may bind.
const MaxVertexBuffers = 8

// Recording errors.
var (
	ErrInvalidTarget = errors.New("recording: invalid render target")
	ErrNoPipeline    = errors.New("recording: no pipeline")
	ErrNoDescriptor  = errors.New("recording: no descriptor")
	ErrEmptyVertices = errors.New("recording: empty vertex source")
)

// Target is the render target a sequence draws into.
type Target struct {
	// Index is the swapchain image index.
	Index uint32

	// Generation identifies the swapchain build the target belongs to.
	Generation uint64

	Color  gpucore.TextureViewID
	Depth  gpucore.TextureViewID // InvalidID without depth
	Extent gpucore.Extent
}

// Pipeline identifies a render pipeline build.
type Pipeline struct {
	ID         gpucore.RenderPipelineID
	Generation uint64
}

// VertexBuffer is a buffer bound to a vertex slot.
type VertexBuffer struct {
	Buffer gpucore.BufferID
	Offset uint64
}

// VertexSource describes the geometry of a draw. Buffers are bound to
// slots 0..len-1. When Index is set, Count is the index count; otherwise
// it is the vertex count.
type VertexSource struct {
	Buffers     []VertexBuffer
	Index       gpucore.BufferID
	IndexFormat gputypes.IndexFormat
	IndexOffset uint64
	Count       uint32
}

// Indexed reports whether the source draws through an index buffer.
func (v *VertexSource) Indexed() bool { return v.Index != gpucore.InvalidID }

// Key identifies the inputs a Sequence was recorded against.
// Keys are comparable with ==.
type Key struct {
	Target     Target
	Pipeline   Pipeline
	Layout     gpucore.PipelineLayoutID
	Descriptor gpucore.BindGroupID

	buffers     [MaxVertexBuffers]VertexBuffer
	numBuffers  int
	index       gpucore.BufferID
	indexFormat gputypes.IndexFormat
	indexOffset uint64
	count       uint32
}

// MakeKey returns the Key of a sequence recorded from the given inputs.
func MakeKey(target Target, pipeline Pipeline, layout gpucore.PipelineLayoutID,
	descriptor gpucore.BindGroupID, vertices VertexSource) Key {
	k := Key{
		Target:      target,
		Pipeline:    pipeline,
		Layout:      layout,
		Descriptor:  descriptor,
		numBuffers:  len(vertices.Buffers),
		index:       vertices.Index,
		indexFormat: vertices.IndexFormat,
		indexOffset: vertices.IndexOffset,
		count:       vertices.Count,
	}
	copy(k.buffers[:], vertices.Buffers)
	return k
}

// Recorder records draw sequences. The zero value clears to transparent
// black; use NewRecorder for explicit clear values.
//
// A Recorder holds no per-sequence state and may be reused freely.
type Recorder struct {
	ClearColor gputypes.Color
	ClearDepth float32
}

// NewRecorder creates a Recorder with the given clear values.
func NewRecorder(clearColor gputypes.Color, clearDepth float32) *Recorder {
	return &Recorder{ClearColor: clearColor, ClearDepth: clearDepth}
}

// Record produces a sequence that binds pipeline, descriptor and vertices
// and issues exactly one draw covering the whole vertex source.
func (r *Recorder) Record(target Target, pipeline Pipeline, layout gpucore.PipelineLayoutID,
	descriptor gpucore.BindGroupID, vertices VertexSource) (*Sequence, error) {
	switch {
	case target.Color == gpucore.InvalidID || target.Extent.IsZero():
		return nil, fmt.Errorf("%w: image %d extent %v", ErrInvalidTarget, target.Index, target.Extent)
	case pipeline.ID == gpucore.InvalidID || layout == gpucore.InvalidID:
		return nil, ErrNoPipeline
	case descriptor == gpucore.InvalidID:
		return nil, ErrNoDescriptor
	case vertices.Count == 0 || len(vertices.Buffers) == 0:
		return nil, ErrEmptyVertices
	case len(vertices.Buffers) > MaxVertexBuffers:
		return nil, fmt.Errorf("%w: %d vertex buffers exceed %d slots",
			ErrEmptyVertices, len(vertices.Buffers), MaxVertexBuffers)
	}

	cmds := make([]Command, 0, 5+len(vertices.Buffers))
	cmds = append(cmds,
		SetViewportCommand{
			Width:    float32(target.Extent.Width),
			Height:   float32(target.Extent.Height),
			MaxDepth: 1,
		},
		SetPipelineCommand{Pipeline: pipeline.ID},
		SetBindGroupCommand{Index: 0, Group: descriptor},
	)
	for slot, vb := range vertices.Buffers {
		if vb.Buffer == gpucore.InvalidID {
			return nil, fmt.Errorf("%w: slot %d has no buffer", ErrEmptyVertices, slot)
		}
		cmds = append(cmds, SetVertexBufferCommand{Slot: uint32(slot), Buffer: vb.Buffer, Offset: vb.Offset})
	}
	if vertices.Indexed() {
		cmds = append(cmds,
			SetIndexBufferCommand{Buffer: vertices.Index, Format: vertices.IndexFormat, Offset: vertices.IndexOffset},
			DrawIndexedCommand{IndexCount: vertices.Count, InstanceCount: 1},
		)
	} else {
		cmds = append(cmds, DrawCommand{VertexCount: vertices.Count, InstanceCount: 1})
	}

	return &Sequence{
		key: MakeKey(target, pipeline, layout, descriptor, vertices),
		pass: gpucore.PassDesc{
			Color:      target.Color,
			Depth:      target.Depth,
			ClearColor: r.ClearColor,
			ClearDepth: r.ClearDepth,
		},
		commands: cmds,
	}, nil
}

// Sequence is an immutable, replayable command sequence for one render pass.
// It implements gpucore.Commands.
type Sequence struct {
	key      Key
	pass     gpucore.PassDesc
	commands []Command
}

// Key returns the inputs the sequence was recorded against.
func (s *Sequence) Key() Key { return s.key }

// Target returns the render target the sequence draws into.
func (s *Sequence) Target() Target { return s.key.Target }

// Pass implements gpucore.Commands.
func (s *Sequence) Pass() gpucore.PassDesc { return s.pass }

// Len returns the number of commands.
func (s *Sequence) Len() int { return len(s.commands) }

// Commands returns a copy of the recorded commands.
func (s *Sequence) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Playback replays the commands onto enc. It implements gpucore.Commands.
func (s *Sequence) Playback(enc gpucore.RenderPassEncoder) error {
	for _, cmd := range s.commands {
		if err := replay(enc, cmd); err != nil {
			return err
		}
	}
	return nil
}

// String lists the command types, e.g. "[SetViewport SetPipeline ... DrawIndexed]".
func (s *Sequence) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, cmd := range s.commands {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(cmd.Type().String())
	}
	b.WriteByte(']')
	return b.String()
}
