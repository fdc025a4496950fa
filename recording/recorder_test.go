// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/gpucore"
)

// captureEncoder records every call it receives as a string.
type captureEncoder struct {
	calls []string
	draws int
}

func (e *captureEncoder) SetPipeline(p gpucore.RenderPipelineID) {
	e.calls = append(e.calls, fmt.Sprintf("pipeline %d", p))
}

func (e *captureEncoder) SetBindGroup(i uint32, g gpucore.BindGroupID) {
	e.calls = append(e.calls, fmt.Sprintf("bindgroup %d %d", i, g))
}

func (e *captureEncoder) SetVertexBuffer(slot uint32, b gpucore.BufferID, off uint64) {
	e.calls = append(e.calls, fmt.Sprintf("vertex %d %d %d", slot, b, off))
}

func (e *captureEncoder) SetIndexBuffer(b gpucore.BufferID, f gputypes.IndexFormat, off uint64) {
	e.calls = append(e.calls, fmt.Sprintf("index %d %v %d", b, f, off))
}

func (e *captureEncoder) SetViewport(x, y, w, h, minD, maxD float32) {
	e.calls = append(e.calls, fmt.Sprintf("viewport %g %g %g %g %g %g", x, y, w, h, minD, maxD))
}

func (e *captureEncoder) Draw(vc, ic, fv, fi uint32) {
	e.draws++
	e.calls = append(e.calls, fmt.Sprintf("draw %d %d %d %d", vc, ic, fv, fi))
}

func (e *captureEncoder) DrawIndexed(ic, inst, fi uint32, bv int32, finst uint32) {
	e.draws++
	e.calls = append(e.calls, fmt.Sprintf("drawindexed %d %d %d %d %d", ic, inst, fi, bv, finst))
}

func testInputs() (Target, Pipeline, gpucore.PipelineLayoutID, gpucore.BindGroupID, VertexSource) {
	target := Target{
		Index:      1,
		Generation: 3,
		Color:      10,
		Depth:      11,
		Extent:     gpucore.Extent{Width: 640, Height: 480},
	}
	pipeline := Pipeline{ID: 20, Generation: 1}
	vertices := VertexSource{
		Buffers:     []VertexBuffer{{Buffer: 30}, {Buffer: 31}},
		Index:       32,
		IndexFormat: gputypes.IndexFormatUint16,
		Count:       36,
	}
	return target, pipeline, 40, 50, vertices
}

func TestRecordIndexed(t *testing.T) {
	rec := NewRecorder(gputypes.Color{B: 1, A: 1}, 1)
	target, pipeline, layout, desc, vertices := testInputs()

	seq, err := rec.Record(target, pipeline, layout, desc, vertices)
	require.NoError(t, err)

	enc := &captureEncoder{}
	require.NoError(t, seq.Playback(enc))
	assert.Equal(t, []string{
		"viewport 0 0 640 480 0 1",
		"pipeline 20",
		"bindgroup 0 50",
		"vertex 0 30 0",
		"vertex 1 31 0",
		fmt.Sprintf("index 32 %v 0", gputypes.IndexFormatUint16),
		"drawindexed 36 1 0 0 0",
	}, enc.calls)
	assert.Equal(t, 1, enc.draws)

	pass := seq.Pass()
	assert.Equal(t, gpucore.TextureViewID(10), pass.Color)
	assert.Equal(t, gpucore.TextureViewID(11), pass.Depth)
	assert.Equal(t, gputypes.Color{B: 1, A: 1}, pass.ClearColor)
	assert.Equal(t, float32(1), pass.ClearDepth)
	assert.Equal(t, target, seq.Target())
}

func TestRecordNonIndexed(t *testing.T) {
	target, pipeline, layout, desc, vertices := testInputs()
	vertices.Index = gpucore.InvalidID
	vertices.Count = 24

	seq, err := (&Recorder{}).Record(target, pipeline, layout, desc, vertices)
	require.NoError(t, err)

	enc := &captureEncoder{}
	require.NoError(t, seq.Playback(enc))
	assert.Equal(t, 1, enc.draws)
	assert.Equal(t, "draw 24 1 0 0", enc.calls[len(enc.calls)-1])
	assert.Equal(t, "[SetViewport SetPipeline SetBindGroup SetVertexBuffer SetVertexBuffer Draw]", seq.String())
}

func TestRecordValidation(t *testing.T) {
	rec := &Recorder{}
	tests := []struct {
		name   string
		mutate func(*Target, *Pipeline, *gpucore.PipelineLayoutID, *gpucore.BindGroupID, *VertexSource)
		want   error
	}{
		{"no color view", func(tg *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, _ *VertexSource) {
			tg.Color = gpucore.InvalidID
		}, ErrInvalidTarget},
		{"zero extent", func(tg *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, _ *VertexSource) {
			tg.Extent = gpucore.Extent{}
		}, ErrInvalidTarget},
		{"no pipeline", func(_ *Target, p *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, _ *VertexSource) {
			p.ID = gpucore.InvalidID
		}, ErrNoPipeline},
		{"no layout", func(_ *Target, _ *Pipeline, l *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, _ *VertexSource) {
			*l = gpucore.InvalidID
		}, ErrNoPipeline},
		{"no descriptor", func(_ *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, d *gpucore.BindGroupID, _ *VertexSource) {
			*d = gpucore.InvalidID
		}, ErrNoDescriptor},
		{"zero count", func(_ *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, v *VertexSource) {
			v.Count = 0
		}, ErrEmptyVertices},
		{"missing buffer", func(_ *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, v *VertexSource) {
			v.Buffers = []VertexBuffer{{Buffer: 30}, {}}
		}, ErrEmptyVertices},
		{"too many buffers", func(_ *Target, _ *Pipeline, _ *gpucore.PipelineLayoutID, _ *gpucore.BindGroupID, v *VertexSource) {
			v.Buffers = make([]VertexBuffer, MaxVertexBuffers+1)
		}, ErrEmptyVertices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, pipeline, layout, desc, vertices := testInputs()
			tt.mutate(&target, &pipeline, &layout, &desc, &vertices)
			seq, err := rec.Record(target, pipeline, layout, desc, vertices)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, seq)
		})
	}
}

func TestKeyTracksInputs(t *testing.T) {
	rec := &Recorder{}
	target, pipeline, layout, desc, vertices := testInputs()
	seq, err := rec.Record(target, pipeline, layout, desc, vertices)
	require.NoError(t, err)

	assert.Equal(t, seq.Key(), MakeKey(target, pipeline, layout, desc, vertices))

	rebuilt := target
	rebuilt.Generation++
	assert.NotEqual(t, seq.Key(), MakeKey(rebuilt, pipeline, layout, desc, vertices), "target rebuild")

	newPipeline := pipeline
	newPipeline.Generation++
	assert.NotEqual(t, seq.Key(), MakeKey(target, newPipeline, layout, desc, vertices), "pipeline rebuild")

	assert.NotEqual(t, seq.Key(), MakeKey(target, pipeline, layout, desc+1, vertices), "descriptor change")

	moved := vertices
	moved.Buffers = []VertexBuffer{{Buffer: 30}, {Buffer: 99}}
	assert.NotEqual(t, seq.Key(), MakeKey(target, pipeline, layout, desc, moved), "vertex source change")
}

func TestSequenceIsImmutableAndReplayable(t *testing.T) {
	target, pipeline, layout, desc, vertices := testInputs()
	seq, err := (&Recorder{}).Record(target, pipeline, layout, desc, vertices)
	require.NoError(t, err)

	cmds := seq.Commands()
	cmds[0] = DrawCommand{}
	assert.Equal(t, CmdSetViewport, seq.Commands()[0].Type())

	// Mutating the caller's slice does not leak into the sequence.
	vertices.Buffers[0].Buffer = 77

	first, second := &captureEncoder{}, &captureEncoder{}
	require.NoError(t, seq.Playback(first))
	require.NoError(t, seq.Playback(second))
	assert.Equal(t, first.calls, second.calls)
	assert.Contains(t, first.calls, "vertex 0 30 0")
}

func TestCommandTypeString(t *testing.T) {
	assert.Equal(t, "DrawIndexed", CmdDrawIndexed.String())
	assert.Equal(t, "Unknown", CommandType(200).String())
}

func TestCacheReusesUntilInputsChange(t *testing.T) {
	rec := NewRecorder(gputypes.Color{B: 1, A: 1}, 1)
	target, pipeline, layout, desc, vertices := testInputs()
	var c Cache

	first, recorded, err := c.Sequence(rec, target, pipeline, layout, desc, vertices)
	require.NoError(t, err)
	assert.True(t, recorded)

	again, recorded, err := c.Sequence(rec, target, pipeline, layout, desc, vertices)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Same(t, first, again)

	_, recorded, err = c.Sequence(rec, target, pipeline, layout, desc+1, vertices)
	require.NoError(t, err)
	assert.True(t, recorded, "new descriptor")

	c.Reset()
	assert.Nil(t, c.Current())
	_, recorded, err = c.Sequence(rec, target, pipeline, layout, desc+1, vertices)
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.Equal(t, 3, c.Records())

	target.Color = gpucore.InvalidID
	_, _, err = c.Sequence(rec, target, pipeline, layout, desc, vertices)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.NotNil(t, c.Current(), "failed recording keeps the previous sequence")
}
