// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recording builds the draw command sequences of the g3d engine.
//
// A [Sequence] is an immutable list of typed commands for one render pass:
// bind the pipeline, the per-frame descriptor and the vertex sources, then
// issue exactly one draw covering the whole mesh. Sequences are produced by
// [Recorder.Record] and replayed onto any [gpucore.RenderPassEncoder] with
// [Sequence.Playback], so the same sequence can be resubmitted verbatim
// until one of its inputs changes.
//
// # Architecture
//
// The system follows a Command Pattern with three parts:
//
//   - Recorder: turns a render target, pipeline, descriptor and vertex
//     source into commands
//   - Sequence: stores the commands and the pass attachments
//   - Encoder: a backend render pass that receives the commands
//
// # Re-recording
//
// Every Sequence carries a [Key] naming what it was recorded against.
// A caller holding a sequence compares its Key with [MakeKey] for the
// current inputs and re-records only when they differ:
//
//	key := recording.MakeKey(target, pipeline, layout, descriptor, vertices)
//	if seq == nil || seq.Key() != key {
//		seq, err = rec.Record(target, pipeline, layout, descriptor, vertices)
//	}
//
// Recording has no side effects on the device or on engine state.
package recording
