// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import "github.com/gogpu/g3d/gpucore"

// Cache holds the sequence last recorded for one frame slot and returns
// it verbatim while its inputs are unchanged.
//
// The zero value is an empty cache.
type Cache struct {
	seq     *Sequence
	records int
}

// Sequence returns the cached sequence when it was recorded against the
// same inputs, and records a new one otherwise.
func (c *Cache) Sequence(r *Recorder, target Target, pipeline Pipeline, layout gpucore.PipelineLayoutID,
	descriptor gpucore.BindGroupID, vertices VertexSource) (*Sequence, bool, error) {
	key := MakeKey(target, pipeline, layout, descriptor, vertices)
	if c.seq != nil && c.seq.key == key && c.seq.pass.ClearColor == r.ClearColor && c.seq.pass.ClearDepth == r.ClearDepth {
		return c.seq, false, nil
	}
	seq, err := r.Record(target, pipeline, layout, descriptor, vertices)
	if err != nil {
		return nil, false, err
	}
	c.seq = seq
	c.records++
	return seq, true, nil
}

// Current returns the cached sequence, or nil.
func (c *Cache) Current() *Sequence { return c.seq }

// Records returns how many sequences the cache has recorded.
func (c *Cache) Records() int { return c.records }

// Reset drops the cached sequence so that the next call records.
func (c *Cache) Reset() { c.seq = nil }
