// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
)

// Submit implements gpucore.Queue. It replays the commands through a
// validating encoder and rejects submissions that reference destroyed
// resources or render into an image other than the acquired one.
func (d *Device) Submit(info *gpucore.SubmitInfo) (gpucore.Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.NoToken, err
	}
	if info.Commands == nil {
		return gpucore.NoToken, fmt.Errorf("sim: submit %q: no commands", info.Label)
	}

	v := &validator{d: d, refs: make(map[uint64]struct{})}
	v.target(info)
	if v.err == nil {
		if err := info.Commands.Playback(v); err != nil {
			return gpucore.NoToken, fmt.Errorf("sim: submit %q: %w", info.Label, err)
		}
	}
	if v.err == nil && v.draws == 0 {
		v.fail("no draw recorded")
	}
	for _, t := range info.After {
		if t > d.lastToken {
			v.fail("waits on unknown token %d", t)
		}
	}
	if v.err != nil {
		d.violate("submit %q: %v", info.Label, v.err)
		return gpucore.NoToken, fmt.Errorf("sim: submit %q: %w: %w", info.Label, v.err, gpucore.ErrInvalidID)
	}

	d.lastToken++
	tok := d.lastToken
	d.pending = append(d.pending, &submission{token: tok, refs: v.refs})
	d.record(Event{
		Op:        OpSubmit,
		Swapchain: info.Swapchain,
		Image:     info.Image,
		Token:     tok,
		After:     append([]gpucore.Token(nil), info.After...),
		Color:     info.Commands.Pass().Color,
	})

	for len(d.pending) > d.latency {
		d.completeOldest()
	}
	if n := len(d.pending); n > d.maxInFlight {
		d.maxInFlight = n
	}
	return tok, nil
}

// Wait implements gpucore.Queue. Waiting on an incomplete token completes
// it and every earlier submission, unless stall rounds are configured.
func (d *Device) Wait(t gpucore.Token, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return false, err
	}
	if t > d.lastToken {
		return false, fmt.Errorf("sim: wait on unknown token %d: %w", t, gpucore.ErrInvalidID)
	}
	if t <= d.completed {
		d.record(Event{Op: OpWait, Token: t})
		return true, nil
	}
	if d.stalls[t] < d.stallRounds {
		d.stalls[t]++
		d.record(Event{Op: OpWait, Token: t, Blocked: true, TimedOut: true})
		return false, nil
	}
	for d.completed < t {
		d.completeOldest()
	}
	delete(d.stalls, t)
	d.record(Event{Op: OpWait, Token: t, Blocked: true})
	return true, nil
}

// IsSignaled implements gpucore.Queue.
func (d *Device) IsSignaled(t gpucore.Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t <= d.completed
}

// WaitIdle implements gpucore.Queue.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	for len(d.pending) > 0 {
		d.completeOldest()
	}
	return nil
}

// completeOldest retires the oldest incomplete submission.
// Callers hold d.mu.
func (d *Device) completeOldest() {
	if len(d.pending) == 0 {
		return
	}
	d.completed = d.pending[0].token
	d.pending[0] = nil
	d.pending = d.pending[1:]
}

// validator is the render pass encoder used by Submit.
type validator struct {
	d        *Device
	refs     map[uint64]struct{}
	err      error
	pipeline *pipeline
	groups   map[uint32]gpucore.BindGroupID
	draws    int
	indexed  bool
}

func (v *validator) fail(format string, args ...any) {
	if v.err == nil {
		v.err = fmt.Errorf(format, args...)
	}
}

func (v *validator) ref(id uint64) { v.refs[id] = struct{}{} }

// target checks that the pass renders into the acquired image.
func (v *validator) target(info *gpucore.SubmitInfo) {
	d := v.d
	c, ok := d.swapchains[info.Swapchain]
	if !ok {
		v.fail("unknown swapchain %d", info.Swapchain)
		return
	}
	if !c.acquired[info.Image] {
		v.fail("image %d of swapchain %d not acquired", info.Image, info.Swapchain)
		return
	}
	pass := info.Commands.Pass()
	tex, ok := d.views[pass.Color]
	if !ok {
		v.fail("destroyed color view %d", pass.Color)
		return
	}
	if int(info.Image) >= len(c.images) || c.images[info.Image] != tex {
		v.fail("stale render target: view %d does not wrap image %d of swapchain %d", pass.Color, info.Image, info.Swapchain)
		return
	}
	v.ref(uint64(pass.Color))
	v.ref(uint64(tex))

	if pass.Depth != gpucore.InvalidID {
		dtex, ok := d.views[pass.Depth]
		if !ok {
			v.fail("destroyed depth view %d", pass.Depth)
			return
		}
		if d.textures[dtex].extent != c.desc.Extent {
			v.fail("depth buffer %v does not match swapchain %v", d.textures[dtex].extent, c.desc.Extent)
			return
		}
		v.ref(uint64(pass.Depth))
		v.ref(uint64(dtex))
	}
}

func (v *validator) SetPipeline(id gpucore.RenderPipelineID) {
	p, ok := v.d.pipelines[id]
	if !ok {
		v.fail("destroyed pipeline %d", id)
		return
	}
	v.pipeline = p
	v.ref(uint64(id))
}

func (v *validator) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	bg, ok := v.d.bindGroups[id]
	if !ok {
		v.fail("destroyed bind group %d", id)
		return
	}
	for _, b := range bg.buffers {
		if _, ok := v.d.buffers[b]; !ok {
			v.fail("bind group %d references destroyed buffer %d", id, b)
			return
		}
		v.ref(uint64(b))
	}
	if v.groups == nil {
		v.groups = make(map[uint32]gpucore.BindGroupID)
	}
	v.groups[index] = id
	v.ref(uint64(id))
}

func (v *validator) SetVertexBuffer(_ uint32, id gpucore.BufferID, _ uint64) {
	if _, ok := v.d.buffers[id]; !ok {
		v.fail("destroyed vertex buffer %d", id)
		return
	}
	v.ref(uint64(id))
}

func (v *validator) SetIndexBuffer(id gpucore.BufferID, _ gputypes.IndexFormat, _ uint64) {
	if _, ok := v.d.buffers[id]; !ok {
		v.fail("destroyed index buffer %d", id)
		return
	}
	v.indexed = true
	v.ref(uint64(id))
}

func (v *validator) SetViewport(_, _, w, h, _, _ float32) {
	if w <= 0 || h <= 0 {
		v.fail("empty viewport %gx%g", w, h)
	}
}

func (v *validator) Draw(vertexCount, _, _, _ uint32) {
	v.draw(vertexCount)
}

func (v *validator) DrawIndexed(indexCount, _, _ uint32, _ int32, _ uint32) {
	if !v.indexed {
		v.fail("indexed draw without index buffer")
	}
	v.draw(indexCount)
}

func (v *validator) draw(count uint32) {
	if v.pipeline == nil {
		v.fail("draw without pipeline")
		return
	}
	layouts := v.d.pipelineLayouts[v.pipeline.layout]
	for i, want := range layouts {
		id, ok := v.groups[uint32(i)]
		if !ok {
			v.fail("draw without bind group %d", i)
			return
		}
		if v.d.bindGroups[id].layout != want {
			v.fail("bind group %d does not match pipeline layout", id)
			return
		}
	}
	if count == 0 {
		v.fail("empty draw")
	}
	v.draws++
}
