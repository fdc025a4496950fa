// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

// pollInterval is the sleep between completion polls in Wait.
const pollInterval = 250 * time.Microsecond

// submission holds what the hal queue may still read.
type submission struct {
	index   uint64
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
	views   []hal.TextureView
}

// Submit encodes the render pass of info.Commands and submits it. The
// returned token is the hal submission index.
func (d *Device) Submit(info *gpucore.SubmitInfo) (gpucore.Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.NoToken, err
	}
	d.collectLocked(d.queue.PollCompleted())

	c, ok := d.chains[info.Swapchain]
	if !ok {
		return gpucore.NoToken, fmt.Errorf("native: submit to chain %d: %w", info.Swapchain, gpucore.ErrInvalidID)
	}
	st, ok := c.acquired[info.Image]
	if !ok {
		return gpucore.NoToken, fmt.Errorf("native: submit to image %d: %w", info.Image, ErrNotAcquired)
	}

	sub := &submission{}
	pass := info.Commands.Pass()
	color, err := d.attachmentLocked(pass.Color, c, st, sub)
	if err != nil {
		d.releaseViews(sub)
		return gpucore.NoToken, err
	}
	desc := &hal.RenderPassDescriptor{
		Label: info.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       color,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: pass.ClearColor,
		}},
	}
	if pass.Depth != gpucore.InvalidID {
		depth, err := d.attachmentLocked(pass.Depth, c, st, sub)
		if err != nil {
			d.releaseViews(sub)
			return gpucore.NoToken, err
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: pass.ClearDepth,
			StencilLoadOp:   gputypes.LoadOpClear,
			StencilStoreOp:  gputypes.StoreOpDiscard,
		}
	}

	enc, err := d.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: info.Label})
	if err != nil {
		d.releaseViews(sub)
		return gpucore.NoToken, fmt.Errorf("native: create encoder: %w", mapError(err))
	}
	sub.encoder = enc
	if err := enc.BeginEncoding(info.Label); err != nil {
		d.abandon(sub)
		return gpucore.NoToken, fmt.Errorf("native: begin encoding: %w", mapError(err))
	}
	rp := enc.BeginRenderPass(desc)
	pe := &passEncoder{d: d, raw: rp}
	err = errors.Join(info.Commands.Playback(pe), pe.err)
	rp.End()
	if err != nil {
		enc.DiscardEncoding()
		d.abandon(sub)
		return gpucore.NoToken, fmt.Errorf("native: playback: %w", err)
	}
	cmd, err := enc.EndEncoding()
	if err != nil {
		d.abandon(sub)
		return gpucore.NoToken, fmt.Errorf("native: end encoding: %w", mapError(err))
	}
	sub.cmd = cmd
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.abandon(sub)
		return gpucore.NoToken, fmt.Errorf("native: submit: %w", mapError(err))
	}
	sub.index = index
	d.lastSubmitted = index
	d.pending = append(d.pending, sub)
	return gpucore.Token(index), nil
}

// attachmentLocked resolves a view ID for a render pass. Views of chain
// images get a fresh hal view of the acquired texture, owned by sub.
func (d *Device) attachmentLocked(id gpucore.TextureViewID, c *chain, st hal.SurfaceTexture, sub *submission) (hal.TextureView, error) {
	v, ok := d.views[id]
	if !ok {
		return nil, fmt.Errorf("native: attachment view %d: %w", id, gpucore.ErrInvalidID)
	}
	if v.raw != nil {
		return v.raw, nil
	}
	t, ok := d.textures[v.tex]
	if !ok || t.chain != c.id {
		return nil, fmt.Errorf("native: attachment view %d is not an image of chain %d: %w", id, c.id, gpucore.ErrInvalidID)
	}
	if cur, ok := c.acquired[t.index]; !ok || cur != st {
		return nil, fmt.Errorf("native: attachment image %d: %w", t.index, ErrNotAcquired)
	}
	raw, err := d.dev.CreateTextureView(st, fullView(c.desc.Format))
	if err != nil {
		return nil, fmt.Errorf("native: view of image %d: %w", t.index, mapError(err))
	}
	sub.views = append(sub.views, raw)
	return raw, nil
}

func (d *Device) releaseViews(sub *submission) {
	for _, v := range sub.views {
		d.dev.DestroyTextureView(v)
	}
	sub.views = nil
}

// abandon frees a submission that never reached the queue.
func (d *Device) abandon(sub *submission) {
	if sub.cmd != nil {
		d.dev.FreeCommandBuffer(sub.cmd)
	}
	if sub.encoder != nil {
		sub.encoder.Destroy()
	}
	d.releaseViews(sub)
}

// collectLocked frees every submission with an index up to completed.
func (d *Device) collectLocked(completed uint64) {
	kept := d.pending[:0]
	for _, sub := range d.pending {
		if sub.index <= completed {
			d.abandon(sub)
			continue
		}
		kept = append(kept, sub)
	}
	clear(d.pending[len(kept):])
	d.pending = kept
}

// IsSignaled reports whether the queue has completed t.
func (d *Device) IsSignaled(t gpucore.Token) bool {
	if t == gpucore.NoToken {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return true
	}
	return d.queue.PollCompleted() >= uint64(t)
}

// Wait polls the queue until t completes or timeout elapses.
func (d *Device) Wait(t gpucore.Token, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		d.mu.Lock()
		if d.destroyed {
			d.mu.Unlock()
			return false, ErrDestroyed
		}
		if uint64(t) > d.lastSubmitted {
			d.mu.Unlock()
			return false, fmt.Errorf("native: wait on token %d: %w", t, gpucore.ErrInvalidID)
		}
		completed := d.queue.PollCompleted()
		if completed >= uint64(t) {
			d.collectLocked(completed)
			d.mu.Unlock()
			return true, nil
		}
		d.mu.Unlock()
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(pollInterval)
	}
}

// WaitIdle waits for the device to finish all work.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	if err := d.dev.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait idle: %w", mapError(err))
	}
	d.collectLocked(d.lastSubmitted)
	return nil
}

// passEncoder replays gpucore commands onto a hal render pass. The first
// unknown ID is kept in err and later commands still run.
type passEncoder struct {
	d   *Device
	raw hal.RenderPassEncoder
	err error
}

func (e *passEncoder) fail(kind string, id uint64) {
	if e.err == nil {
		e.err = fmt.Errorf("native: %s %d: %w", kind, id, gpucore.ErrInvalidID)
	}
}

func (e *passEncoder) SetPipeline(id gpucore.RenderPipelineID) {
	p, ok := e.d.pipelines[id]
	if !ok {
		e.fail("pipeline", uint64(id))
		return
	}
	e.raw.SetPipeline(p)
}

func (e *passEncoder) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	g, ok := e.d.groups[id]
	if !ok {
		e.fail("bind group", uint64(id))
		return
	}
	e.raw.SetBindGroup(index, g, nil)
}

func (e *passEncoder) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	b, ok := e.d.buffers[id]
	if !ok {
		e.fail("vertex buffer", uint64(id))
		return
	}
	e.raw.SetVertexBuffer(slot, b, offset)
}

func (e *passEncoder) SetIndexBuffer(id gpucore.BufferID, format gputypes.IndexFormat, offset uint64) {
	b, ok := e.d.buffers[id]
	if !ok {
		e.fail("index buffer", uint64(id))
		return
	}
	e.raw.SetIndexBuffer(b, format, offset)
}

func (e *passEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	e.raw.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (e *passEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (e *passEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	e.raw.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
