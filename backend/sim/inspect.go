// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"github.com/gogpu/g3d/gpucore"
)

// Events returns a copy of the event log.
func (d *Device) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// EventsOf returns the logged events of one kind.
func (d *Device) EventsOf(op Op) []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Event
	for _, e := range d.events {
		if e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of logged events of one kind.
func (d *Device) Count(op Op) int {
	return len(d.EventsOf(op))
}

// ResetEvents clears the event log.
func (d *Device) ResetEvents() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

// Violations returns the lifetime rules broken so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// MaxInFlight returns the largest number of simultaneously incomplete
// submissions observed.
func (d *Device) MaxInFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxInFlight
}

// InFlight returns the number of incomplete submissions.
func (d *Device) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// LastToken returns the token of the latest submission.
func (d *Device) LastToken() gpucore.Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastToken
}

// CompleteAll completes every pending submission.
func (d *Device) CompleteAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.pending) > 0 {
		d.completeOldest()
	}
}

// BufferData returns a copy of a buffer's contents, or nil.
func (d *Device) BufferData(id gpucore.BufferID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil
	}
	return append([]byte(nil), b.data...)
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveTextures returns the number of textures not yet destroyed,
// excluding swapchain images.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, t := range d.textures {
		if t.swapchain == gpucore.InvalidID {
			n++
		}
	}
	return n
}

// LiveViews returns the number of texture views not yet destroyed.
func (d *Device) LiveViews() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.views)
}

// LiveBindGroups returns the number of bind groups not yet destroyed.
func (d *Device) LiveBindGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindGroups)
}

// LivePipelines returns the number of render pipelines not yet destroyed.
func (d *Device) LivePipelines() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pipelines)
}

// LiveSwapchains returns the number of chains not yet destroyed.
func (d *Device) LiveSwapchains() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.swapchains)
}

// TextureExtent returns the extent of a texture or swapchain image.
func (d *Device) TextureExtent(id gpucore.TextureID) (gpucore.Extent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return gpucore.Extent{}, false
	}
	return t.extent, true
}

// ViewTexture returns the texture a view was created from.
func (d *Device) ViewTexture(id gpucore.TextureViewID) (gpucore.TextureID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.views[id]
	return t, ok
}

// SetSurfaceExtent changes the extent reported by the surface. Chains of
// a different extent become stale.
func (d *Device) SetSurfaceExtent(e gpucore.Extent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps.CurrentExtent = e
}

// SetCapabilities replaces the surface capabilities. The current extent
// is kept.
func (d *Device) SetCapabilities(caps gpucore.SurfaceCapabilities) {
	d.mu.Lock()
	defer d.mu.Unlock()
	caps.CurrentExtent = d.caps.CurrentExtent
	d.caps = caps
}

// InjectAcquireErrors makes the next acquires fail with errs, in order.
func (d *Device) InjectAcquireErrors(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireErrs = append(d.acquireErrs, errs...)
}

// InjectPresentErrors makes the next presents fail with errs, in order.
func (d *Device) InjectPresentErrors(errs ...error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presentErrs = append(d.presentErrs, errs...)
}

// SetSuboptimal marks the next n acquired images suboptimal.
func (d *Device) SetSuboptimal(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suboptimal = n
}

// SetAcquireOrder scripts the indices returned by the next acquires.
func (d *Device) SetAcquireOrder(indices ...uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquireOrder = append(d.acquireOrder, indices...)
}

// FailNthAllocation makes the n-th next resource creation fail with err.
func (d *Device) FailNthAllocation(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allocFailAt = n
	d.allocErr = err
}

// FailConfigure makes the next ConfigureSwapchain fail with err.
func (d *Device) FailConfigure(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configureErr = err
}

// LoseDevice makes every later operation fail with gpucore.ErrDeviceLost.
func (d *Device) LoseDevice() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lost = true
}

var _ gpucore.Device = (*Device)(nil)
