// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"time"

	"github.com/gogpu/g3d/gpucore"
)

// SurfaceCapabilities implements gpucore.Presenter.
func (d *Device) SurfaceCapabilities() (gpucore.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.SurfaceCapabilities{}, err
	}
	caps := d.caps
	caps.CurrentExtent = d.currentExtent()
	caps.Formats = append(caps.Formats[:0:0], d.caps.Formats...)
	caps.PresentModes = append(caps.PresentModes[:0:0], d.caps.PresentModes...)
	return caps, nil
}

// ConfigureSwapchain implements gpucore.Presenter.
func (d *Device) ConfigureSwapchain(desc *gpucore.SwapchainDesc) (gpucore.SwapchainID, []gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, nil, err
	}
	if err := d.configureErr; err != nil {
		d.configureErr = nil
		d.record(Event{Op: OpConfigure, Extent: desc.Extent, Err: err})
		return gpucore.InvalidID, nil, err
	}
	if !d.caps.Supports(desc.Extent) {
		return gpucore.InvalidID, nil, fmt.Errorf("sim: configure %v: %w", desc.Extent, gpucore.ErrSurfaceLost)
	}
	if desc.ImageCount < d.caps.MinImageCount || (d.caps.MaxImageCount > 0 && desc.ImageCount > d.caps.MaxImageCount) {
		return gpucore.InvalidID, nil, fmt.Errorf("sim: configure: image count %d outside [%d, %d]",
			desc.ImageCount, d.caps.MinImageCount, d.caps.MaxImageCount)
	}
	if desc.Old != gpucore.InvalidID {
		if old, ok := d.swapchains[desc.Old]; ok {
			old.retired = true
		}
	}

	id := gpucore.SwapchainID(d.newID())
	c := &chain{desc: *desc, acquired: make(map[uint32]bool)}
	for range desc.ImageCount {
		img := gpucore.TextureID(d.newID())
		d.textures[img] = &texture{extent: desc.Extent, format: desc.Format, swapchain: id}
		c.images = append(c.images, img)
	}
	d.swapchains[id] = c
	d.record(Event{Op: OpConfigure, Swapchain: id, Old: desc.Old, Extent: desc.Extent})
	return id, append([]gpucore.TextureID(nil), c.images...), nil
}

// DestroySwapchain implements gpucore.Presenter.
func (d *Device) DestroySwapchain(id gpucore.SwapchainID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.swapchains[id]
	if !ok {
		return
	}
	for _, img := range c.images {
		d.checkDestroy("swapchain image", uint64(img))
		for view, tex := range d.views {
			if tex == img {
				d.violate("view %d outlives swapchain image %d", view, img)
			}
		}
		delete(d.textures, img)
	}
	delete(d.swapchains, id)
	d.record(Event{Op: OpDestroySwapchain, Swapchain: id, Extent: c.desc.Extent})
}

// AcquireNextImage implements gpucore.Presenter. Images are handed out
// round-robin unless SetAcquireOrder scripted the indices.
func (d *Device) AcquireNextImage(sc gpucore.SwapchainID, _ time.Duration) (gpucore.AcquiredImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.AcquiredImage{}, err
	}
	c, ok := d.swapchains[sc]
	if !ok {
		return gpucore.AcquiredImage{}, fmt.Errorf("sim: acquire from %d: %w", sc, gpucore.ErrInvalidID)
	}
	fail := func(err error) (gpucore.AcquiredImage, error) {
		d.record(Event{Op: OpAcquire, Swapchain: sc, Extent: c.desc.Extent, Err: err})
		return gpucore.AcquiredImage{}, err
	}
	if len(d.acquireErrs) > 0 {
		err := d.acquireErrs[0]
		d.acquireErrs = d.acquireErrs[1:]
		return fail(err)
	}
	if c.retired || d.mismatch(c) {
		return fail(gpucore.ErrStale)
	}

	var idx uint32
	if len(d.acquireOrder) > 0 {
		idx = d.acquireOrder[0] % uint32(len(c.images))
		d.acquireOrder = d.acquireOrder[1:]
	} else {
		idx = c.next
		c.next = (c.next + 1) % uint32(len(c.images))
	}
	c.acquired[idx] = true

	img := gpucore.AcquiredImage{Index: idx}
	if d.suboptimal > 0 {
		d.suboptimal--
		img.Suboptimal = true
	}
	d.record(Event{Op: OpAcquire, Swapchain: sc, Image: idx, Extent: c.desc.Extent, Suboptimal: img.Suboptimal})
	return img, nil
}

// Present implements gpucore.Presenter.
func (d *Device) Present(sc gpucore.SwapchainID, image uint32, wait gpucore.Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	c, ok := d.swapchains[sc]
	if !ok {
		return fmt.Errorf("sim: present to %d: %w", sc, gpucore.ErrInvalidID)
	}
	if !c.acquired[image] {
		d.violate("presented image %d of swapchain %d without acquiring it", image, sc)
		return fmt.Errorf("sim: present image %d: not acquired: %w", image, gpucore.ErrInvalidID)
	}
	delete(c.acquired, image)

	ev := Event{Op: OpPresent, Swapchain: sc, Image: image, Token: wait, Extent: c.desc.Extent}
	if len(d.presentErrs) > 0 {
		ev.Err = d.presentErrs[0]
		d.presentErrs = d.presentErrs[1:]
	} else if c.retired || d.mismatch(c) {
		ev.Err = gpucore.ErrStale
	}
	d.record(ev)
	return ev.Err
}

// currentExtent returns the surface extent. Callers hold d.mu.
func (d *Device) currentExtent() gpucore.Extent {
	if d.size != nil {
		return d.size()
	}
	return d.caps.CurrentExtent
}

// mismatch reports whether the surface was resized away from the chain.
// Callers hold d.mu.
func (d *Device) mismatch(c *chain) bool {
	cur := d.currentExtent()
	return !cur.IsZero() && cur != c.desc.Extent
}
