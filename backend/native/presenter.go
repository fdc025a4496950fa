// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
)

// SurfaceCapabilities combines the adapter's view of the surface with the
// window size and the configured chain length bounds.
func (d *Device) SurfaceCapabilities() (gpucore.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.SurfaceCapabilities{}, err
	}
	hc := d.adapter.SurfaceCapabilities(d.surface)
	if hc == nil || len(hc.Formats) == 0 {
		return gpucore.SurfaceCapabilities{}, fmt.Errorf("native: surface capabilities: %w", gpucore.ErrSurfaceLost)
	}
	caps := gpucore.SurfaceCapabilities{
		MinImageCount: d.cfg.MinImageCount,
		MaxImageCount: d.cfg.MaxImageCount,
		Formats:       append([]gputypes.TextureFormat(nil), hc.Formats...),
		PresentModes:  append([]gputypes.PresentMode(nil), hc.PresentModes...),
		CurrentExtent: d.surfaceExtentLocked(),
		MinExtent:     gpucore.Extent{Width: 1, Height: 1},
	}
	if m := d.limits.MaxTextureDimension2D; m > 0 {
		caps.MaxExtent = gpucore.Extent{Width: m, Height: m}
	}
	return caps, nil
}

func (d *Device) surfaceExtentLocked() gpucore.Extent {
	if d.cfg.Size != nil {
		return d.cfg.Size()
	}
	if d.current != nil {
		return d.current.desc.Extent
	}
	return gpucore.Extent{}
}

// ConfigureSwapchain configures the surface. The hal surface holds one
// configuration, so desc.Old is retired: acquiring from it reports
// ErrStale until it is destroyed.
func (d *Device) ConfigureSwapchain(desc *gpucore.SwapchainDesc) (gpucore.SwapchainID, []gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, nil, err
	}
	if desc.Extent.IsZero() || desc.ImageCount == 0 {
		return gpucore.InvalidID, nil, fmt.Errorf("native: configure %s x%d: %w", desc.Extent, desc.ImageCount, gpucore.ErrSurfaceLost)
	}
	mode := desc.PresentMode
	if mode == gputypes.PresentModeUndefined {
		mode = gputypes.PresentModeFifo
	}
	err := d.surface.Configure(d.dev, &hal.SurfaceConfiguration{
		Width:       desc.Extent.Width,
		Height:      desc.Extent.Height,
		Format:      desc.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: mode,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	})
	if err != nil {
		return gpucore.InvalidID, nil, fmt.Errorf("native: configure surface: %w", mapError(err))
	}
	if old, ok := d.chains[desc.Old]; ok {
		d.discardLocked(old)
		old.retired = true
	}
	if d.current != nil {
		d.current.retired = true
	}

	c := &chain{
		id:       gpucore.SwapchainID(d.newID()),
		desc:     *desc,
		acquired: make(map[uint32]hal.SurfaceTexture),
	}
	for i := uint32(0); i < desc.ImageCount; i++ {
		id := gpucore.TextureID(d.newID())
		d.textures[id] = &texture{chain: c.id, index: i}
		c.images = append(c.images, id)
	}
	d.chains[c.id] = c
	d.current = c
	logging.Logger().Debug("native: surface configured",
		"extent", desc.Extent.String(), "images", desc.ImageCount, "format", desc.Format)
	return c.id, append([]gpucore.TextureID(nil), c.images...), nil
}

// DestroySwapchain forgets a chain and its images. Destroying the current
// chain unconfigures the surface.
func (d *Device) DestroySwapchain(id gpucore.SwapchainID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.chains[id]
	if !ok {
		return
	}
	d.discardLocked(c)
	for _, img := range c.images {
		delete(d.textures, img)
	}
	delete(d.chains, id)
	if d.current == c {
		d.surface.Unconfigure(d.dev)
		d.current = nil
	}
}

// discardLocked returns every acquired but unpresented texture of c.
func (d *Device) discardLocked(c *chain) {
	for i, st := range c.acquired {
		d.surface.DiscardTexture(st)
		delete(c.acquired, i)
	}
}

// AcquireNextImage acquires a surface texture and binds it to the next
// chain index. The hal surface blocks on its own schedule, so timeout is
// not enforced here.
func (d *Device) AcquireNextImage(sc gpucore.SwapchainID, _ time.Duration) (gpucore.AcquiredImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.AcquiredImage{}, err
	}
	c, ok := d.chains[sc]
	if !ok {
		return gpucore.AcquiredImage{}, fmt.Errorf("native: acquire from chain %d: %w", sc, gpucore.ErrInvalidID)
	}
	if c.retired || d.surfaceExtentLocked() != c.desc.Extent {
		return gpucore.AcquiredImage{}, fmt.Errorf("native: acquire from chain %d: %w", sc, gpucore.ErrStale)
	}
	at, err := d.surface.AcquireTexture(nil)
	if err != nil {
		return gpucore.AcquiredImage{}, fmt.Errorf("native: acquire: %w", mapError(err))
	}
	index := c.next % uint32(len(c.images))
	c.next++
	if prev, ok := c.acquired[index]; ok {
		d.surface.DiscardTexture(prev)
	}
	c.acquired[index] = at.Texture
	return gpucore.AcquiredImage{Index: index, Suboptimal: at.Suboptimal}, nil
}

// Present queues the acquired texture for display. The hal queue executes
// the frame's submission first, so wait is met by order.
func (d *Device) Present(sc gpucore.SwapchainID, image uint32, _ gpucore.Token) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	c, ok := d.chains[sc]
	if !ok {
		return fmt.Errorf("native: present to chain %d: %w", sc, gpucore.ErrInvalidID)
	}
	st, ok := c.acquired[image]
	if !ok {
		return fmt.Errorf("native: present image %d: %w", image, ErrNotAcquired)
	}
	delete(c.acquired, image)
	if c.retired {
		d.surface.DiscardTexture(st)
		return fmt.Errorf("native: present to chain %d: %w", sc, gpucore.ErrStale)
	}
	if err := d.queue.Present(d.surface, st, nil); err != nil {
		return fmt.Errorf("native: present: %w", mapError(err))
	}
	return nil
}
