// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
)

// allocate applies injected allocation failures. Callers hold d.mu.
func (d *Device) allocate() error {
	if err := d.checkAlive(); err != nil {
		return err
	}
	if d.allocFailAt > 0 {
		d.allocFailAt--
		if d.allocFailAt == 0 {
			err := d.allocErr
			d.allocErr = nil
			return err
		}
	}
	return nil
}

// CreateBuffer implements gpucore.Allocator.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create buffer %q: %w", desc.Label, err)
	}
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("sim: create buffer %q: zero size", desc.Label)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &buffer{size: desc.Size, data: make([]byte, desc.Size)}
	return id, nil
}

// DestroyBuffer implements gpucore.Allocator.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[id]; !ok {
		return
	}
	d.checkDestroy("buffer", uint64(id))
	delete(d.buffers, id)
}

// WriteBuffer implements gpucore.Allocator. Offsets and sizes must be
// multiples of four.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("sim: write buffer %d: %w", id, gpucore.ErrInvalidID)
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("sim: write buffer %d: unaligned write at %d of %d bytes", id, offset, len(data))
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("sim: write buffer %d: %d bytes at %d overflow size %d", id, len(data), offset, b.size)
	}
	if tok, busy := d.inFlight(uint64(id)); busy {
		d.violate("wrote buffer %d while in flight (token %d)", id, tok)
	}
	copy(b.data[offset:], data)
	return nil
}

// CreateTexture implements gpucore.Allocator.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create texture %q: %w", desc.Label, err)
	}
	if desc.Extent.IsZero() {
		return gpucore.InvalidID, fmt.Errorf("sim: create texture %q: zero extent", desc.Label)
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{extent: desc.Extent, format: desc.Format}
	return id, nil
}

// DestroyTexture implements gpucore.Allocator. Swapchain images are
// destroyed with their chain.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tex, ok := d.textures[id]
	if !ok {
		return
	}
	if tex.swapchain != gpucore.InvalidID {
		d.violate("destroyed swapchain image %d directly", id)
		return
	}
	d.checkDestroy("texture", uint64(id))
	delete(d.textures, id)
}

// CreateTextureView implements gpucore.Allocator.
func (d *Device) CreateTextureView(tex gpucore.TextureID) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create view of %d: %w", tex, err)
	}
	if _, ok := d.textures[tex]; !ok {
		return gpucore.InvalidID, fmt.Errorf("sim: create view of %d: %w", tex, gpucore.ErrInvalidID)
	}
	id := gpucore.TextureViewID(d.newID())
	d.views[id] = tex
	return id, nil
}

// DestroyTextureView implements gpucore.Allocator.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.views[id]; !ok {
		return
	}
	d.checkDestroy("texture view", uint64(id))
	delete(d.views, id)
}

// CreateBindGroupLayout implements gpucore.Allocator.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create bind group layout %q: %w", desc.Label, err)
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	d.bindGroupLayouts[id] = struct{}{}
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.Allocator.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindGroupLayouts, id)
}

// CreateBindGroup implements gpucore.Allocator.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create bind group %q: %w", desc.Label, err)
	}
	if _, ok := d.bindGroupLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("sim: bind group %q layout %d: %w", desc.Label, desc.Layout, gpucore.ErrInvalidID)
	}
	bg := &bindGroup{layout: desc.Layout}
	for _, b := range desc.Buffers {
		buf, ok := d.buffers[b.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("sim: bind group %q buffer %d: %w", desc.Label, b.Buffer, gpucore.ErrInvalidID)
		}
		if b.Offset+b.Size > buf.size {
			return gpucore.InvalidID, fmt.Errorf("sim: bind group %q binding %d exceeds buffer size", desc.Label, b.Binding)
		}
		bg.buffers = append(bg.buffers, b.Buffer)
	}
	id := gpucore.BindGroupID(d.newID())
	d.bindGroups[id] = bg
	return id, nil
}

// DestroyBindGroup implements gpucore.Allocator.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bindGroups[id]; !ok {
		return
	}
	d.checkDestroy("bind group", uint64(id))
	delete(d.bindGroups, id)
}

// CreatePipelineLayout implements gpucore.Allocator.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create pipeline layout %q: %w", desc.Label, err)
	}
	for _, l := range desc.BindGroupLayouts {
		if _, ok := d.bindGroupLayouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("sim: pipeline layout %q group layout %d: %w", desc.Label, l, gpucore.ErrInvalidID)
		}
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipelineLayouts[id] = append([]gpucore.BindGroupLayoutID(nil), desc.BindGroupLayouts...)
	return id, nil
}

// DestroyPipelineLayout implements gpucore.Allocator.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pipelineLayouts, id)
}

// CreateShaderModule implements gpucore.Allocator.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create shader %q: %w", desc.Label, err)
	}
	if len(desc.SPIRV) == 0 && desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("sim: create shader %q: empty source", desc.Label)
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.shaders[id] = struct{}{}
	return id, nil
}

// DestroyShaderModule implements gpucore.Allocator.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.shaders, id)
}

// CreateRenderPipeline implements gpucore.Allocator.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.allocate(); err != nil {
		return gpucore.InvalidID, fmt.Errorf("sim: create pipeline %q: %w", desc.Label, err)
	}
	if _, ok := d.pipelineLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("sim: pipeline %q layout %d: %w", desc.Label, desc.Layout, gpucore.ErrInvalidID)
	}
	if _, ok := d.shaders[desc.Shader]; !ok {
		return gpucore.InvalidID, fmt.Errorf("sim: pipeline %q shader %d: %w", desc.Label, desc.Shader, gpucore.ErrInvalidID)
	}
	if desc.ColorFormat == gputypes.TextureFormatUndefined {
		return gpucore.InvalidID, fmt.Errorf("sim: pipeline %q has no color format", desc.Label)
	}
	id := gpucore.RenderPipelineID(d.newID())
	d.pipelines[id] = &pipeline{
		layout: desc.Layout,
		shader: desc.Shader,
		color:  desc.ColorFormat,
		depth:  desc.DepthFormat,
	}
	return id, nil
}

// DestroyRenderPipeline implements gpucore.Allocator.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelines[id]; !ok {
		return
	}
	d.checkDestroy("render pipeline", uint64(id))
	delete(d.pipelines, id)
}
