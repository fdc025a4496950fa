// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

// CreateBuffer creates a hal buffer.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	raw, err := d.dev.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = raw
	return id, nil
}

// DestroyBuffer destroys a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.buffers[id]; ok {
		d.dev.DestroyBuffer(raw)
		delete(d.buffers, id)
	}
}

// WriteBuffer writes through the queue.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return err
	}
	raw, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("native: write buffer %d: %w", id, gpucore.ErrInvalidID)
	}
	if err := d.queue.WriteBuffer(raw, offset, data); err != nil {
		return fmt.Errorf("native: write buffer %d: %w", id, mapError(err))
	}
	return nil
}

// CreateTexture creates a single-sample 2D texture with one mip level.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	raw, err := d.dev.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Extent.Width,
			Height:             desc.Extent.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{raw: raw}
	return id, nil
}

// DestroyTexture destroys a texture. Chain images are owned by their
// chain and are ignored.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok || t.raw == nil {
		return
	}
	d.dev.DestroyTexture(t.raw)
	delete(d.textures, id)
}

// CreateTextureView creates a full 2D view. Views of chain images are
// bound to the acquired surface texture when a submission uses them.
func (d *Device) CreateTextureView(tex gpucore.TextureID) (gpucore.TextureViewID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	t, ok := d.textures[tex]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: create view of texture %d: %w", tex, gpucore.ErrInvalidID)
	}
	v := &view{tex: tex}
	if t.raw != nil {
		raw, err := d.dev.CreateTextureView(t.raw, fullView(gputypes.TextureFormatUndefined))
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("native: create view of texture %d: %w", tex, mapError(err))
		}
		v.raw = raw
	}
	id := gpucore.TextureViewID(d.newID())
	d.views[id] = v
	return id, nil
}

func fullView(format gputypes.TextureFormat) *hal.TextureViewDescriptor {
	return &hal.TextureViewDescriptor{
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	}
}

// DestroyTextureView destroys a view.
func (d *Device) DestroyTextureView(id gpucore.TextureViewID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.views[id]
	if !ok {
		return
	}
	if v.raw != nil {
		d.dev.DestroyTextureView(v.raw)
	}
	delete(d.views, id)
}

// CreateBindGroupLayout creates a bind group layout.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	raw, err := d.dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: desc.Entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	d.groupLayouts[id] = raw
	return id, nil
}

// DestroyBindGroupLayout destroys a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.groupLayouts[id]; ok {
		d.dev.DestroyBindGroupLayout(raw)
		delete(d.groupLayouts, id)
	}
}

// CreateBindGroup creates a bind group of buffer bindings.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	layout, ok := d.groupLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: bind group %q layout %d: %w", desc.Label, desc.Layout, gpucore.ErrInvalidID)
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(desc.Buffers))
	for _, b := range desc.Buffers {
		buf, ok := d.buffers[b.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("native: bind group %q buffer %d: %w", desc.Label, b.Buffer, gpucore.ErrInvalidID)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: b.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(),
				Offset: b.Offset,
				Size:   b.Size,
			},
		})
	}
	raw, err := d.dev.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.BindGroupID(d.newID())
	d.groups[id] = raw
	return id, nil
}

// DestroyBindGroup destroys a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.groups[id]; ok {
		d.dev.DestroyBindGroup(raw)
		delete(d.groups, id)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	layouts := make([]hal.BindGroupLayout, 0, len(desc.BindGroupLayouts))
	for _, l := range desc.BindGroupLayouts {
		raw, ok := d.groupLayouts[l]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("native: pipeline layout %q group layout %d: %w", desc.Label, l, gpucore.ErrInvalidID)
		}
		layouts = append(layouts, raw)
	}
	raw, err := d.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipeLayouts[id] = raw
	return id, nil
}

// DestroyPipelineLayout destroys a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.pipeLayouts[id]; ok {
		d.dev.DestroyPipelineLayout(raw)
		delete(d.pipeLayouts, id)
	}
}

// CreateShaderModule creates a shader module from SPIR-V or WGSL.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	src := hal.ShaderSource{SPIRV: desc.SPIRV}
	if len(desc.SPIRV) == 0 {
		src.WGSL = desc.WGSL
	}
	raw, err := d.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: src,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.shaders[id] = raw
	return id, nil
}

// DestroyShaderModule destroys a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.shaders[id]; ok {
		d.dev.DestroyShaderModule(raw)
		delete(d.shaders, id)
	}
}

var keepStencil = hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways}

// CreateRenderPipeline creates a render pipeline with one color target.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAlive(); err != nil {
		return gpucore.InvalidID, err
	}
	layout, ok := d.pipeLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline %q layout %d: %w", desc.Label, desc.Layout, gpucore.ErrInvalidID)
	}
	module, ok := d.shaders[desc.Shader]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("native: pipeline %q shader %d: %w", desc.Label, desc.Shader, gpucore.ErrInvalidID)
	}
	samples := desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	hd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Primitive: desc.Primitive,
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  ^uint64(0),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.ColorFormat,
				WriteMask: desc.ColorWriteMask,
			}},
		},
	}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		hd.DepthStencil = &hal.DepthStencilState{
			Format:            desc.DepthFormat,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      desc.DepthCompare,
			StencilFront:      keepStencil,
			StencilBack:       keepStencil,
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		}
	}
	raw, err := d.dev.CreateRenderPipeline(hd)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline %q: %w", desc.Label, mapError(err))
	}
	id := gpucore.RenderPipelineID(d.newID())
	d.pipelines[id] = raw
	return id, nil
}

// DestroyRenderPipeline destroys a render pipeline.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if raw, ok := d.pipelines[id]; ok {
		d.dev.DestroyRenderPipeline(raw)
		delete(d.pipelines, id)
	}
}
