// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements gpucore.Device on top of the gogpu/wgpu HAL.
//
// Any registered hal backend can be opened: Vulkan, Metal, DX12, GLES or
// the noop backend used by tests. The device maps gpucore IDs onto hal
// objects and drives one hal.Surface as the chain of presentable images.
//
// The hal surface hands out one texture per acquire without an index, so
// the device assigns chain indices round-robin. Views of chain images are
// resolved against the acquired surface texture at submit time and
// destroyed once the submission completes.
//
// All submissions go to a single hal queue, which executes them in order.
// Ordering constraints in SubmitInfo.After and the wait token of Present
// are therefore met by submission order alone.
//
// Device is safe for concurrent use.
package native

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
)

// Config selects the hal backend and the window to present to.
type Config struct {
	// Backend is the hal backend variant. BackendEmpty opens the noop backend.
	Backend gputypes.Backend

	// DisplayHandle and WindowHandle are passed to hal.Instance.CreateSurface.
	DisplayHandle uintptr
	WindowHandle  uintptr

	// Size reports the drawable size of the window in pixels. When nil the
	// surface is assumed to match the last configured chain.
	Size func() gpucore.Extent

	// MinImageCount and MaxImageCount bound the chain length reported in
	// the surface capabilities. Zero selects 2 and 3.
	MinImageCount uint32
	MaxImageCount uint32
}

type texture struct {
	raw   hal.Texture // nil for chain images
	chain gpucore.SwapchainID
	index uint32
}

type view struct {
	raw hal.TextureView // nil for views of chain images
	tex gpucore.TextureID
}

type chain struct {
	id       gpucore.SwapchainID
	desc     gpucore.SwapchainDesc
	images   []gpucore.TextureID
	acquired map[uint32]hal.SurfaceTexture
	next     uint32
	retired  bool
}

// Device is a gpucore.Device backed by a hal device, queue and surface.
type Device struct {
	mu sync.Mutex

	instance hal.Instance // nil when the caller owns it
	adapter  hal.Adapter
	limits   gputypes.Limits
	dev      hal.Device
	queue    hal.Queue
	surface  hal.Surface
	name     string
	cfg      Config

	next          uint64
	buffers       map[gpucore.BufferID]hal.Buffer
	textures      map[gpucore.TextureID]*texture
	views         map[gpucore.TextureViewID]*view
	groupLayouts  map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	groups        map[gpucore.BindGroupID]hal.BindGroup
	pipeLayouts   map[gpucore.PipelineLayoutID]hal.PipelineLayout
	shaders       map[gpucore.ShaderModuleID]hal.ShaderModule
	pipelines     map[gpucore.RenderPipelineID]hal.RenderPipeline
	chains        map[gpucore.SwapchainID]*chain
	current       *chain
	pending       []*submission
	lastSubmitted uint64
	destroyed     bool
}

// Open creates an instance of the configured hal backend, a surface for the
// window and a device on the first adapter that can present to it.
func Open(cfg Config) (*Device, error) {
	backend, ok := hal.GetBackend(cfg.Backend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, cfg.Backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	surface, err := instance.CreateSurface(cfg.DisplayHandle, cfg.WindowHandle)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: create surface: %w", mapError(err))
	}
	adapters := instance.EnumerateAdapters(surface)
	selected := selectAdapter(adapters)
	if selected == nil {
		surface.Destroy()
		instance.Destroy()
		return nil, ErrNoGPU
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", mapError(err))
	}
	d := newDevice(selected, open, surface, cfg)
	d.instance = instance
	logging.Logger().Info("native: device opened",
		"adapter", selected.Info.Name, "backend", selected.Info.Backend.String())
	return d, nil
}

// selectAdapter prefers discrete and integrated GPUs.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// New wraps an already opened hal device. The caller keeps ownership of
// the instance; Destroy releases the device and the surface.
func New(adapter *hal.ExposedAdapter, open hal.OpenDevice, surface hal.Surface, cfg Config) *Device {
	return newDevice(adapter, open, surface, cfg)
}

func newDevice(adapter *hal.ExposedAdapter, open hal.OpenDevice, surface hal.Surface, cfg Config) *Device {
	if cfg.MinImageCount == 0 {
		cfg.MinImageCount = 2
	}
	if cfg.MaxImageCount == 0 {
		cfg.MaxImageCount = 3
	}
	if cfg.MaxImageCount < cfg.MinImageCount {
		cfg.MaxImageCount = cfg.MinImageCount
	}
	name := "noop"
	if adapter.Info.Backend != gputypes.BackendEmpty {
		name = strings.ToLower(adapter.Info.Backend.String())
	}
	return &Device{
		adapter:      adapter.Adapter,
		limits:       adapter.Capabilities.Limits,
		dev:          open.Device,
		queue:        open.Queue,
		surface:      surface,
		name:         name,
		cfg:          cfg,
		buffers:      make(map[gpucore.BufferID]hal.Buffer),
		textures:     make(map[gpucore.TextureID]*texture),
		views:        make(map[gpucore.TextureViewID]*view),
		groupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		groups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		pipeLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		shaders:      make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		pipelines:    make(map[gpucore.RenderPipelineID]hal.RenderPipeline),
		chains:       make(map[gpucore.SwapchainID]*chain),
	}
}

// Name returns the hal backend name, e.g. "vulkan" or "noop".
func (d *Device) Name() string { return d.name }

// Destroy waits for the queue to drain and releases every hal object the
// device still owns.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	if err := d.dev.WaitIdle(); err != nil {
		logging.Logger().Warn("native: wait idle on destroy", "err", err)
	}
	d.collectLocked(^uint64(0))

	for _, p := range d.pipelines {
		d.dev.DestroyRenderPipeline(p)
	}
	for _, l := range d.pipeLayouts {
		d.dev.DestroyPipelineLayout(l)
	}
	for _, g := range d.groups {
		d.dev.DestroyBindGroup(g)
	}
	for _, l := range d.groupLayouts {
		d.dev.DestroyBindGroupLayout(l)
	}
	for _, s := range d.shaders {
		d.dev.DestroyShaderModule(s)
	}
	for _, v := range d.views {
		if v.raw != nil {
			d.dev.DestroyTextureView(v.raw)
		}
	}
	for _, t := range d.textures {
		if t.raw != nil {
			d.dev.DestroyTexture(t.raw)
		}
	}
	for _, b := range d.buffers {
		d.dev.DestroyBuffer(b)
	}
	for _, c := range d.chains {
		d.discardLocked(c)
	}
	if d.current != nil {
		d.surface.Unconfigure(d.dev)
	}
	d.surface.Destroy()
	d.dev.Destroy()
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.destroyed = true
}

func (d *Device) newID() uint64 {
	d.next++
	return d.next
}

func (d *Device) checkAlive() error {
	if d.destroyed {
		return ErrDestroyed
	}
	return nil
}
