// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim provides a deterministic simulated gpucore.Device.
//
// The simulated device executes nothing. It tracks resources, chains,
// submissions and completion tokens in memory, logs every presentation
// and queue operation as an [Event], and records a violation whenever a
// caller breaks a lifetime rule: destroying or writing a resource that an
// incomplete submission still references, submitting into an image that
// was not acquired, or drawing with a destroyed resource.
//
// Completion is virtual. A submission completes once Latency later
// submissions have been issued, when it is waited on, or on WaitIdle.
// Failures are injected through methods such as InjectAcquireErrors,
// InjectPresentErrors, FailNthAllocation and LoseDevice.
//
// Device is safe for concurrent use.
package sim

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
)

// Name is the backend name of the simulated device.
const Name = "sim"

// DefaultCapabilities returns the surface capabilities of a new device.
func DefaultCapabilities() gpucore.SurfaceCapabilities {
	return gpucore.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 8,
		Formats: []gputypes.TextureFormat{
			gputypes.TextureFormatBGRA8Unorm,
			gputypes.TextureFormatRGBA8Unorm,
		},
		PresentModes: []gputypes.PresentMode{gputypes.PresentModeFifo, gputypes.PresentModeMailbox},
		MinExtent:    gpucore.Extent{Width: 1, Height: 1},
		MaxExtent:    gpucore.Extent{Width: 16384, Height: 16384},
	}
}

// Option configures a Device.
type Option func(*Device)

// WithCapabilities sets the surface capabilities.
func WithCapabilities(caps gpucore.SurfaceCapabilities) Option {
	return func(d *Device) { d.caps = caps }
}

// WithSurfaceSize makes the surface follow a window: size is queried on
// every capability query and acquire. It overrides SetSurfaceExtent.
func WithSurfaceSize(size func() gpucore.Extent) Option {
	return func(d *Device) { d.size = size }
}

// WithLatency sets how many later submissions complete a submission.
// Zero completes every submission immediately.
func WithLatency(n int) Option {
	return func(d *Device) { d.latency = n }
}

// WithStallRounds makes the first n waits on every token time out.
func WithStallRounds(n int) Option {
	return func(d *Device) { d.stallRounds = n }
}

type buffer struct {
	size uint64
	data []byte
}

type texture struct {
	extent    gpucore.Extent
	format    gputypes.TextureFormat
	swapchain gpucore.SwapchainID // owner, InvalidID for plain textures
}

type bindGroup struct {
	layout  gpucore.BindGroupLayoutID
	buffers []gpucore.BufferID
}

type pipeline struct {
	layout gpucore.PipelineLayoutID
	shader gpucore.ShaderModuleID
	color  gputypes.TextureFormat
	depth  gputypes.TextureFormat
}

type chain struct {
	desc     gpucore.SwapchainDesc
	images   []gpucore.TextureID
	retired  bool
	next     uint32
	acquired map[uint32]bool
}

type submission struct {
	token gpucore.Token
	refs  map[uint64]struct{}
}

// Device is a simulated gpucore.Device.
type Device struct {
	mu sync.Mutex

	caps        gpucore.SurfaceCapabilities
	size        func() gpucore.Extent
	latency     int
	stallRounds int

	nextID           uint64
	buffers          map[gpucore.BufferID]*buffer
	textures         map[gpucore.TextureID]*texture
	views            map[gpucore.TextureViewID]gpucore.TextureID
	bindGroupLayouts map[gpucore.BindGroupLayoutID]struct{}
	bindGroups       map[gpucore.BindGroupID]*bindGroup
	pipelineLayouts  map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	shaders          map[gpucore.ShaderModuleID]struct{}
	pipelines        map[gpucore.RenderPipelineID]*pipeline
	swapchains       map[gpucore.SwapchainID]*chain

	pending     []*submission
	lastToken   gpucore.Token
	completed   gpucore.Token
	maxInFlight int
	stalls      map[gpucore.Token]int

	events     []Event
	violations []string

	acquireErrs  []error
	presentErrs  []error
	acquireOrder []uint32
	suboptimal   int
	configureErr error
	allocFailAt  int
	allocErr     error
	lost         bool
	destroyed    bool
}

// New creates a simulated device with DefaultCapabilities and a latency of two.
func New(opts ...Option) *Device {
	d := &Device{
		caps:             DefaultCapabilities(),
		latency:          2,
		buffers:          make(map[gpucore.BufferID]*buffer),
		textures:         make(map[gpucore.TextureID]*texture),
		views:            make(map[gpucore.TextureViewID]gpucore.TextureID),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]struct{}),
		bindGroups:       make(map[gpucore.BindGroupID]*bindGroup),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		shaders:          make(map[gpucore.ShaderModuleID]struct{}),
		pipelines:        make(map[gpucore.RenderPipelineID]*pipeline),
		swapchains:       make(map[gpucore.SwapchainID]*chain),
		stalls:           make(map[gpucore.Token]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements gpucore.Device.
func (d *Device) Name() string { return Name }

// Destroy implements gpucore.Device. Resources still alive are reported
// by the Live* accessors.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
}

// newID returns a fresh ID, unique across all resource kinds.
// Callers hold d.mu.
func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// violate records a broken lifetime rule. Callers hold d.mu.
func (d *Device) violate(format string, args ...any) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

// checkAlive returns ErrDeviceLost after LoseDevice. Callers hold d.mu.
func (d *Device) checkAlive() error {
	if d.lost || d.destroyed {
		return gpucore.ErrDeviceLost
	}
	return nil
}

// inFlight reports the token of an incomplete submission referencing id.
// Callers hold d.mu.
func (d *Device) inFlight(id uint64) (gpucore.Token, bool) {
	if id == gpucore.InvalidID {
		return gpucore.NoToken, false
	}
	for _, s := range d.pending {
		if _, ok := s.refs[id]; ok {
			return s.token, true
		}
	}
	return gpucore.NoToken, false
}

// checkDestroy records a violation if id is referenced by an incomplete
// submission. Callers hold d.mu.
func (d *Device) checkDestroy(kind string, id uint64) {
	if tok, ok := d.inFlight(id); ok {
		d.violate("destroyed %s %d while in flight (token %d)", kind, id, tok)
	}
}
