// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package swapchain manages the chain of presentable images of a surface
// and the render targets wrapping them.
//
// A [Manager] builds immutable [State] values. Rebuilding never mutates or
// destroys the previous State: the caller releases it with
// [Manager.Release] once no in-flight frame references it.
package swapchain

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
)

// ErrNoFormat is returned when the surface offers no presentable format.
var ErrNoFormat = errors.New("swapchain: surface reports no presentable format")

// Device is the part of a gpucore.Device the manager needs.
type Device interface {
	gpucore.Presenter
	gpucore.Allocator
}

// Options configures a Manager.
type Options struct {
	// ImageCount requests a chain length. It is raised to the surface
	// minimum plus one and clamped to the surface maximum.
	ImageCount uint32

	// PresentMode is used when the surface supports it, otherwise the
	// surface's first mode (or FIFO) is used.
	PresentMode gputypes.PresentMode

	// DepthFormat enables a shared depth buffer when not Undefined.
	DepthFormat gputypes.TextureFormat
}

// DefaultOptions returns FIFO presentation with a 16-bit depth buffer.
func DefaultOptions() Options {
	return Options{
		PresentMode: gputypes.PresentModeFifo,
		DepthFormat: gputypes.TextureFormatDepth16Unorm,
	}
}

// TargetLayout describes the attachments every render target shares.
// Pipelines are built against a layout.
type TargetLayout struct {
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat // Undefined without depth
}

// HasDepth reports whether the layout has a depth attachment.
func (l TargetLayout) HasDepth() bool { return l.DepthFormat != gputypes.TextureFormatUndefined }

// State is one build of the chain. It is never modified after Rebuild
// returns it.
type State struct {
	ID          gpucore.SwapchainID
	Generation  uint64
	Extent      gpucore.Extent
	Format      gputypes.TextureFormat
	PresentMode gputypes.PresentMode
	Images      []gpucore.TextureID
	Layout      TargetLayout
}

// ImageCount returns the number of presentable images.
func (s *State) ImageCount() int { return len(s.Images) }

// Manager builds and releases chains for one surface.
// It is not safe for concurrent use.
type Manager struct {
	dev        Device
	opts       Options
	current    *State
	previous   *State
	generation uint64
}

// NewManager creates a Manager. No chain exists until Rebuild.
func NewManager(dev Device, opts Options) *Manager {
	return &Manager{dev: dev, opts: opts}
}

// Current returns the latest chain, or nil before the first Rebuild.
func (m *Manager) Current() *State { return m.current }

// Rebuild builds a chain of the given extent. The previous chain is
// handed to the device as the one being replaced but stays alive until
// Release. Rebuild fails with gpucore.ErrSurfaceLost when the surface
// cannot provide the extent.
func (m *Manager) Rebuild(extent gpucore.Extent) (*State, error) {
	caps, err := m.dev.SurfaceCapabilities()
	if err != nil {
		return nil, fmt.Errorf("swapchain: query surface: %w", err)
	}
	if !caps.Supports(extent) {
		return nil, fmt.Errorf("swapchain: extent %v outside [%v, %v]: %w",
			extent, caps.MinExtent, caps.MaxExtent, gpucore.ErrSurfaceLost)
	}
	if len(caps.Formats) == 0 {
		return nil, ErrNoFormat
	}

	desc := &gpucore.SwapchainDesc{
		Label:       "g3d swapchain",
		Extent:      extent,
		Format:      caps.Formats[0],
		ImageCount:  imageCount(&caps, m.opts.ImageCount),
		PresentMode: presentMode(&caps, m.opts.PresentMode),
	}
	if m.current != nil {
		desc.Old = m.current.ID
	}

	id, images, err := m.dev.ConfigureSwapchain(desc)
	if err != nil {
		return nil, fmt.Errorf("swapchain: configure %v: %w", extent, err)
	}

	m.generation++
	s := &State{
		ID:          id,
		Generation:  m.generation,
		Extent:      extent,
		Format:      desc.Format,
		PresentMode: desc.PresentMode,
		Images:      append([]gpucore.TextureID(nil), images...),
		Layout:      TargetLayout{ColorFormat: desc.Format, DepthFormat: m.opts.DepthFormat},
	}
	m.previous, m.current = m.current, s

	logging.Logger().Info("swapchain rebuilt",
		"generation", s.Generation,
		"extent", extent.String(),
		"images", len(images),
		"format", s.Format.String())
	return s, nil
}

// Release destroys a chain built by Rebuild. Releasing the current chain
// makes the chain it replaced current again, if that one is still alive.
func (m *Manager) Release(s *State) {
	if s == nil {
		return
	}
	m.dev.DestroySwapchain(s.ID)
	switch s {
	case m.current:
		m.current, m.previous = m.previous, nil
	case m.previous:
		m.previous = nil
	}
	logging.Logger().Debug("swapchain released", "generation", s.Generation)
}

// imageCount picks the chain length: at least the surface minimum plus
// one so that the engine can hold one image while another is displayed.
func imageCount(caps *gpucore.SurfaceCapabilities, requested uint32) uint32 {
	n := caps.MinImageCount + 1
	if requested > n {
		n = requested
	}
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func presentMode(caps *gpucore.SurfaceCapabilities, want gputypes.PresentMode) gputypes.PresentMode {
	for _, m := range caps.PresentModes {
		if m == want {
			return m
		}
	}
	if len(caps.PresentModes) > 0 {
		return caps.PresentModes[0]
	}
	return gputypes.PresentModeFifo
}
