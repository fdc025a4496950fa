// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
	"github.com/gogpu/g3d/recording"
)

// RenderTarget wraps one presentable image, plus the shared depth buffer,
// for use as a draw destination.
type RenderTarget struct {
	Index      uint32
	Image      gpucore.TextureID
	Color      gpucore.TextureViewID
	Depth      gpucore.TextureViewID // InvalidID without depth
	Extent     gpucore.Extent
	Generation uint64
}

// Recording returns the target in the form the command recorder takes.
func (t *RenderTarget) Recording() recording.Target {
	return recording.Target{
		Index:      t.Index,
		Generation: t.Generation,
		Color:      t.Color,
		Depth:      t.Depth,
		Extent:     t.Extent,
	}
}

// Targets is the set of render targets of one chain build. All targets
// share one depth texture.
type Targets struct {
	Generation uint64
	Extent     gpucore.Extent
	Layout     TargetLayout
	List       []RenderTarget

	depth     gpucore.TextureID
	depthView gpucore.TextureViewID
}

// Len returns the number of render targets.
func (t *Targets) Len() int { return len(t.List) }

// At returns the target for image index i.
func (t *Targets) At(i uint32) (*RenderTarget, bool) {
	if int(i) >= len(t.List) {
		return nil, false
	}
	return &t.List[i], true
}

// BuildTargets wraps every image of s into a render target. When the
// layout has depth, a new depth texture of s.Extent is created on every
// call and shared by all targets.
func (m *Manager) BuildTargets(s *State, layout TargetLayout) (*Targets, error) {
	t := &Targets{
		Generation: s.Generation,
		Extent:     s.Extent,
		Layout:     layout,
		List:       make([]RenderTarget, 0, len(s.Images)),
	}

	if layout.HasDepth() {
		tex, err := m.dev.CreateTexture(&gpucore.TextureDesc{
			Label:  "g3d depth",
			Extent: s.Extent,
			Format: layout.DepthFormat,
			Usage:  gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return nil, fmt.Errorf("swapchain: create depth buffer %v: %w", s.Extent, err)
		}
		t.depth = tex
		view, err := m.dev.CreateTextureView(tex)
		if err != nil {
			t.Release(m.dev)
			return nil, fmt.Errorf("swapchain: create depth view: %w", err)
		}
		t.depthView = view
	}

	for i, img := range s.Images {
		view, err := m.dev.CreateTextureView(img)
		if err != nil {
			t.Release(m.dev)
			return nil, fmt.Errorf("swapchain: create view for image %d: %w", i, err)
		}
		t.List = append(t.List, RenderTarget{
			Index:      uint32(i),
			Image:      img,
			Color:      view,
			Depth:      t.depthView,
			Extent:     s.Extent,
			Generation: s.Generation,
		})
	}

	logging.Logger().Debug("render targets built",
		"generation", s.Generation,
		"targets", len(t.List),
		"depth", layout.HasDepth())
	return t, nil
}

// Release destroys the color views and the shared depth buffer.
func (t *Targets) Release(alloc gpucore.Allocator) {
	for i := range t.List {
		alloc.DestroyTextureView(t.List[i].Color)
	}
	t.List = nil
	alloc.DestroyTextureView(t.depthView)
	alloc.DestroyTexture(t.depth)
	t.depthView, t.depth = gpucore.InvalidID, gpucore.InvalidID
}
