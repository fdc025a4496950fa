// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture or a swapchain image.
type TextureID uint64

// TextureViewID is an opaque handle to a texture view.
type TextureViewID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// RenderPipelineID is an opaque handle to a render pipeline.
type RenderPipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// SwapchainID is an opaque handle to a configured chain of presentable images.
type SwapchainID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// Token is an opaque completion token. The device signals it once the
// submission that produced it has finished executing.
//
// The zero Token means "no outstanding submission" and is always signaled.
type Token uint64

// NoToken is the zero Token.
const NoToken Token = 0

// Extent is a two-dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether the extent has no drawable area.
func (e Extent) IsZero() bool { return e.Width == 0 || e.Height == 0 }

// Aspect returns width divided by height, or 1 for a zero extent.
func (e Extent) Aspect() float32 {
	if e.IsZero() {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

func (e Extent) String() string { return fmt.Sprintf("%dx%d", e.Width, e.Height) }

// SurfaceCapabilities describes what a surface can present.
type SurfaceCapabilities struct {
	// MinImageCount is the smallest chain length the surface accepts.
	MinImageCount uint32

	// MaxImageCount is the largest chain length. Zero means no limit.
	MaxImageCount uint32

	// Formats lists presentable formats, preferred first.
	Formats []gputypes.TextureFormat

	// PresentModes lists supported presentation modes, preferred first.
	PresentModes []gputypes.PresentMode

	// CurrentExtent is the surface size reported by the window system.
	CurrentExtent Extent

	// MinExtent and MaxExtent bound the extent a chain may be built with.
	// A zero MaxExtent means no upper bound.
	MinExtent Extent
	MaxExtent Extent
}

// Supports reports whether a chain of the given extent can be built.
func (c *SurfaceCapabilities) Supports(e Extent) bool {
	if e.IsZero() {
		return false
	}
	if e.Width < c.MinExtent.Width || e.Height < c.MinExtent.Height {
		return false
	}
	if c.MaxExtent.Width > 0 && e.Width > c.MaxExtent.Width {
		return false
	}
	if c.MaxExtent.Height > 0 && e.Height > c.MaxExtent.Height {
		return false
	}
	return true
}

// SwapchainDesc describes a chain of presentable images.
type SwapchainDesc struct {
	Label       string
	Extent      Extent
	Format      gputypes.TextureFormat
	ImageCount  uint32
	PresentMode gputypes.PresentMode

	// Old is the chain being replaced, or InvalidID.
	Old SwapchainID
}

// AcquiredImage is the result of acquiring a presentable image.
type AcquiredImage struct {
	// Index selects the image within the chain.
	Index uint32

	// Suboptimal is set when the image can still be presented but the
	// chain no longer matches the surface exactly.
	Suboptimal bool
}

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Extent Extent
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []gputypes.BindGroupLayoutEntry
}

// BufferBinding binds a range of a buffer to a binding slot.
type BufferBinding struct {
	Binding uint32
	Buffer  BufferID
	Offset  uint64
	Size    uint64
}

// BindGroupDesc describes a bind group of buffer bindings.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Buffers []BufferBinding
}

// PipelineLayoutDesc describes a pipeline layout.
type PipelineLayoutDesc struct {
	Label            string
	BindGroupLayouts []BindGroupLayoutID
}

// ShaderModuleDesc describes a shader module. SPIRV takes precedence
// over WGSL when both are set.
type ShaderModuleDesc struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

// RenderPipelineDesc describes a render pipeline with one color target
// and an optional depth attachment.
type RenderPipelineDesc struct {
	Label          string
	Layout         PipelineLayoutID
	Shader         ShaderModuleID
	VertexEntry    string
	FragmentEntry  string
	VertexBuffers  []gputypes.VertexBufferLayout
	Primitive      gputypes.PrimitiveState
	ColorFormat    gputypes.TextureFormat
	DepthFormat    gputypes.TextureFormat // TextureFormatUndefined disables depth
	DepthCompare   gputypes.CompareFunction
	DepthWrite     bool
	SampleCount    uint32
	ColorWriteMask gputypes.ColorWriteMask
}

// PassDesc describes the single render pass a submission records into.
type PassDesc struct {
	Color      TextureViewID
	Depth      TextureViewID // InvalidID when depth is disabled
	ClearColor gputypes.Color
	ClearDepth float32
}
