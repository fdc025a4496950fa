// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Allocator creates and destroys GPU resources.
//
// Destroy methods accept InvalidID and unknown IDs silently.
type Allocator interface {
	CreateBuffer(desc *BufferDesc) (BufferID, error)
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into the buffer at offset. The write is
	// ordered before any submission issued after it returns.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	CreateTexture(desc *TextureDesc) (TextureID, error)
	DestroyTexture(id TextureID)

	// CreateTextureView creates a full view of a texture or swapchain image.
	CreateTextureView(tex TextureID) (TextureViewID, error)
	DestroyTextureView(id TextureViewID)

	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)
	DestroyBindGroupLayout(id BindGroupLayoutID)

	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)
	DestroyBindGroup(id BindGroupID)

	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)
	DestroyPipelineLayout(id PipelineLayoutID)

	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)
	DestroyShaderModule(id ShaderModuleID)

	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)
	DestroyRenderPipeline(id RenderPipelineID)
}

// Presenter owns the chain of presentable images of one surface.
type Presenter interface {
	// SurfaceCapabilities queries the live surface.
	SurfaceCapabilities() (SurfaceCapabilities, error)

	// ConfigureSwapchain builds a chain and returns its images in index order.
	// desc.Old, when set, is retired by the new chain but must still be
	// destroyed with DestroySwapchain.
	ConfigureSwapchain(desc *SwapchainDesc) (SwapchainID, []TextureID, error)
	DestroySwapchain(id SwapchainID)

	// AcquireNextImage returns the next image to render into. It fails with
	// ErrStale when the chain must be rebuilt and ErrNotReady on timeout.
	AcquireNextImage(sc SwapchainID, timeout time.Duration) (AcquiredImage, error)

	// Present queues the image for display once wait has signaled.
	Present(sc SwapchainID, image uint32, wait Token) error
}

// Commands is a replayable command sequence for one render pass.
type Commands interface {
	// Pass returns the attachments and clear values of the pass.
	Pass() PassDesc

	// Playback replays the commands onto enc.
	Playback(enc RenderPassEncoder) error
}

// RenderPassEncoder receives the commands of one render pass.
type RenderPassEncoder interface {
	SetPipeline(pipeline RenderPipelineID)
	SetBindGroup(index uint32, group BindGroupID)
	SetVertexBuffer(slot uint32, buffer BufferID, offset uint64)
	SetIndexBuffer(buffer BufferID, format gputypes.IndexFormat, offset uint64)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// SubmitInfo describes one submission.
type SubmitInfo struct {
	Label    string
	Commands Commands

	// Swapchain and Image identify the acquired image the submission
	// renders into; execution starts only after that image is available.
	Swapchain SwapchainID
	Image     uint32

	// After lists tokens that must signal before execution starts.
	// NoToken entries are ignored.
	After []Token
}

// Queue executes submissions and reports their completion.
type Queue interface {
	// Submit queues the commands and returns the token that signals
	// once they have finished executing.
	Submit(info *SubmitInfo) (Token, error)

	// Wait blocks until t has signaled or timeout elapses. It reports
	// whether the token signaled.
	Wait(t Token, timeout time.Duration) (bool, error)

	// IsSignaled polls t without blocking.
	IsSignaled(t Token) bool

	// WaitIdle blocks until every submission has completed.
	WaitIdle() error
}

// Device is the full backend device used by the engine.
type Device interface {
	Allocator
	Presenter
	Queue

	// Name identifies the backend, e.g. "sim" or "vulkan".
	Name() string

	// Destroy releases the device. It must not be used afterwards.
	Destroy()
}
