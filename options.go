// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/g3d/frame"
)

// EngineOption configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Defaults: FIFO, min+1 images, 16-bit depth, blue clear color
//	e, err := g3d.New(dev, win)
//
//	// Triple buffering without a depth buffer
//	e, err := g3d.New(dev, win, g3d.WithImageCount(3), g3d.WithDepth(false))
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	frame frame.Options

	step    *f32.Vec3 // nil keeps the scene default
	source  string    // empty selects the built-in shader
	watch   string
	compile func(wgsl string) ([]uint32, error)
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{frame: frame.DefaultOptions()}
}

func newOptions(opts []EngineOption) engineOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithImageCount requests a swapchain length. The count is raised to one
// more than the surface minimum and clamped to the surface maximum.
func WithImageCount(n uint32) EngineOption {
	return func(o *engineOptions) {
		o.frame.Swapchain.ImageCount = n
	}
}

// WithPresentMode selects the presentation mode. Modes the surface does not
// support fall back to the first supported one.
func WithPresentMode(m gputypes.PresentMode) EngineOption {
	return func(o *engineOptions) {
		o.frame.Swapchain.PresentMode = m
	}
}

// WithDepth enables or disables the shared depth buffer.
// Enabling it keeps a format set by WithDepthFormat, or uses Depth16Unorm.
func WithDepth(enabled bool) EngineOption {
	return func(o *engineOptions) {
		switch {
		case !enabled:
			o.frame.Swapchain.DepthFormat = gputypes.TextureFormatUndefined
		case o.frame.Swapchain.DepthFormat == gputypes.TextureFormatUndefined:
			o.frame.Swapchain.DepthFormat = gputypes.TextureFormatDepth16Unorm
		}
	}
}

// WithDepthFormat sets the depth buffer format. TextureFormatUndefined
// disables depth.
func WithDepthFormat(f gputypes.TextureFormat) EngineOption {
	return func(o *engineOptions) {
		o.frame.Swapchain.DepthFormat = f
	}
}

// WithClearColor sets the color the target is cleared to each frame.
func WithClearColor(c gputypes.Color) EngineOption {
	return func(o *engineOptions) {
		o.frame.ClearColor = c
	}
}

// WithChainPolicy selects which completion token a submission waits on.
func WithChainPolicy(p frame.ChainPolicy) EngineOption {
	return func(o *engineOptions) {
		o.frame.Chain = p
	}
}

// WithUniformPolicy selects per-frame or per-slot uniform buffers.
func WithUniformPolicy(p frame.UniformPolicy) EngineOption {
	return func(o *engineOptions) {
		o.frame.Uniforms = p
	}
}

// WithWaitTimeout sets the length of one slot wait round.
// The wait itself is unbounded; each expired round is counted as a stall.
func WithWaitTimeout(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.frame.WaitTimeout = d
	}
}

// WithStallThreshold sets the waiting time after which stalls are logged
// as warnings.
func WithStallThreshold(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.frame.StallThreshold = d
	}
}

// WithAcquireTimeout bounds one image acquisition. A timed out acquire
// skips the cycle.
func WithAcquireTimeout(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.frame.AcquireTimeout = d
	}
}

// WithRotationStep sets the rotation in radians added to the model
// around x, y and z before every redraw.
//
// Example:
//
//	// Spin slowly around y
//	e, err := g3d.New(dev, win, g3d.WithRotationStep(0, 0.02, 0))
func WithRotationStep(x, y, z float32) EngineOption {
	return func(o *engineOptions) {
		o.step = &f32.Vec3{x, y, z}
	}
}

// WithShaderSource replaces the built-in WGSL shader. The shader must
// keep the built-in entry points, vertex layout and uniform block.
func WithShaderSource(wgsl string) EngineOption {
	return func(o *engineOptions) {
		o.source = wgsl
	}
}

// WithShaderWatch loads the WGSL shader from path and reloads it whenever
// the file changes. The pipeline is rebuilt on the next redraw; a shader
// that fails to compile leaves the previous pipeline in use.
func WithShaderWatch(path string) EngineOption {
	return func(o *engineOptions) {
		o.watch = path
	}
}

// WithShaderCompiler replaces the naga WGSL to SPIR-V compiler.
func WithShaderCompiler(compile func(wgsl string) ([]uint32, error)) EngineOption {
	return func(o *engineOptions) {
		o.compile = compile
	}
}

// WithObserver registers a callback that receives every scheduler step.
// It runs on the goroutine that drives the engine.
func WithObserver(fn func(frame.Event)) EngineOption {
	return func(o *engineOptions) {
		o.frame.Observer = fn
	}
}
