// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline builds the render pipeline of the g3d engine.
//
// A [Builder] compiles the mesh shader (WGSL, via naga) against a render
// target layout and viewport and returns an immutable [State]. The engine
// holds exactly one live State and replaces it when the target layout or
// viewport changes, or when the shader source is reloaded.
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
	"github.com/gogpu/g3d/internal/native"
	"github.com/gogpu/g3d/recording"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/swapchain"
)

//go:embed shaders/mesh.wgsl
var meshShaderWGSL string

// DefaultShader returns the built-in lit mesh shader.
func DefaultShader() string { return meshShaderWGSL }

// Shader entry points.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Builder errors.
var (
	ErrEmptyShader = errors.New("pipeline: empty shader source")
	ErrCompile     = errors.New("pipeline: shader compilation failed")
)

// VertexLayouts returns the vertex buffer layouts: positions in slot 0 and
// normals in slot 1, both tightly packed vec3<f32>.
func VertexLayouts() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 12,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: 12,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
			},
		},
	}
}

// State is one build of the render pipeline. It is never modified after
// Build returns it.
type State struct {
	Generation uint64
	Layout     swapchain.TargetLayout
	Viewport   gpucore.Extent

	Pipeline       gpucore.RenderPipelineID
	PipelineLayout gpucore.PipelineLayoutID

	// UniformLayout is the layout of bind group 0, which holds the
	// per-frame uniform block.
	UniformLayout gpucore.BindGroupLayoutID

	shader gpucore.ShaderModuleID
}

// Recording returns the pipeline in the form the command recorder takes.
func (s *State) Recording() recording.Pipeline {
	return recording.Pipeline{ID: s.Pipeline, Generation: s.Generation}
}

// Matches reports whether the pipeline was built for layout and viewport.
func (s *State) Matches(layout swapchain.TargetLayout, viewport gpucore.Extent) bool {
	return s.Layout == layout && s.Viewport == viewport
}

// Release destroys the GPU objects, pipeline first.
func (s *State) Release(alloc gpucore.Allocator) {
	alloc.DestroyRenderPipeline(s.Pipeline)
	alloc.DestroyPipelineLayout(s.PipelineLayout)
	alloc.DestroyBindGroupLayout(s.UniformLayout)
	alloc.DestroyShaderModule(s.shader)
	logging.Logger().Debug("pipeline released", "generation", s.Generation)
}

// Builder builds pipelines from a WGSL source. The source may be replaced
// from another goroutine with SetSource; Build always uses the latest one.
type Builder struct {
	alloc gpucore.Allocator
	cache *native.ShaderCache

	mu         sync.Mutex
	source     string
	dirty      bool
	generation uint64
}

// NewBuilder creates a Builder for the given WGSL source, or the default
// shader when source is empty. compile may be nil to use naga.
func NewBuilder(alloc gpucore.Allocator, source string, compile native.CompileFunc) *Builder {
	if source == "" {
		source = meshShaderWGSL
	}
	return &Builder{
		alloc:  alloc,
		cache:  native.NewShaderCache(compile),
		source: source,
	}
}

// SetSource replaces the shader source and marks the builder dirty so
// that the next draw rebuilds the pipeline.
func (b *Builder) SetSource(wgsl string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if wgsl == b.source {
		return
	}
	b.source = wgsl
	b.dirty = true
}

// Dirty reports whether the source changed since the last Build.
func (b *Builder) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Compilations returns the number of distinct sources compiled.
func (b *Builder) Compilations() int { return b.cache.Compilations() }

// Build compiles the current source against layout and viewport.
// On failure nothing is left allocated. A source that fails to compile
// is not retried until SetSource replaces it.
func (b *Builder) Build(layout swapchain.TargetLayout, viewport gpucore.Extent) (*State, error) {
	b.mu.Lock()
	source := b.source
	b.mu.Unlock()

	if source == "" {
		return nil, ErrEmptyShader
	}
	spirv, err := b.cache.Compile(source)
	if err != nil {
		b.mu.Lock()
		if b.source == source {
			b.dirty = false
		}
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	s := &State{Layout: layout, Viewport: viewport}
	if err := b.create(s, spirv); err != nil {
		s.Release(b.alloc)
		return nil, err
	}

	b.mu.Lock()
	b.generation++
	s.Generation = b.generation
	if b.source == source {
		b.dirty = false
	}
	b.mu.Unlock()

	logging.Logger().Info("pipeline built",
		"generation", s.Generation,
		"color", layout.ColorFormat.String(),
		"depth", layout.HasDepth(),
		"viewport", viewport.String())
	return s, nil
}

func (b *Builder) create(s *State, spirv []uint32) error {
	var err error
	s.shader, err = b.alloc.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: "g3d mesh shader",
		SPIRV: spirv,
	})
	if err != nil {
		return fmt.Errorf("pipeline: create shader module: %w", err)
	}

	s.UniformLayout, err = b.alloc.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "g3d uniforms",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: scene.UniformSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("pipeline: create uniform layout: %w", err)
	}

	s.PipelineLayout, err = b.alloc.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:            "g3d pipeline layout",
		BindGroupLayouts: []gpucore.BindGroupLayoutID{s.UniformLayout},
	})
	if err != nil {
		return fmt.Errorf("pipeline: create pipeline layout: %w", err)
	}

	desc := &gpucore.RenderPipelineDesc{
		Label:         "g3d mesh pipeline",
		Layout:        s.PipelineLayout,
		Shader:        s.shader,
		VertexEntry:   VertexEntry,
		FragmentEntry: FragmentEntry,
		VertexBuffers: VertexLayouts(),
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			// The cube's quads alternate winding, so nothing is culled.
			CullMode: gputypes.CullModeNone,
		},
		ColorFormat:    s.Layout.ColorFormat,
		SampleCount:    1,
		ColorWriteMask: gputypes.ColorWriteMaskAll,
	}
	if s.Layout.HasDepth() {
		desc.DepthFormat = s.Layout.DepthFormat
		desc.DepthCompare = gputypes.CompareFunctionLess
		desc.DepthWrite = true
	}
	s.Pipeline, err = b.alloc.CreateRenderPipeline(desc)
	if err != nil {
		return fmt.Errorf("pipeline: create render pipeline: %w", err)
	}
	return nil
}
