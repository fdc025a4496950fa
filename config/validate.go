// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/frame"
)

var backends = []string{"auto", "sim", "noop", "vulkan", "metal", "dx12", "gl"}

// Validate checks every field and returns all problems found.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !slices.Contains(backends, c.Backend) {
		invalid("backend %q", c.Backend)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.Frames < 0 || c.Window.ResizeEvery < 0 {
		invalid("window frames %d, resize_every %d", c.Window.Frames, c.Window.ResizeEvery)
	}
	if _, err := ParsePresentMode(c.Swapchain.PresentMode); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDepthFormat(c.Swapchain.DepthFormat); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseChainPolicy(c.Frame.Chain); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseUniformPolicy(c.Frame.Uniforms); err != nil {
		errs = append(errs, err)
	}
	if len(c.Frame.ClearColor) != 4 {
		invalid("clear_color needs 4 components, got %d", len(c.Frame.ClearColor))
	}
	for _, d := range []struct {
		name string
		v    Duration
	}{
		{"wait_timeout", c.Frame.WaitTimeout},
		{"stall_threshold", c.Frame.StallThreshold},
		{"acquire_timeout", c.Frame.AcquireTimeout},
	} {
		if d.v <= 0 {
			invalid("%s %v", d.name, d.v)
		}
	}
	if len(c.Scene.RotationStep) != 3 {
		invalid("rotation_step needs 3 components, got %d", len(c.Scene.RotationStep))
	}
	if c.Shader.Watch && c.Shader.Path == "" {
		invalid("shader.watch without shader.path")
	}
	return errors.Join(errs...)
}

// ParsePresentMode parses fifo, fifo-relaxed, immediate or mailbox.
func ParsePresentMode(s string) (gputypes.PresentMode, error) {
	switch strings.ToLower(s) {
	case "fifo", "":
		return gputypes.PresentModeFifo, nil
	case "fifo-relaxed":
		return gputypes.PresentModeFifoRelaxed, nil
	case "immediate":
		return gputypes.PresentModeImmediate, nil
	case "mailbox":
		return gputypes.PresentModeMailbox, nil
	default:
		return gputypes.PresentModeUndefined, fmt.Errorf("%w: present_mode %q", ErrInvalid, s)
	}
}

// ParseDepthFormat parses depth16unorm, depth24plus or depth32float.
func ParseDepthFormat(s string) (gputypes.TextureFormat, error) {
	switch strings.ToLower(s) {
	case "depth16unorm", "":
		return gputypes.TextureFormatDepth16Unorm, nil
	case "depth24plus":
		return gputypes.TextureFormatDepth24Plus, nil
	case "depth32float":
		return gputypes.TextureFormatDepth32Float, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: depth_format %q", ErrInvalid, s)
	}
}

// ParseChainPolicy parses own-slot or previous-submission.
func ParseChainPolicy(s string) (frame.ChainPolicy, error) {
	for _, p := range []frame.ChainPolicy{frame.ChainOwnSlot, frame.ChainPreviousSubmission} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	if s == "" {
		return frame.ChainOwnSlot, nil
	}
	return 0, fmt.Errorf("%w: chain %q", ErrInvalid, s)
}

// ParseUniformPolicy parses per-frame or per-slot.
func ParseUniformPolicy(s string) (frame.UniformPolicy, error) {
	for _, p := range []frame.UniformPolicy{frame.UniformPerFrame, frame.UniformPerSlot} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	if s == "" {
		return frame.UniformPerFrame, nil
	}
	return 0, fmt.Errorf("%w: uniforms %q", ErrInvalid, s)
}

// Options validates c and converts it to engine options.
func (c *Config) Options() ([]g3d.EngineOption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, _ := ParsePresentMode(c.Swapchain.PresentMode)
	depth, _ := ParseDepthFormat(c.Swapchain.DepthFormat)
	chain, _ := ParseChainPolicy(c.Frame.Chain)
	uniforms, _ := ParseUniformPolicy(c.Frame.Uniforms)
	cc := c.Frame.ClearColor
	step := c.Scene.RotationStep

	opts := []g3d.EngineOption{
		g3d.WithImageCount(c.Swapchain.ImageCount),
		g3d.WithPresentMode(mode),
		g3d.WithDepthFormat(depth),
		g3d.WithDepth(c.Swapchain.Depth),
		g3d.WithChainPolicy(chain),
		g3d.WithUniformPolicy(uniforms),
		g3d.WithClearColor(gputypes.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		g3d.WithWaitTimeout(c.Frame.WaitTimeout.Std()),
		g3d.WithStallThreshold(c.Frame.StallThreshold.Std()),
		g3d.WithAcquireTimeout(c.Frame.AcquireTimeout.Std()),
		g3d.WithRotationStep(step[0], step[1], step[2]),
	}
	switch {
	case c.Shader.Watch:
		opts = append(opts, g3d.WithShaderWatch(c.Shader.Path))
	case c.shaderSource != "":
		opts = append(opts, g3d.WithShaderSource(c.shaderSource))
	}
	return opts, nil
}
