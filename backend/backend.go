// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/g3d/gpucore"
)

// Backend names.
const (
	Sim    = "sim"
	Noop   = "noop"
	Vulkan = "vulkan"
	Metal  = "metal"
	DX12   = "dx12"
	GL     = "gl"

	// Auto selects the best available backend.
	Auto = "auto"
)

// ErrBackendNotAvailable is returned when a requested backend is not registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Target is the window a device presents to.
type Target struct {
	// DisplayHandle and WindowHandle are the native handles of the window.
	// Both are zero for headless runs.
	DisplayHandle uintptr
	WindowHandle  uintptr

	// Size reports the drawable size in pixels, or nil when unknown.
	Size func() gpucore.Extent
}

// Opener opens a device for a target.
type Opener func(Target) (gpucore.Device, error)
