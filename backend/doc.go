// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects a gpucore.Device implementation by name.
//
// # Backend Registration
//
// The simulated device and every hal backend registered with
// gogpu/wgpu/hal are available on import. The noop hal backend is always
// linked in. Import the hal backends you need for side effects and call
// [RegisterHAL] to expose them:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
//
//	backend.RegisterHAL()
//
// Avoid hal/allbackends: it links the software backend, which registers
// under the same variant as noop.
//
// # Backend Selection
//
// Use [Open] with a name from [Available], or [Auto] for the best
// available backend:
//
//	dev, err := backend.Open(backend.Auto, backend.Target{Size: win.Extent})
//
// # Available Backends
//
//   - "vulkan", "metal", "dx12", "gl": hardware via gogpu/wgpu/hal
//   - "noop": hal backend that executes nothing
//   - "sim": deterministic simulated device with an event log
package backend
