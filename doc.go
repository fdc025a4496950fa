// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package g3d presents a spinning 3D scene to a resizable surface.
//
// # Overview
//
// g3d drives an indefinite sequence of redraws against a GPU device and a
// window. Each redraw acquires a swapchain image, waits until the frame
// slot for that image is free, uploads the scene uniforms, submits the
// recorded draw and presents the image. Resizes and stale swapchains are
// absorbed: the swapchain, render targets and pipeline are rebuilt lazily
// on the next redraw.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/g3d"
//		"github.com/gogpu/g3d/backend"
//		"github.com/gogpu/g3d/window"
//	)
//
//	win := window.NewScripted(800, 600, window.Script(800, 600, 120, 0, 0)...)
//	dev, err := backend.Open(backend.Auto, backend.Target{Size: win.Extent})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	e, err := g3d.New(dev, win)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Close()
//
//	if err := e.Run(ctx, win.Events(ctx)); err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// The library is organized into:
//   - Public API: Engine, EngineOption, SetLogger
//   - Frame scheduling: frame (slots, invalidation, retire queue)
//   - Surface: swapchain (chains and render targets), window (events)
//   - Drawing: pipeline (WGSL via naga), recording (command sequences), scene
//   - Devices: gpucore (contract), backend/native (gogpu/wgpu hal), backend/sim
//
// # Threading
//
// An Engine is driven by one goroutine. The GPU runs asynchronously; the
// only blocking point of a redraw is the wait for the frame slot's
// previous submission.
package g3d

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
