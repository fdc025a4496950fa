// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the backend device contract of the g3d engine.
//
// The engine never touches a graphics API directly. It talks to a [Device],
// which combines three concerns:
//
//   - [Allocator]: buffers, textures, views, bind groups and pipelines,
//     referenced through opaque uint64 IDs
//   - [Presenter]: the chain of presentable images of one surface
//   - [Queue]: submission and completion tracking via [Token]
//
// Implementations live under backend/:
//
//	               +-----------------+
//	               |  frame, g3d     |
//	               +--------+--------+
//	                        |  gpucore.Device
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          |  backend/sim    |
//	|  (hal.Device)   |          | (deterministic) |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	+-----------------+
//
// # Completion tokens
//
// A [Token] is returned by Queue.Submit and signals once the submission has
// finished. Queue.Wait blocks on a token and Queue.IsSignaled polls it.
// The zero token is always signaled.
//
// # Errors
//
// Devices report failures with the sentinels in errors.go. [ErrStale] means
// the chain must be rebuilt; [ErrNotReady] and [ErrSurfaceLost] are transient;
// everything else is fatal.
package gpucore
