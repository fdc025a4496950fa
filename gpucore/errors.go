// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// Device errors. Backends map their native failures onto these so that
// callers can classify them with errors.Is.
var (
	// ErrStale is returned by acquire and present when the chain no longer
	// matches the surface. It is recovered by rebuilding the chain.
	ErrStale = errors.New("gpucore: swapchain out of date")

	// ErrNotReady is returned when the surface is temporarily unavailable,
	// for example when an acquire times out.
	ErrNotReady = errors.New("gpucore: surface not ready")

	// ErrSurfaceLost is returned when the surface cannot satisfy a request,
	// such as a chain extent outside its capabilities.
	ErrSurfaceLost = errors.New("gpucore: surface lost")

	// ErrOutOfMemory is returned when a buffer, texture or chain cannot be allocated.
	ErrOutOfMemory = errors.New("gpucore: out of memory")

	// ErrDeviceLost is returned when the device stopped working.
	ErrDeviceLost = errors.New("gpucore: device lost")

	// ErrInvalidID is returned when an operation references an unknown
	// or destroyed resource.
	ErrInvalidID = errors.New("gpucore: invalid resource id")
)

// IsStale reports whether err means the chain must be rebuilt.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }

// IsTransient reports whether err means the operation may succeed if
// retried later without any other change.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotReady) || errors.Is(err, ErrSurfaceLost)
}

// IsFatal reports whether err is neither stale nor transient.
func IsFatal(err error) bool {
	return err != nil && !IsStale(err) && !IsTransient(err)
}
