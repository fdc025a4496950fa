// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/g3d/gpucore"
)

// Package errors for the hal backend.
var (
	// ErrNoBackend is returned when the requested hal backend is not registered.
	ErrNoBackend = errors.New("native: hal backend not registered")

	// ErrNoGPU is returned when no adapter can present to the surface.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNotAcquired is returned when a submission or present names an
	// image that is not currently acquired.
	ErrNotAcquired = errors.New("native: image not acquired")

	// ErrDestroyed is returned after Destroy.
	ErrDestroyed = errors.New("native: device destroyed")
)

// mapError translates hal failures into the gpucore taxonomy. The hal error
// stays in the chain for logging.
func mapError(err error) error {
	var kind error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrSurfaceOutdated):
		kind = gpucore.ErrStale
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		kind = gpucore.ErrNotReady
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrZeroArea):
		kind = gpucore.ErrSurfaceLost
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		kind = gpucore.ErrOutOfMemory
	case errors.Is(err, hal.ErrDeviceLost):
		kind = gpucore.ErrDeviceLost
	default:
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
