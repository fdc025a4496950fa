// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtent(t *testing.T) {
	assert.True(t, Extent{}.IsZero())
	assert.True(t, Extent{Width: 10}.IsZero())
	assert.False(t, Extent{Width: 10, Height: 5}.IsZero())
	assert.InDelta(t, 2.0, Extent{Width: 10, Height: 5}.Aspect(), 1e-6)
	assert.InDelta(t, 1.0, Extent{}.Aspect(), 1e-6)
	assert.Equal(t, "800x600", Extent{Width: 800, Height: 600}.String())
}

func TestSurfaceCapabilitiesSupports(t *testing.T) {
	caps := SurfaceCapabilities{
		MinExtent: Extent{Width: 1, Height: 1},
		MaxExtent: Extent{Width: 4096, Height: 4096},
	}
	tests := []struct {
		name string
		e    Extent
		want bool
	}{
		{"zero", Extent{}, false},
		{"inside", Extent{Width: 800, Height: 600}, true},
		{"max", Extent{Width: 4096, Height: 4096}, true},
		{"too wide", Extent{Width: 4097, Height: 10}, false},
		{"too tall", Extent{Width: 10, Height: 5000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, caps.Supports(tt.e))
		})
	}

	unbounded := SurfaceCapabilities{}
	assert.True(t, unbounded.Supports(Extent{Width: 1 << 20, Height: 1 << 20}))
}

func TestErrorClassification(t *testing.T) {
	wrapped := func(err error) error { return fmt.Errorf("acquire: %w", err) }

	assert.True(t, IsStale(wrapped(ErrStale)))
	assert.False(t, IsTransient(wrapped(ErrStale)))
	assert.False(t, IsFatal(wrapped(ErrStale)))

	assert.True(t, IsTransient(wrapped(ErrNotReady)))
	assert.True(t, IsTransient(wrapped(ErrSurfaceLost)))
	assert.False(t, IsFatal(wrapped(ErrSurfaceLost)))

	assert.True(t, IsFatal(wrapped(ErrDeviceLost)))
	assert.True(t, IsFatal(wrapped(ErrOutOfMemory)))
	assert.True(t, IsFatal(errors.New("anything else")))
	assert.False(t, IsFatal(nil))
}
