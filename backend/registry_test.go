// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/g3d/gpucore"
)

func TestBuiltinBackends(t *testing.T) {
	assert.True(t, IsRegistered(Sim))
	assert.True(t, IsRegistered(Noop))

	names := Available()
	require.GreaterOrEqual(t, len(names), 2)
	assert.Equal(t, []string{Noop, Sim}, names[len(names)-2:], "software backends rank last")
}

func TestOpenByName(t *testing.T) {
	size := func() gpucore.Extent { return gpucore.Extent{Width: 64, Height: 48} }
	for _, name := range []string{Sim, Noop} {
		t.Run(name, func(t *testing.T) {
			dev, err := Open(name, Target{Size: size})
			require.NoError(t, err)
			defer dev.Destroy()
			assert.Equal(t, name, dev.Name())

			caps, err := dev.SurfaceCapabilities()
			require.NoError(t, err)
			assert.Equal(t, size(), caps.CurrentExtent)
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("software", Target{})
	assert.ErrorIs(t, err, ErrBackendNotAvailable)
}

func TestRegisterOverridesAndAuto(t *testing.T) {
	errBroken := errors.New("broken")
	Register(Vulkan, func(Target) (gpucore.Device, error) { return nil, errBroken })
	t.Cleanup(func() { Unregister(Vulkan); RegisterHAL() })

	assert.Equal(t, Vulkan, Default())
	assert.Equal(t, Vulkan, Available()[0])
	_, err := Open(Auto, Target{})
	assert.ErrorIs(t, err, errBroken)

	Unregister(Vulkan)
	assert.False(t, IsRegistered(Vulkan))
}
