// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/g3d/backend/native"
	"github.com/gogpu/g3d/backend/sim"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
)

// Priority order for backend selection (first available wins).
// Hardware first, then the noop hal backend, then the simulator.
var priority = []string{Vulkan, Metal, DX12, GL, Noop, Sim}

var registry = gpucontext.NewRegistry[Opener](gpucontext.WithPriority(priority...))

func init() {
	Register(Sim, openSim)
	RegisterHAL()
}

// Register registers an opener under name, replacing any previous one.
func Register(name string, open Opener) {
	registry.Register(name, func() Opener { return open })
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return registry.Has(name)
}

// Available returns the registered backend names, best first.
func Available() []string {
	names := registry.Available()
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a, b))
	})
	return names
}

func rank(name string) int {
	if i := slices.Index(priority, name); i >= 0 {
		return i
	}
	return len(priority)
}

// Default returns the name of the best available backend.
func Default() string {
	return registry.BestName()
}

// Open opens the named backend. An empty name or Auto opens Default.
func Open(name string, t Target) (gpucore.Device, error) {
	if name == "" || name == Auto {
		name = Default()
	}
	open := registry.Get(name)
	if open == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := open(t)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", name, err)
	}
	logging.Logger().Info("backend: device opened", "backend", dev.Name())
	return dev, nil
}

// RegisterHAL registers every backend currently registered with the hal
// package. Call it after importing hal backends for side effects.
func RegisterHAL() {
	for _, variant := range hal.AvailableBackends() {
		name := halName(variant)
		if name == "" {
			continue
		}
		Register(name, func(t Target) (gpucore.Device, error) {
			return native.Open(native.Config{
				Backend:       variant,
				DisplayHandle: t.DisplayHandle,
				WindowHandle:  t.WindowHandle,
				Size:          t.Size,
			})
		})
	}
}

func halName(b gputypes.Backend) string {
	switch b {
	case gputypes.BackendEmpty:
		return Noop
	case gputypes.BackendVulkan:
		return Vulkan
	case gputypes.BackendMetal:
		return Metal
	case gputypes.BackendDX12:
		return DX12
	case gputypes.BackendGL:
		return GL
	default:
		return ""
	}
}

func openSim(t Target) (gpucore.Device, error) {
	var opts []sim.Option
	if t.Size != nil {
		opts = append(opts, sim.WithSurfaceSize(t.Size))
	}
	return sim.New(opts...), nil
}
