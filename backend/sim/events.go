// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
)

// Op identifies a logged device operation.
type Op uint8

const (
	OpConfigure Op = iota + 1
	OpDestroySwapchain
	OpAcquire
	OpSubmit
	OpPresent
	OpWait
)

var opNames = [...]string{
	OpConfigure:        "configure",
	OpDestroySwapchain: "destroy-swapchain",
	OpAcquire:          "acquire",
	OpSubmit:           "submit",
	OpPresent:          "present",
	OpWait:             "wait",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Event is one logged device operation.
type Event struct {
	Op        Op
	Swapchain gpucore.SwapchainID
	Image     uint32
	Old       gpucore.SwapchainID // chain replaced by an OpConfigure
	Extent    gpucore.Extent

	// Token is the submission token for OpSubmit, the awaited token for
	// OpWait and the wait token for OpPresent.
	Token gpucore.Token

	// After holds the tokens an OpSubmit waits on.
	After []gpucore.Token

	// Color is the color view an OpSubmit renders into.
	Color gpucore.TextureViewID

	// Blocked is set on OpWait when the token had not signaled yet.
	Blocked bool

	// TimedOut is set on OpWait when the wait gave up.
	TimedOut bool

	Suboptimal bool
	Err        error
}

func (e Event) String() string {
	s := fmt.Sprintf("%v sc=%d img=%d tok=%d", e.Op, e.Swapchain, e.Image, e.Token)
	if e.Err != nil {
		s += " err=" + e.Err.Error()
	}
	return s
}

// record appends to the event log. Callers hold d.mu.
func (d *Device) record(e Event) {
	d.events = append(d.events, e)
}
