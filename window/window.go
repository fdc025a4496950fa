// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window describes the surface provider the engine is driven by.
//
// A real window system implements [Provider] through the gpucontext
// interfaces and delivers [Event] values to the engine's event loop.
// [Scripted] replays a fixed list of events for headless runs and tests.
package window

import (
	"fmt"
	"math"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/g3d/gpucore"
)

// Provider is a window the engine presents to.
type Provider interface {
	gpucontext.WindowProvider
	gpucontext.EventSource
}

// EventKind identifies a window notification.
type EventKind uint8

const (
	// Resize reports a new drawable size in pixels.
	Resize EventKind = iota + 1

	// Redraw asks for one draw cycle.
	Redraw

	// Close ends the event loop.
	Close
)

func (k EventKind) String() string {
	switch k {
	case Resize:
		return "Resize"
	case Redraw:
		return "Redraw"
	case Close:
		return "Close"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is one window notification.
type Event struct {
	Kind EventKind

	// Width and Height are the drawable size in pixels for Resize events.
	Width  int
	Height int
}

// ResizeEvent returns a Resize event.
func ResizeEvent(width, height int) Event {
	return Event{Kind: Resize, Width: width, Height: height}
}

// RedrawEvent returns a Redraw event.
func RedrawEvent() Event { return Event{Kind: Redraw} }

// CloseEvent returns a Close event.
func CloseEvent() Event { return Event{Kind: Close} }

// Extent returns the size of a Resize event. Negative sizes clamp to zero.
func (e Event) Extent() gpucore.Extent {
	return gpucore.Extent{Width: clampDim(float64(e.Width)), Height: clampDim(float64(e.Height))}
}

func (e Event) String() string {
	if e.Kind == Resize {
		return fmt.Sprintf("Resize(%dx%d)", e.Width, e.Height)
	}
	return e.Kind.String()
}

// PixelExtent returns the drawable size of w in physical pixels.
func PixelExtent(w gpucontext.WindowProvider) gpucore.Extent {
	width, height := w.Size()
	scale := w.ScaleFactor()
	return gpucore.Extent{
		Width:  clampDim(math.Round(float64(width) * scale)),
		Height: clampDim(math.Round(float64(height) * scale)),
	}
}

func clampDim(v float64) uint32 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}
