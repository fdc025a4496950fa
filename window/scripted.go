// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"context"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/g3d/gpucore"
)

// Scripted is a headless Provider that replays a fixed event script.
//
// Sizes are in pixels with a scale factor of 1. Resize callbacks
// registered with OnResize run on the goroutine started by Events, before
// the Resize event is delivered.
type Scripted struct {
	gpucontext.NullEventSource

	mu       sync.Mutex
	width    int
	height   int
	script   []Event
	onResize []func(width, height int)
	redraws  int
}

var _ Provider = (*Scripted)(nil)

// NewScripted returns a window of the given size that will replay script.
func NewScripted(width, height int, script ...Event) *Scripted {
	return &Scripted{width: width, height: height, script: script}
}

// Size returns the current size.
func (s *Scripted) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// ScaleFactor returns 1.
func (s *Scripted) ScaleFactor() float64 { return 1 }

// RequestRedraw counts redraw requests.
func (s *Scripted) RequestRedraw() {
	s.mu.Lock()
	s.redraws++
	s.mu.Unlock()
}

// RedrawRequests returns how many redraws were requested.
func (s *Scripted) RedrawRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redraws
}

// Extent returns the current size as an extent.
func (s *Scripted) Extent() gpucore.Extent { return PixelExtent(s) }

// OnResize registers a resize callback.
func (s *Scripted) OnResize(fn func(width, height int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResize = append(s.onResize, fn)
}

// Script returns a copy of the event script.
func (s *Scripted) Script() []Event {
	return append([]Event(nil), s.script...)
}

// Events starts replaying the script and returns the event channel. The
// channel is closed after the last event or when ctx is done.
func (s *Scripted) Events(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for _, ev := range s.script {
			if ev.Kind == Resize {
				s.resize(ev.Width, ev.Height)
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (s *Scripted) resize(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	fns := slices.Clone(s.onResize)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(width, height)
	}
}

// Script builds an event script of frames redraws with a resize every
// resizeEvery redraws, alternating between the base size and a size grown
// by step pixels. A resizeEvery of zero never resizes. The script ends with
// Close.
func Script(width, height, frames, resizeEvery, step int) []Event {
	events := make([]Event, 0, frames+frames/max(resizeEvery, 1)+1)
	grown := false
	for i := 1; i <= frames; i++ {
		events = append(events, RedrawEvent())
		if resizeEvery > 0 && i%resizeEvery == 0 && i < frames {
			grown = !grown
			if grown {
				events = append(events, ResizeEvent(width+step, height+step))
			} else {
				events = append(events, ResizeEvent(width, height))
			}
		}
	}
	return append(events, CloseEvent())
}
