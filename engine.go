// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package g3d

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/g3d/frame"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
	"github.com/gogpu/g3d/pipeline"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/window"
)

// ErrClosed is returned by Redraw and Run after Close.
var ErrClosed = errors.New("g3d: engine closed")

// Engine draws the scene to a window, one frame per redraw.
//
// The device and window are owned by the caller. An Engine is not safe
// for concurrent use.
type Engine struct {
	dev gpucore.Device
	win window.Provider

	scene   *scene.Scene
	mesh    *scene.GPUMesh
	builder *pipeline.Builder
	watcher *pipeline.Watcher
	sched   *frame.Scheduler

	closed bool
}

// New creates an Engine presenting to win through dev.
//
// The first swapchain is built for the current window size. A window with
// a zero size defers the build to the first redraw after a resize.
func New(dev gpucore.Device, win window.Provider, opts ...EngineOption) (*Engine, error) {
	if dev == nil || win == nil {
		return nil, errors.New("g3d: nil device or window")
	}
	o := newOptions(opts)

	e := &Engine{dev: dev, win: win, scene: scene.New()}
	if o.step != nil {
		e.scene.Step = *o.step
	}

	var err error
	if e.mesh, err = scene.Cube().Upload(dev); err != nil {
		return nil, fmt.Errorf("g3d: upload mesh: %w", err)
	}
	e.builder = pipeline.NewBuilder(dev, o.source, o.compile)
	if o.watch != "" {
		if e.watcher, err = pipeline.WatchShader(e.builder, o.watch); err != nil {
			e.mesh.Release(dev)
			return nil, err
		}
	}

	e.sched, err = frame.New(dev, e.builder, e.scene, e.mesh.Source(), window.PixelExtent(win), o.frame)
	if err != nil {
		e.release()
		return nil, fmt.Errorf("g3d: %w", err)
	}
	logging.Logger().Info("engine created", "device", dev.Name(), "extent", e.sched.Extent().String(),
		"chain", o.frame.Chain.String(), "uniforms", o.frame.Uniforms.String())
	return e, nil
}

// Resize records a new drawable size in pixels. The swapchain is rebuilt
// on the next redraw, never here.
func (e *Engine) Resize(width, height int) {
	e.sched.Resize(window.ResizeEvent(width, height).Extent())
}

// Redraw advances the scene by one rotation step and runs one draw cycle.
// It reports whether a frame was presented and asks the window for the
// next redraw. While the drawable size is zero the scene holds still.
//
// A fatal device error terminates the engine; the error wraps
// frame.ErrTerminated and every later Redraw returns it again.
func (e *Engine) Redraw() (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	if !e.sched.Extent().IsZero() {
		e.scene.Tick()
	}
	presented, err := e.sched.Draw()
	if err != nil {
		return false, err
	}
	e.win.RequestRedraw()
	return presented, nil
}

// Run processes window events until a Close event, the end of the event
// stream, cancellation of ctx or a fatal error. It returns ctx.Err() when
// ctx is done and nil on Close or the end of the stream.
func (e *Engine) Run(ctx context.Context, events <-chan window.Event) error {
	if e.closed {
		return ErrClosed
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			switch ev.Kind {
			case window.Resize:
				e.Resize(ev.Width, ev.Height)
			case window.Redraw:
				if _, err := e.Redraw(); err != nil {
					return err
				}
			case window.Close:
				logging.Logger().Debug("close requested")
				return nil
			}
		}
	}
}

// Scene returns the scene drawn by the engine.
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Scheduler returns the frame scheduler.
func (e *Engine) Scheduler() *frame.Scheduler { return e.sched }

// Stats returns the scheduler counters.
func (e *Engine) Stats() frame.Stats { return e.sched.Stats() }

// Err returns the fatal error that terminated the engine, or nil.
func (e *Engine) Err() error { return e.sched.Err() }

// Close waits for the device to go idle and releases every GPU object the
// engine created. The device and window stay open. Close is idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.sched.Close()
	return errors.Join(err, e.release())
}

func (e *Engine) release() error {
	var err error
	if e.watcher != nil {
		err = e.watcher.Close()
		e.watcher = nil
	}
	if e.mesh != nil {
		e.mesh.Release(e.dev)
		e.mesh = nil
	}
	return err
}
