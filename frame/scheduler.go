// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame schedules the draw cycles of the g3d engine.
//
// A [Scheduler] keeps one frame slot per swapchain image. Each call to
// [Scheduler.Draw] runs one cycle:
//
//  1. rebuild the swapchain, render targets and pipeline if the surface
//     was resized or reported stale (lazily, only here);
//  2. acquire the next image;
//  3. wait for the slot's previous submission, the only blocking point;
//  4. upload a snapshot of the scene uniforms;
//  5. submit the slot's command sequence;
//  6. present and keep the completion token in the slot.
//
// A stale acquire or present sets the out-of-date flag and is handled on
// the next cycle. Any other device error terminates the scheduler.
//
// The swapchain and pipeline builds are immutable and reference counted
// by the in-flight frames that use them; a superseded build is released
// when its last frame completes.
//
// A Scheduler is driven by a single goroutine and is not safe for
// concurrent use.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/logging"
	"github.com/gogpu/g3d/pipeline"
	"github.com/gogpu/g3d/recording"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/swapchain"
)

// Scheduler errors.
var (
	// ErrTerminated is returned by Draw after a fatal error or Close.
	ErrTerminated = errors.New("frame: scheduler terminated")

	// ErrClosed is the cause of ErrTerminated after Close.
	ErrClosed = errors.New("frame: scheduler closed")
)

// ChainPolicy selects the completion token a submission waits on.
type ChainPolicy uint8

const (
	// ChainOwnSlot makes a submission wait on the previous token of its
	// own slot, which the slot wait has already observed.
	ChainOwnSlot ChainPolicy = iota

	// ChainPreviousSubmission makes a submission wait on the token of the
	// previous submission, whatever slot it used.
	ChainPreviousSubmission
)

func (p ChainPolicy) String() string {
	if p == ChainPreviousSubmission {
		return "previous-submission"
	}
	return "own-slot"
}

// UniformPolicy selects how per-frame uniforms are allocated.
type UniformPolicy uint8

const (
	// UniformPerFrame allocates a new uniform buffer and bind group for
	// every frame and frees them once the frame completes.
	UniformPerFrame UniformPolicy = iota

	// UniformPerSlot keeps one uniform buffer and bind group per slot and
	// rewrites it after the slot wait. The slot's recorded sequence is
	// then resubmitted verbatim.
	UniformPerSlot
)

func (p UniformPolicy) String() string {
	if p == UniformPerSlot {
		return "per-slot"
	}
	return "per-frame"
}

// State is the global scheduler state.
type State uint8

const (
	Ready State = iota
	AwaitingRebuild
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case AwaitingRebuild:
		return "AwaitingRebuild"
	default:
		return "Terminated"
	}
}

// Snapshotter provides the uniforms for one frame.
type Snapshotter interface {
	Snapshot(extent gpucore.Extent) scene.Uniforms
}

// Options configures a Scheduler.
type Options struct {
	Swapchain swapchain.Options

	Chain    ChainPolicy
	Uniforms UniformPolicy

	ClearColor gputypes.Color
	ClearDepth float32

	// AcquireTimeout bounds one image acquisition.
	AcquireTimeout time.Duration

	// WaitTimeout bounds one round of the slot wait. The wait keeps
	// going after a round expires.
	WaitTimeout time.Duration

	// StallThreshold is the waiting time after which each expired round
	// logs a warning.
	StallThreshold time.Duration

	// Observer, if set, receives every scheduler step.
	Observer func(Event)
}

// DefaultOptions returns a blue clear color, depth cleared to 1 and
// own-slot chaining with per-frame uniforms.
func DefaultOptions() Options {
	return Options{
		Swapchain:      swapchain.DefaultOptions(),
		ClearColor:     gputypes.Color{R: 0, G: 0, B: 1, A: 1},
		ClearDepth:     1,
		AcquireTimeout: time.Second,
		WaitTimeout:    100 * time.Millisecond,
		StallThreshold: time.Second,
	}
}

// Scheduler runs draw cycles against a device.
type Scheduler struct {
	dev      gpucore.Device
	opts     Options
	manager  *swapchain.Manager
	builder  *pipeline.Builder
	recorder *recording.Recorder
	scene    Snapshotter
	vertices recording.VertexSource

	extent    gpucore.Extent
	resized   bool
	outOfDate bool
	built     bool

	chain *lease[*chainSet]
	pipe  *lease[*pipeline.State]
	slots []*slot

	retiring []*record
	prev     gpucore.Token

	cycle  uint64
	stats  Stats
	err    error
	closed bool
}

// New creates a Scheduler and builds the first swapchain for extent.
// With a zero extent the build is deferred to the first Draw with a
// non-zero surface.
func New(dev gpucore.Device, builder *pipeline.Builder, sc Snapshotter, vertices recording.VertexSource,
	extent gpucore.Extent, opts Options) (*Scheduler, error) {
	s := &Scheduler{
		dev:      dev,
		opts:     opts,
		manager:  swapchain.NewManager(dev, opts.Swapchain),
		builder:  builder,
		recorder: recording.NewRecorder(opts.ClearColor, opts.ClearDepth),
		scene:    sc,
		vertices: vertices,
		extent:   extent,
		resized:  true,
	}
	if extent.IsZero() {
		return s, nil
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize records a new surface extent. Nothing is rebuilt until the next
// Draw, which rebuilds once however many resizes came before it. A resize
// to the current extent still forces that rebuild.
func (s *Scheduler) Resize(extent gpucore.Extent) {
	s.resized = true
	if extent == s.extent {
		return
	}
	s.extent = extent
	logging.Logger().Debug("surface resized", "extent", extent.String())
}

// Invalidate marks the swapchain out of date.
func (s *Scheduler) Invalidate() { s.outOfDate = true }

// Extent returns the last surface extent.
func (s *Scheduler) Extent() gpucore.Extent { return s.extent }

// State returns the global state.
func (s *Scheduler) State() State {
	switch {
	case s.err != nil, s.closed:
		return Terminated
	case s.resized || s.outOfDate:
		return AwaitingRebuild
	default:
		return Ready
	}
}

// Invalidation returns the two invalidation flags.
func (s *Scheduler) Invalidation() (resized, outOfDate bool) { return s.resized, s.outOfDate }

// Err returns the fatal error that terminated the scheduler, or nil.
func (s *Scheduler) Err() error { return s.err }

// Stats returns the counters.
func (s *Scheduler) Stats() Stats { return s.stats }

// Swapchain returns the current swapchain build, or nil.
func (s *Scheduler) Swapchain() *swapchain.State {
	if s.chain == nil {
		return nil
	}
	return s.chain.value.state
}

// Targets returns the current render targets, or nil.
func (s *Scheduler) Targets() *swapchain.Targets {
	if s.chain == nil {
		return nil
	}
	return s.chain.value.targets
}

// Pipeline returns the current pipeline build, or nil.
func (s *Scheduler) Pipeline() *pipeline.State {
	if s.pipe == nil {
		return nil
	}
	return s.pipe.value
}

// Slots returns the number of frame slots.
func (s *Scheduler) Slots() int { return len(s.slots) }

// SlotState returns the state of slot i.
func (s *Scheduler) SlotState(i int) SlotState {
	if i < 0 || i >= len(s.slots) {
		return SlotIdle
	}
	return s.slots[i].state()
}

// Retiring returns the number of dropped frames whose resources wait for
// their completion token.
func (s *Scheduler) Retiring() int { return len(s.retiring) }

func (s *Scheduler) emit(kind EventKind, slot int) {
	if s.opts.Observer != nil {
		s.opts.Observer(Event{Kind: kind, Slot: slot, Cycle: s.cycle})
	}
}

// terminate records a fatal error. Later Draw calls return it.
func (s *Scheduler) terminate(err error) error {
	s.err = err
	logging.Logger().Error("frame scheduler terminated", "cycle", s.cycle, "err", err)
	s.emit(EventTerminate, -1)
	return fmt.Errorf("%w: %w", ErrTerminated, err)
}

// skip ends a cycle that did nothing.
func (s *Scheduler) skip(reason string, err error) {
	s.stats.Skipped++
	logging.Logger().Debug("frame skipped", "cycle", s.cycle, "reason", reason, "err", err)
	s.emit(EventSkip, -1)
}

// stale sets the out-of-date flag.
func (s *Scheduler) stale(slot int, err error) {
	s.outOfDate = true
	s.stats.Stale++
	logging.Logger().Debug("swapchain out of date", "cycle", s.cycle, "err", err)
	s.emit(EventStale, slot)
}

// Draw runs one draw cycle and reports whether a frame was presented.
//
// Staleness and transient surface conditions are absorbed and reported as
// (false, nil). Any other error terminates the scheduler and is returned
// wrapped in ErrTerminated, now and on every later call.
func (s *Scheduler) Draw() (bool, error) {
	if s.closed {
		return false, fmt.Errorf("%w: %w", ErrTerminated, ErrClosed)
	}
	if s.err != nil {
		return false, fmt.Errorf("%w: %w", ErrTerminated, s.err)
	}
	s.cycle++
	s.stats.Cycles++

	if s.extent.IsZero() {
		s.skip("zero extent", nil)
		return false, nil
	}
	s.collect()

	// 1. Lazy rebuild.
	if s.resized || s.outOfDate || s.chain == nil {
		if err := s.rebuild(); err != nil {
			if gpucore.IsTransient(err) {
				s.skip("rebuild", err)
				return false, nil
			}
			return false, s.terminate(err)
		}
	} else if s.builder.Dirty() {
		if err := s.rebuildPipeline(); err != nil {
			return false, s.terminate(err)
		}
	}
	chain, pipe := s.chain, s.pipe
	st := chain.value.state

	// 2. Acquire.
	img, err := s.dev.AcquireNextImage(st.ID, s.opts.AcquireTimeout)
	switch {
	case err == nil:
	case gpucore.IsStale(err), errors.Is(err, gpucore.ErrSurfaceLost):
		s.stale(-1, err)
		return false, nil
	case errors.Is(err, gpucore.ErrNotReady):
		s.skip("acquire", err)
		return false, nil
	default:
		return false, s.terminate(fmt.Errorf("frame: acquire: %w", err))
	}
	if int(img.Index) >= len(s.slots) {
		return false, s.terminate(fmt.Errorf("frame: acquired image %d of %d: %w",
			img.Index, len(s.slots), gpucore.ErrInvalidID))
	}
	sl := s.slots[img.Index]
	s.emit(EventAcquire, sl.index)
	if img.Suboptimal {
		s.stats.Suboptimal++
		s.outOfDate = true
	}

	// 3. Slot wait.
	prior, err := s.waitSlot(sl)
	if err != nil {
		return false, s.terminate(err)
	}

	// 4. Uniforms.
	u, err := s.uniformsFor(sl, pipe.value)
	if err != nil {
		return false, s.terminate(err)
	}
	snap := s.scene.Snapshot(st.Extent)
	if err := s.dev.WriteBuffer(u.buffer, 0, snap.Bytes()); err != nil {
		s.dropUniforms(sl, u)
		return false, s.terminate(fmt.Errorf("frame: upload uniforms: %w", err))
	}

	// 5. Record and submit.
	rt, _ := chain.value.targets.At(img.Index)
	seq, recorded, err := sl.cache.Sequence(s.recorder, rt.Recording(), pipe.value.Recording(),
		pipe.value.PipelineLayout, u.group, s.vertices)
	if err != nil {
		s.dropUniforms(sl, u)
		return false, s.terminate(err)
	}
	if recorded {
		s.stats.Records++
		s.emit(EventRecord, sl.index)
	}

	var after []gpucore.Token
	switch s.opts.Chain {
	case ChainPreviousSubmission:
		if s.prev != gpucore.NoToken {
			after = []gpucore.Token{s.prev}
		}
	default:
		if prior != gpucore.NoToken {
			after = []gpucore.Token{prior}
		}
	}
	tok, err := s.dev.Submit(&gpucore.SubmitInfo{
		Label:     "g3d frame",
		Commands:  seq,
		Swapchain: st.ID,
		Image:     img.Index,
		After:     after,
	})
	if err != nil {
		s.dropUniforms(sl, u)
		return false, s.terminate(fmt.Errorf("frame: submit: %w", err))
	}
	s.stats.Submissions++
	s.emit(EventSubmit, sl.index)

	rec := &record{token: tok, slot: sl.index, chain: chain, pipe: pipe}
	chain.hold()
	pipe.hold()
	if s.opts.Uniforms == UniformPerFrame {
		rec.uniform = u
	}
	sl.inflight = rec

	// 6. Present.
	err = s.dev.Present(st.ID, img.Index, tok)
	s.trackInFlight()
	switch {
	case err == nil:
	case gpucore.IsStale(err), errors.Is(err, gpucore.ErrSurfaceLost):
		// The frame is unobservable; its resources wait in the retire
		// queue for the dropped token.
		s.retireSlot(sl)
		s.prev = gpucore.NoToken
		s.stale(sl.index, err)
		return false, nil
	default:
		return false, s.terminate(fmt.Errorf("frame: present: %w", err))
	}
	s.prev = tok
	s.stats.Presented++
	s.emit(EventPresent, sl.index)
	logging.Logger().Debug("frame presented",
		"cycle", s.cycle, "slot", sl.index, "token", tok, "recorded", recorded)
	return true, nil
}

// waitSlot blocks until the slot's previous submission has completed and
// releases what it held. It returns the awaited token.
func (s *Scheduler) waitSlot(sl *slot) (gpucore.Token, error) {
	rec := sl.inflight
	if rec == nil {
		return gpucore.NoToken, nil
	}
	s.stats.SlotWaits++
	s.emit(EventWait, sl.index)

	var waited time.Duration
	for {
		ok, err := s.dev.Wait(rec.token, s.opts.WaitTimeout)
		if err != nil {
			return gpucore.NoToken, fmt.Errorf("frame: wait slot %d: %w", sl.index, err)
		}
		if ok {
			break
		}
		waited += s.opts.WaitTimeout
		s.stats.Stalls++
		s.emit(EventStall, sl.index)
		if waited >= s.opts.StallThreshold {
			logging.Logger().Warn("frame slot stalled",
				"slot", sl.index, "token", rec.token, "waited", waited)
		}
	}
	sl.inflight = nil
	s.release(rec)
	return rec.token, nil
}

// uniformsFor returns the uniform allocation for the slot's next frame.
// The slot is idle when it is called.
func (s *Scheduler) uniformsFor(sl *slot, p *pipeline.State) (*uniforms, error) {
	if s.opts.Uniforms == UniformPerFrame {
		return newUniforms(s.dev, p, fmt.Sprintf("g3d uniforms frame %d", s.cycle))
	}
	if sl.uniform != nil && sl.uniform.pipeline == p.Generation {
		return sl.uniform, nil
	}
	if sl.uniform != nil {
		sl.uniform.release(s.dev)
		sl.uniform = nil
	}
	u, err := newUniforms(s.dev, p, fmt.Sprintf("g3d uniforms slot %d", sl.index))
	if err != nil {
		return nil, err
	}
	sl.uniform = u
	return u, nil
}

// dropUniforms frees an allocation that was never submitted.
func (s *Scheduler) dropUniforms(sl *slot, u *uniforms) {
	u.release(s.dev)
	if sl.uniform == u {
		sl.uniform = nil
	}
}

// release frees a completed frame.
func (s *Scheduler) release(rec *record) {
	if rec.uniform != nil {
		rec.uniform.release(s.dev)
	}
	rec.chain.drop()
	rec.pipe.drop()
}

// retireSlot moves the slot's in-flight frame, and the slot's own
// uniforms, to the retire queue.
func (s *Scheduler) retireSlot(sl *slot) {
	rec := sl.inflight
	sl.inflight = nil
	if sl.uniform != nil {
		if rec != nil {
			rec.uniform = sl.uniform
		} else {
			sl.uniform.release(s.dev)
		}
		sl.uniform = nil
	}
	if rec != nil {
		s.retiring = append(s.retiring, rec)
	}
}

// collect releases retired frames whose token has signaled.
func (s *Scheduler) collect() {
	kept := s.retiring[:0]
	for _, rec := range s.retiring {
		if s.dev.IsSignaled(rec.token) {
			s.release(rec)
		} else {
			kept = append(kept, rec)
		}
	}
	for i := len(kept); i < len(s.retiring); i++ {
		s.retiring[i] = nil
	}
	s.retiring = kept
}

// trackInFlight updates the in-flight high-water mark.
func (s *Scheduler) trackInFlight() {
	n := 0
	for _, sl := range s.slots {
		if sl.inflight != nil && !s.dev.IsSignaled(sl.inflight.token) {
			n++
		}
	}
	for _, rec := range s.retiring {
		if !s.dev.IsSignaled(rec.token) {
			n++
		}
	}
	if n > s.stats.MaxInFlight {
		s.stats.MaxInFlight = n
	}
}

// rebuild replaces the swapchain, its render targets and, when the layout
// or viewport changed, the pipeline. The flags are cleared only when
// everything succeeded.
func (s *Scheduler) rebuild() error {
	st, err := s.manager.Rebuild(s.extent)
	if err != nil {
		return err
	}
	targets, err := s.manager.BuildTargets(st, st.Layout)
	if err != nil {
		s.manager.Release(st)
		return err
	}
	next := newLease(&chainSet{state: st, targets: targets}, s.releaseChain)

	pipe := s.pipe
	if pipe == nil || !pipe.value.Matches(st.Layout, st.Extent) || s.builder.Dirty() {
		ps, err := s.builder.Build(st.Layout, st.Extent)
		switch {
		case err == nil:
			pipe = newLease(ps, s.releasePipeline)
		case errors.Is(err, pipeline.ErrCompile) && pipe != nil && pipe.value.Layout == st.Layout:
			logging.Logger().Warn("shader rejected, keeping previous pipeline", "err", err)
		default:
			next.retire()
			return err
		}
	}

	if s.chain != nil {
		s.chain.retire()
	}
	s.chain = next
	if pipe != s.pipe {
		if s.pipe != nil {
			s.pipe.retire()
			s.stats.PipelineRebuilds++
			s.emit(EventPipelineRebuild, -1)
		}
		s.pipe = pipe
	}

	s.resizeSlots(st.ImageCount())
	for _, sl := range s.slots {
		sl.cache.Reset()
	}
	s.resized, s.outOfDate = false, false
	if s.built {
		s.stats.Rebuilds++
	}
	s.built = true
	s.emit(EventRebuild, -1)
	return nil
}

// rebuildPipeline replaces the pipeline after a shader change. A shader
// that does not compile keeps the previous pipeline.
func (s *Scheduler) rebuildPipeline() error {
	layout := s.chain.value.state.Layout
	ps, err := s.builder.Build(layout, s.chain.value.state.Extent)
	if err != nil {
		if errors.Is(err, pipeline.ErrCompile) {
			logging.Logger().Warn("shader rejected, keeping previous pipeline", "err", err)
			return nil
		}
		return err
	}
	s.pipe.retire()
	s.pipe = newLease(ps, s.releasePipeline)
	s.stats.PipelineRebuilds++
	s.emit(EventPipelineRebuild, -1)
	return nil
}

// resizeSlots matches the slot count to the image count. Frames of
// removed slots move to the retire queue.
func (s *Scheduler) resizeSlots(n int) {
	for len(s.slots) > n {
		last := s.slots[len(s.slots)-1]
		s.retireSlot(last)
		s.slots = s.slots[:len(s.slots)-1]
	}
	for len(s.slots) < n {
		s.slots = append(s.slots, &slot{index: len(s.slots)})
	}
}

func (s *Scheduler) releaseChain(c *chainSet) {
	c.targets.Release(s.dev)
	s.manager.Release(c.state)
}

func (s *Scheduler) releasePipeline(p *pipeline.State) {
	p.Release(s.dev)
}

// Close waits for the device to go idle and releases every GPU object the
// scheduler created. Draw returns ErrTerminated afterwards.
func (s *Scheduler) Close() error {
	if s.closed {
		return nil
	}
	err := s.dev.WaitIdle()

	for _, sl := range s.slots {
		if sl.inflight != nil {
			s.release(sl.inflight)
			sl.inflight = nil
		}
		if sl.uniform != nil {
			sl.uniform.release(s.dev)
			sl.uniform = nil
		}
	}
	s.slots = nil
	for _, rec := range s.retiring {
		s.release(rec)
	}
	s.retiring = nil
	if s.chain != nil {
		s.chain.retire()
		s.chain = nil
	}
	if s.pipe != nil {
		s.pipe.retire()
		s.pipe = nil
	}

	if s.err == nil {
		logging.Logger().Info("frame scheduler closed", "cycles", s.cycle, "presented", s.stats.Presented)
	}
	s.closed = true
	if err != nil {
		return fmt.Errorf("frame: close: %w", err)
	}
	return nil
}
