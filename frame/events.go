// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frame

import "fmt"

// EventKind identifies a scheduler step reported to an observer.
type EventKind uint8

const (
	EventRebuild EventKind = iota + 1
	EventPipelineRebuild
	EventAcquire
	EventWait
	EventStall
	EventRecord
	EventSubmit
	EventPresent
	EventStale
	EventSkip
	EventTerminate
)

var eventNames = [...]string{
	EventRebuild:         "Rebuild",
	EventPipelineRebuild: "PipelineRebuild",
	EventAcquire:         "Acquire",
	EventWait:            "Wait",
	EventStall:           "Stall",
	EventRecord:          "Record",
	EventSubmit:          "Submit",
	EventPresent:         "Present",
	EventStale:           "Stale",
	EventSkip:            "Skip",
	EventTerminate:       "Terminate",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is passed to the observer set in Options.
type Event struct {
	Kind EventKind

	// Slot is the frame slot involved, or -1.
	Slot int

	// Cycle is the draw cycle, counting from 1.
	Cycle uint64
}

// Stats counts what the scheduler did.
type Stats struct {
	Cycles           uint64 // Draw calls
	Submissions      uint64
	Presented        uint64
	Skipped          uint64 // cycles that did nothing: zero extent, transient failures
	Stale            uint64 // stale acquires and presents
	Suboptimal       uint64
	Rebuilds         uint64 // swapchain rebuilds after the first build
	PipelineRebuilds uint64
	SlotWaits        uint64
	Stalls           uint64 // wait rounds that timed out
	Records          uint64
	MaxInFlight      int
}
