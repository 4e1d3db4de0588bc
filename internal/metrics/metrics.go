// Package metrics accumulates per-component lifecycle timings and counters.
// An Accumulator is owned by exactly one component record and is updated
// synchronously from instrumentation hooks.
package metrics

import (
	"sync"
	"time"
)

// Phase identifies an instrumented lifecycle phase.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseParameters
	PhaseRender
	PhasePostRender
	PhaseCallback

	numPhases
)

var phaseNames = [numPhases]string{"init", "parameters", "render", "post_render", "callback"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// InvalidationOutcome classifies a state-invalidation call.
type InvalidationOutcome int

const (
	// Honored means the call queued a new render.
	Honored InvalidationOutcome = iota
	// SuppressedQueued means a render was already queued when the call arrived.
	SuppressedQueued
	// SuppressedDeclined means the render gate declined to re-render.
	SuppressedDeclined
)

func (o InvalidationOutcome) String() string {
	switch o {
	case Honored:
		return "honored"
	case SuppressedQueued:
		return "suppressed_already_queued"
	case SuppressedDeclined:
		return "suppressed_declined"
	default:
		return "unknown"
	}
}

// PhaseStats holds the stored counters for one phase.
type PhaseStats struct {
	Count uint64        `json:"count"`
	Last  time.Duration `json:"last"`
	Total time.Duration `json:"total"`
}

// Accumulator records timings and counts for one component instance.
type Accumulator struct {
	mu      sync.Mutex
	created time.Time

	phases    [numPhases]PhaseStats
	renderMin time.Duration
	renderMax time.Duration

	firstRenderAt time.Time // zero until the first render lands

	invalidations      uint64 // honored
	suppressedQueued   uint64
	suppressedDeclined uint64
}

// New returns an accumulator anchored at the component's creation time.
func New(created time.Time) *Accumulator {
	return &Accumulator{created: created}
}

// Created returns the creation timestamp the accumulator is anchored at.
func (a *Accumulator) Created() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created
}

// Observe stores a phase duration: last call plus cumulative total. Render
// durations go through ObserveRender instead so min/max and time-to-first-
// render stay consistent.
func (a *Accumulator) Observe(p Phase, d time.Duration) {
	if p < 0 || p >= numPhases || p == PhaseRender {
		return
	}
	a.mu.Lock()
	a.bump(p, d)
	a.mu.Unlock()
}

// ObserveRender records a render duration and reports whether it was the
// component's first render. Time-to-first-render is frozen on that call.
func (a *Accumulator) ObserveRender(d time.Duration) (first bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	first = a.phases[PhaseRender].Count == 0
	a.bump(PhaseRender, d)
	if first {
		a.firstRenderAt = now()
		a.renderMin = d
		a.renderMax = d
		return true
	}
	if d < a.renderMin {
		a.renderMin = d
	}
	if d > a.renderMax {
		a.renderMax = d
	}
	return false
}

// ObserveInvalidation classifies a state-invalidation call from the two facts
// known at call time. A render already being queued takes precedence over the
// render gate declining.
func (a *Accumulator) ObserveInvalidation(alreadyQueued, renderAccepted bool) InvalidationOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case alreadyQueued:
		a.suppressedQueued++
		return SuppressedQueued
	case !renderAccepted:
		a.suppressedDeclined++
		return SuppressedDeclined
	default:
		a.invalidations++
		return Honored
	}
}

// RenderCount returns how many renders have been observed.
func (a *Accumulator) RenderCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phases[PhaseRender].Count
}

func (a *Accumulator) bump(p Phase, d time.Duration) {
	a.phases[p].Count++
	a.phases[p].Last = d
	a.phases[p].Total += d
}

// now is swapped out by tests.
var now = func() time.Time { return time.Now().UTC() }
