// Package timeline records a process-wide, bounded, causally-annotated log of
// component lifecycle events and render-batch groupings. One recorder serves
// every session; events from concurrent sessions interleave by design.
package timeline

import (
	"time"

	"renderscope/internal/host"
)

// Kind is the closed vocabulary of timeline events. The string form is a
// serialization concern at the query boundary only.
type Kind int

const (
	KindInitialize Kind = iota
	KindParameterSet
	KindRender
	KindPostRender
	KindDispose
	KindInvalidation
	KindInvalidationSuppressed
	KindCallbackInvoked
	KindBatchStarted
	KindBatchCompleted
	KindBasicRender
	KindSessionOpened
	KindSessionClosed
	KindNavigation

	numKinds
)

var kindNames = [numKinds]string{
	"initialize",
	"parameter_set",
	"render",
	"post_render",
	"dispose",
	"invalidation",
	"invalidation_suppressed",
	"callback_invoked",
	"batch_started",
	"batch_completed",
	"basic_render_detected",
	"session_opened",
	"session_closed",
	"navigation",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

// Trigger is the category a render event was attributed to.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerFirstRender
	TriggerInvalidation
	TriggerCallback
	TriggerParameters
	TriggerParentRender
)

var triggerNames = [...]string{
	"",
	"first_render",
	"invalidation",
	"callback",
	"parameters",
	"parent_rerender",
}

func (t Trigger) String() string {
	if t < 0 || int(t) >= len(triggerNames) {
		return ""
	}
	return triggerNames[t]
}

// Flags qualify an event at record time.
type Flags struct {
	Async       bool
	FirstRender bool
	Suppressed  bool
}

// NoSeq marks an absent sequence reference: no parent batch, no triggering
// event, or a record call that was dropped because recording is stopped.
const NoSeq int64 = -1

// NoDuration marks an open-duration event awaiting back-fill.
const NoDuration time.Duration = -1

// Sample is the caller-supplied part of an event.
type Sample struct {
	Component host.ComponentID // host.None for session-level events
	TypeName  string
	Session   string
	Kind      Kind
	Detail    string // free-form payload: navigation target, callback name
	Duration  time.Duration
	Flags     Flags
}

// Event is one recorded timeline entry. It is immutable once written, except
// that an open duration may be back-filled exactly once.
type Event struct {
	Seq       int64
	At        time.Duration // relative to recording start
	Component host.ComponentID
	TypeName  string
	Session   string
	Kind      Kind
	Detail    string
	Duration  time.Duration // NoDuration while open

	// Parent is the sequence id of the enclosing batch-started event and
	// TriggerSeq the id of the event whose side effect caused this one.
	Parent     int64
	TriggerSeq int64
	Trigger    Trigger

	Flags Flags
}

// Batch groups the events produced within one host render pass.
type Batch struct {
	ID       int64
	Session  string
	Start    time.Duration
	End      time.Duration
	Members  []host.ComponentID
	Trigger  string // source label supplied by the runtime
	EventSeq int64  // seq of the batch-started event
	Open     bool
}

// Ranked is one row of the render-cost aggregation.
type Ranked struct {
	Component   host.ComponentID
	TypeName    string
	Renders     uint64
	TotalRender time.Duration
}

// State summarizes the recorder for the inspector.
type State struct {
	Recording  bool
	StartedAt  time.Time
	Elapsed    time.Duration
	EventCount int
	BatchCount int
	Cap        int
}
