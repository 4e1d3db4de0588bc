package timeline

import (
	"sort"
	"sync"
	"time"

	"renderscope/internal/host"
)

// Recorder is the process-wide timeline surface. It is an explicitly
// constructed instance, injected where needed, so tests can substitute a
// fresh one.
type Recorder interface {
	Start()
	Stop()
	Clear()
	Recording() bool
	State() State

	// Record appends an event and returns its sequence id, or NoSeq when
	// recording is stopped.
	Record(s Sample) int64
	// RecordStart appends an open-duration event for work spanning an awaited
	// operation; RecordEnd back-fills it once. RecordEnd reports false when
	// the event is unknown or already closed, which is an accepted precision
	// loss under buffer pressure.
	RecordStart(s Sample) int64
	RecordEnd(seq int64, d time.Duration) bool

	BatchStart(session, trigger string) int64
	BatchEnd(id int64) bool

	Events() []Event
	EventsSince(seq int64) []Event
	EventsInRange(from, to time.Duration) []Event
	EventsFor(id host.ComponentID) []Event
	Batches() []Batch
	Ranked() []Ranked

	// SetMaxEvents clamps n to [MinEvents, MaxEvents], applies it, evicts any
	// overflow immediately and returns the applied cap.
	SetMaxEvents(n int) int
	Cap() int
}

const (
	// DefaultMaxEvents is the event cap used when none is configured.
	DefaultMaxEvents = 10000
	// MinEvents and MaxEvents bound SetMaxEvents arguments.
	MinEvents = 100
	MaxEvents = 100000

	maxBatches = 2048
)

// Log is the in-memory Recorder implementation: a single-mutex ring buffer
// plus per-component correlation indexes.
type Log struct {
	mu sync.Mutex

	recording bool
	startedAt time.Time
	stoppedAt time.Time
	origin    time.Time // relative-time zero; reset by Start and Clear

	nextSeq   int64
	maxEvents int
	events    []*Event
	bySeq     map[int64]*Event

	nextBatchID int64
	batches     []*Batch
	openBatch   *Batch

	// Per-component "last seen" trigger candidates, consumed by the next
	// render of that component.
	lastInvalidation map[host.ComponentID]int64
	lastCallback     map[host.ComponentID]int64
	lastParams       map[host.ComponentID]int64
}

var _ Recorder = (*Log)(nil)

// NewLog returns a stopped recorder with the given event cap. Non-positive
// caps fall back to DefaultMaxEvents. The cap is not clamped here; the
// inspector-facing SetMaxEvents is the clamping boundary.
func NewLog(maxEvents int) *Log {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	l := &Log{maxEvents: maxEvents}
	l.resetLocked()
	return l
}

// resetLocked clears events, batches and correlation indexes.
func (l *Log) resetLocked() {
	l.events = nil
	l.bySeq = make(map[int64]*Event)
	l.batches = nil
	l.openBatch = nil
	l.lastInvalidation = make(map[host.ComponentID]int64)
	l.lastCallback = make(map[host.ComponentID]int64)
	l.lastParams = make(map[host.ComponentID]int64)
}

// Start begins a fresh recording: prior events and batches are dropped, the
// sequence counter restarts and the relative-time origin moves to now.
func (l *Log) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
	l.nextSeq = 1
	l.nextBatchID = 1
	l.recording = true
	l.startedAt = now()
	l.stoppedAt = time.Time{}
	l.origin = l.startedAt
}

// Stop freezes the buffer without clearing it.
func (l *Log) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.recording {
		return
	}
	l.recording = false
	l.stoppedAt = now()
}

// Clear drops events and batches in either state. While recording it also
// moves the relative-time origin to now; the sequence counter keeps running.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
	if l.recording {
		l.origin = now()
	}
}

func (l *Log) Recording() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recording
}

func (l *Log) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := State{
		Recording:  l.recording,
		StartedAt:  l.startedAt,
		EventCount: len(l.events),
		BatchCount: len(l.batches),
		Cap:        l.maxEvents,
	}
	switch {
	case l.recording:
		st.Elapsed = now().Sub(l.startedAt)
	case !l.stoppedAt.IsZero():
		st.Elapsed = l.stoppedAt.Sub(l.startedAt)
	}
	return st
}

// Record appends one event, computing trigger correlation for renders.
func (l *Log) Record(s Sample) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := l.appendLocked(s)
	if ev == nil {
		return NoSeq
	}
	return ev.Seq
}

// RecordStart appends an open-duration event.
func (l *Log) RecordStart(s Sample) int64 {
	s.Duration = NoDuration
	return l.Record(s)
}

// RecordEnd back-fills the duration of an open event.
func (l *Log) RecordEnd(seq int64, d time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev, ok := l.bySeq[seq]
	if !ok || ev.Duration != NoDuration {
		return false
	}
	ev.Duration = d
	return true
}

func (l *Log) appendLocked(s Sample) *Event {
	if !l.recording {
		return nil
	}
	ev := &Event{
		Seq:        l.nextSeq,
		At:         now().Sub(l.origin),
		Component:  s.Component,
		TypeName:   s.TypeName,
		Session:    s.Session,
		Kind:       s.Kind,
		Detail:     s.Detail,
		Duration:   s.Duration,
		Parent:     NoSeq,
		TriggerSeq: NoSeq,
		Flags:      s.Flags,
	}
	l.nextSeq++

	if s.Kind == KindRender || s.Kind == KindBasicRender {
		l.correlateRenderLocked(ev)
		if l.openBatch != nil {
			ev.Parent = l.openBatch.EventSeq
			l.openBatch.Members = appendMember(l.openBatch.Members, ev.Component)
		}
	}

	l.events = append(l.events, ev)
	l.bySeq[ev.Seq] = ev

	switch s.Kind {
	case KindInvalidation:
		l.lastInvalidation[s.Component] = ev.Seq
	case KindCallbackInvoked:
		l.lastCallback[s.Component] = ev.Seq
	case KindParameterSet:
		l.lastParams[s.Component] = ev.Seq
	}

	l.evictLocked()
	return ev
}

// correlateRenderLocked attributes a render to its probable cause and then
// consumes the component's trigger candidates so a stale attribution is never
// reused for the next render.
func (l *Log) correlateRenderLocked(ev *Event) {
	c := ev.Component
	defer func() {
		delete(l.lastInvalidation, c)
		delete(l.lastCallback, c)
		delete(l.lastParams, c)
	}()

	if ev.Flags.FirstRender {
		ev.Trigger = TriggerFirstRender
		return
	}
	if seq, ok := l.lastInvalidation[c]; ok {
		ev.Trigger, ev.TriggerSeq = TriggerInvalidation, seq
		return
	}
	if seq, ok := l.lastCallback[c]; ok {
		ev.Trigger, ev.TriggerSeq = TriggerCallback, seq
		return
	}
	if seq, ok := l.lastParams[c]; ok {
		ev.Trigger, ev.TriggerSeq = TriggerParameters, seq
		return
	}
	ev.Trigger = TriggerParentRender
}

func (l *Log) evictLocked() {
	for len(l.events) > l.maxEvents {
		delete(l.bySeq, l.events[0].Seq)
		l.events[0] = nil
		l.events = l.events[1:]
	}
	for len(l.batches) > maxBatches {
		if l.batches[0] == l.openBatch {
			l.openBatch = nil
		}
		l.batches[0] = nil
		l.batches = l.batches[1:]
	}
}

// BatchStart opens a render batch and emits its batch-started event.
func (l *Log) BatchStart(session, trigger string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.recording {
		return NoSeq
	}

	ev := l.appendLocked(Sample{
		Component: host.None,
		Session:   session,
		Kind:      KindBatchStarted,
	})
	if ev == nil {
		return NoSeq
	}
	b := &Batch{
		ID:       l.nextBatchID,
		Session:  session,
		Start:    ev.At,
		Trigger:  trigger,
		EventSeq: ev.Seq,
		Open:     true,
	}
	l.nextBatchID++
	l.batches = append(l.batches, b)
	l.openBatch = b
	l.evictLocked()
	return b.ID
}

// BatchEnd closes an open batch, fixing its duration and membership, and
// emits a batch-completed event pointing at the batch. Unknown or already
// closed ids are a no-op.
func (l *Log) BatchEnd(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.recording {
		return false
	}

	var b *Batch
	for i := len(l.batches) - 1; i >= 0; i-- {
		if l.batches[i].ID == id {
			b = l.batches[i]
			break
		}
	}
	if b == nil || !b.Open {
		return false
	}

	ev := l.appendLocked(Sample{
		Component: host.None,
		Session:   b.Session,
		Kind:      KindBatchCompleted,
	})
	if ev != nil {
		ev.Parent = b.EventSeq
		b.End = ev.At
		ev.Duration = b.End - b.Start
	}
	b.Open = false
	if l.openBatch == b {
		l.openBatch = nil
	}
	return true
}

// Events returns the retained events, oldest first.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyEvents(l.events)
}

// EventsSince returns events with sequence ids strictly greater than seq,
// for incremental polling.
func (l *Log) EventsSince(seq int64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := sort.Search(len(l.events), func(i int) bool { return l.events[i].Seq > seq })
	return copyEvents(l.events[i:])
}

// EventsInRange returns events whose relative timestamp falls in [from, to].
func (l *Log) EventsInRange(from, to time.Duration) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0)
	for _, ev := range l.events {
		if ev.At >= from && ev.At <= to {
			out = append(out, *ev)
		}
	}
	return out
}

// EventsFor returns events whose subject is the given component.
func (l *Log) EventsFor(id host.ComponentID) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, 0)
	for _, ev := range l.events {
		if ev.Component == id {
			out = append(out, *ev)
		}
	}
	return out
}

// Batches returns the retained batches, oldest first.
func (l *Log) Batches() []Batch {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Batch, 0, len(l.batches))
	for _, b := range l.batches {
		cp := *b
		cp.Members = append([]host.ComponentID(nil), b.Members...)
		out = append(out, cp)
	}
	return out
}

// Ranked aggregates total render time per (component id, type name), sorted
// by descending total time with ties broken by ascending component id.
func (l *Log) Ranked() []Ranked {
	l.mu.Lock()
	defer l.mu.Unlock()

	type key struct {
		id  host.ComponentID
		typ string
	}
	agg := make(map[key]*Ranked)
	for _, ev := range l.events {
		if ev.Kind != KindRender && ev.Kind != KindBasicRender {
			continue
		}
		k := key{ev.Component, ev.TypeName}
		r := agg[k]
		if r == nil {
			r = &Ranked{Component: ev.Component, TypeName: ev.TypeName}
			agg[k] = r
		}
		r.Renders++
		if ev.Duration > 0 {
			r.TotalRender += ev.Duration
		}
	}

	out := make([]Ranked, 0, len(agg))
	for _, r := range agg {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRender != out[j].TotalRender {
			return out[i].TotalRender > out[j].TotalRender
		}
		return out[i].Component < out[j].Component
	})
	return out
}

// SetMaxEvents applies a clamped cap and evicts overflow immediately.
func (l *Log) SetMaxEvents(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < MinEvents {
		n = MinEvents
	}
	if n > MaxEvents {
		n = MaxEvents
	}
	l.maxEvents = n
	l.evictLocked()
	return n
}

func (l *Log) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxEvents
}

func copyEvents(events []*Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, *ev)
	}
	return out
}

func appendMember(members []host.ComponentID, id host.ComponentID) []host.ComponentID {
	for _, m := range members {
		if m == id {
			return members
		}
	}
	return append(members, id)
}

// now is swapped out by tests.
var now = func() time.Time { return time.Now().UTC() }
