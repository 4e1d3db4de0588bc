package timeline

import (
	"testing"
	"time"

	"renderscope/internal/host"
)

func stubClock(t *testing.T) *time.Time {
	t.Helper()
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = orig })
	return &current
}

func render(c host.ComponentID, d time.Duration) Sample {
	return Sample{Component: c, TypeName: "Widget", Kind: KindRender, Duration: d}
}

func TestRecordDroppedWhileStopped(t *testing.T) {
	l := NewLog(0)
	if seq := l.Record(render(1, time.Millisecond)); seq != NoSeq {
		t.Fatalf("expected NoSeq while stopped, got %d", seq)
	}
	if got := len(l.Events()); got != 0 {
		t.Fatalf("expected no events, got %d", got)
	}
}

func TestSequenceIDsAreGapless(t *testing.T) {
	l := NewLog(0)
	l.Start()
	for i := 0; i < 5; i++ {
		want := int64(i + 1)
		if seq := l.Record(render(host.ComponentID(i), 0)); seq != want {
			t.Fatalf("expected seq %d, got %d", want, seq)
		}
	}
	events := l.Events()
	for i, ev := range events {
		if ev.Seq != int64(i+1) {
			t.Fatalf("event %d has seq %d", i, ev.Seq)
		}
	}
}

func TestEvictionDropsOldestKeepingSeqs(t *testing.T) {
	l := NewLog(3)
	l.Start()
	for i := 0; i < 4; i++ {
		l.Record(render(host.ComponentID(i), 0))
	}
	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	for i, want := range []int64{2, 3, 4} {
		if events[i].Seq != want {
			t.Fatalf("expected retained seqs [2 3 4], got %d at %d", events[i].Seq, i)
		}
	}
	// The evicted seq must not be back-fillable.
	if l.RecordEnd(1, time.Millisecond) {
		t.Fatal("expected RecordEnd to fail for an evicted event")
	}
}

func TestClearKeepsSequenceCounter(t *testing.T) {
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 0))
	l.Record(render(2, 0))
	l.Clear()
	if got := len(l.Events()); got != 0 {
		t.Fatalf("expected empty log after clear, got %d events", got)
	}
	if seq := l.Record(render(3, 0)); seq != 3 {
		t.Fatalf("expected seq to continue at 3 after clear, got %d", seq)
	}
}

func TestStartResetsSequenceCounter(t *testing.T) {
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 0))
	l.Record(render(1, 0))
	l.Start()
	if seq := l.Record(render(1, 0)); seq != 1 {
		t.Fatalf("expected seq restart at 1, got %d", seq)
	}
}

func TestRecordEndBackfillsOnce(t *testing.T) {
	l := NewLog(0)
	l.Start()
	seq := l.RecordStart(Sample{Component: 1, Kind: KindCallbackInvoked, Flags: Flags{Async: true}})
	events := l.Events()
	if events[0].Duration != NoDuration {
		t.Fatalf("expected open duration, got %v", events[0].Duration)
	}
	if !l.RecordEnd(seq, 7*time.Millisecond) {
		t.Fatal("expected back-fill to succeed")
	}
	if l.RecordEnd(seq, time.Millisecond) {
		t.Fatal("expected second back-fill to fail")
	}
	if got := l.Events()[0].Duration; got != 7*time.Millisecond {
		t.Fatalf("expected 7ms duration, got %v", got)
	}
}

func TestRenderTriggerCorrelation(t *testing.T) {
	l := NewLog(0)
	l.Start()

	l.Record(Sample{Component: 1, Kind: KindRender, Flags: Flags{FirstRender: true}})
	if ev := l.Events()[0]; ev.Trigger != TriggerFirstRender || ev.TriggerSeq != NoSeq {
		t.Fatalf("expected first-render trigger, got %+v", ev)
	}

	invSeq := l.Record(Sample{Component: 1, Kind: KindInvalidation})
	l.Record(Sample{Component: 1, Kind: KindCallbackInvoked})
	l.Record(render(1, time.Millisecond))

	events := l.Events()
	rendered := events[len(events)-1]
	if rendered.Trigger != TriggerInvalidation || rendered.TriggerSeq != invSeq {
		t.Fatalf("expected invalidation trigger #%d, got %s #%d", invSeq, rendered.Trigger, rendered.TriggerSeq)
	}

	// Candidates are consumed: without fresh signals the next render falls
	// back to parent re-render.
	l.Record(render(1, time.Millisecond))
	events = l.Events()
	rendered = events[len(events)-1]
	if rendered.Trigger != TriggerParentRender || rendered.TriggerSeq != NoSeq {
		t.Fatalf("expected parent-rerender fallback, got %s #%d", rendered.Trigger, rendered.TriggerSeq)
	}
}

func TestRenderTriggerPrecedence(t *testing.T) {
	l := NewLog(0)
	l.Start()

	l.Record(Sample{Component: 2, Kind: KindParameterSet})
	cbSeq := l.Record(Sample{Component: 2, Kind: KindCallbackInvoked})
	l.Record(render(2, 0))

	events := l.Events()
	rendered := events[len(events)-1]
	if rendered.Trigger != TriggerCallback || rendered.TriggerSeq != cbSeq {
		t.Fatalf("expected callback to outrank parameters, got %s #%d", rendered.Trigger, rendered.TriggerSeq)
	}
}

func TestTriggerCandidatesArePerComponent(t *testing.T) {
	l := NewLog(0)
	l.Start()

	l.Record(Sample{Component: 1, Kind: KindInvalidation})
	l.Record(render(2, 0))

	events := l.Events()
	rendered := events[len(events)-1]
	if rendered.Trigger != TriggerParentRender {
		t.Fatalf("expected other component's invalidation to be ignored, got %s", rendered.Trigger)
	}
}

func TestBatchMembershipAndDuration(t *testing.T) {
	clock := stubClock(t)
	l := NewLog(0)
	l.Start()

	id := l.BatchStart("sess", "timer")
	if id == NoSeq {
		t.Fatal("expected batch to open")
	}
	*clock = clock.Add(2 * time.Millisecond)
	l.Record(render(1, time.Millisecond))
	l.Record(render(2, time.Millisecond))
	l.Record(render(1, time.Millisecond)) // duplicate member
	*clock = clock.Add(3 * time.Millisecond)
	if !l.BatchEnd(id) {
		t.Fatal("expected batch to close")
	}
	if l.BatchEnd(id) {
		t.Fatal("expected closing twice to fail")
	}

	batches := l.Batches()
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	b := batches[0]
	if b.Open {
		t.Fatal("expected batch closed")
	}
	if len(b.Members) != 2 || b.Members[0] != 1 || b.Members[1] != 2 {
		t.Fatalf("unexpected members: %v", b.Members)
	}
	if b.End-b.Start != 5*time.Millisecond {
		t.Fatalf("unexpected batch span: %v", b.End-b.Start)
	}

	// Renders inside the batch carry its started-event seq as parent.
	events := l.Events()
	if events[1].Parent != b.EventSeq || events[2].Parent != b.EventSeq {
		t.Fatalf("expected renders parented to batch event %d, got %d/%d", b.EventSeq, events[1].Parent, events[2].Parent)
	}
	// The completed event carries the batch duration.
	last := events[len(events)-1]
	if last.Kind != KindBatchCompleted || last.Duration != 5*time.Millisecond {
		t.Fatalf("unexpected completion event: %+v", last)
	}
	// Both ends of the batch attribute to the session that opened it.
	if events[0].Session != "sess" || last.Session != "sess" {
		t.Fatalf("unexpected batch event sessions: %q/%q", events[0].Session, last.Session)
	}
}

func TestRenderOutsideBatchHasNoParent(t *testing.T) {
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 0))
	if ev := l.Events()[0]; ev.Parent != NoSeq {
		t.Fatalf("expected no parent, got %d", ev.Parent)
	}
}

func TestEventsSince(t *testing.T) {
	l := NewLog(0)
	l.Start()
	for i := 0; i < 5; i++ {
		l.Record(render(1, 0))
	}
	got := l.EventsSince(3)
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("unexpected incremental slice: %+v", got)
	}
	if len(l.EventsSince(5)) != 0 {
		t.Fatal("expected empty slice past the tail")
	}
}

func TestEventsInRange(t *testing.T) {
	clock := stubClock(t)
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 0)) // at 0ms
	*clock = clock.Add(10 * time.Millisecond)
	l.Record(render(2, 0)) // at 10ms
	*clock = clock.Add(10 * time.Millisecond)
	l.Record(render(3, 0)) // at 20ms

	got := l.EventsInRange(5*time.Millisecond, 15*time.Millisecond)
	if len(got) != 1 || got[0].Component != 2 {
		t.Fatalf("unexpected range result: %+v", got)
	}
}

func TestEventsForComponent(t *testing.T) {
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 0))
	l.Record(render(2, 0))
	l.Record(Sample{Component: 1, Kind: KindDispose})

	got := l.EventsFor(1)
	if len(got) != 2 || got[0].Kind != KindRender || got[1].Kind != KindDispose {
		t.Fatalf("unexpected component slice: %+v", got)
	}
}

func TestRankedOrdersByTotalThenID(t *testing.T) {
	l := NewLog(0)
	l.Start()
	l.Record(render(1, 2*time.Millisecond))
	l.Record(render(2, 5*time.Millisecond))
	l.Record(render(3, 2*time.Millisecond))
	l.Record(Sample{Component: 4, TypeName: "Legacy", Kind: KindBasicRender})

	ranked := l.Ranked()
	if len(ranked) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(ranked))
	}
	if ranked[0].Component != 2 {
		t.Fatalf("expected component 2 first, got %d", ranked[0].Component)
	}
	// Equal totals break ties by ascending component id.
	if ranked[1].Component != 1 || ranked[2].Component != 3 {
		t.Fatalf("unexpected tie order: %d, %d", ranked[1].Component, ranked[2].Component)
	}
	if ranked[3].Component != 4 || ranked[3].Renders != 1 || ranked[3].TotalRender != 0 {
		t.Fatalf("unexpected zero-duration row: %+v", ranked[3])
	}
}

func TestSetMaxEventsClamps(t *testing.T) {
	l := NewLog(0)
	if got := l.SetMaxEvents(999999); got != MaxEvents {
		t.Fatalf("expected clamp to %d, got %d", MaxEvents, got)
	}
	if got := l.SetMaxEvents(50); got != MinEvents {
		t.Fatalf("expected clamp to %d, got %d", MinEvents, got)
	}
	if got := l.Cap(); got != MinEvents {
		t.Fatalf("expected cap %d, got %d", MinEvents, got)
	}
}

func TestSetMaxEventsEvictsImmediately(t *testing.T) {
	l := NewLog(0)
	l.Start()
	for i := 0; i < 150; i++ {
		l.Record(render(1, 0))
	}
	l.SetMaxEvents(100)
	events := l.Events()
	if len(events) != 100 {
		t.Fatalf("expected 100 retained events, got %d", len(events))
	}
	if events[0].Seq != 51 {
		t.Fatalf("expected oldest retained seq 51, got %d", events[0].Seq)
	}
}

func TestStateElapsedFreezesOnStop(t *testing.T) {
	clock := stubClock(t)
	l := NewLog(0)
	l.Start()
	*clock = clock.Add(4 * time.Second)
	l.Stop()
	*clock = clock.Add(time.Hour)

	st := l.State()
	if st.Recording {
		t.Fatal("expected stopped state")
	}
	if st.Elapsed != 4*time.Second {
		t.Fatalf("expected frozen elapsed 4s, got %v", st.Elapsed)
	}
}
