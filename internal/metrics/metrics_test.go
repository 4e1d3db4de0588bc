package metrics

import (
	"testing"
	"time"
)

func stubClock(t *testing.T) *time.Time {
	t.Helper()
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = orig })
	return &current
}

func TestObserveAccumulatesPhase(t *testing.T) {
	a := New(time.Now())
	a.Observe(PhaseParameters, 2*time.Millisecond)
	a.Observe(PhaseParameters, 3*time.Millisecond)

	s := a.Snapshot()
	p := s.Parameters
	if p.Count != 2 || p.Last != 3*time.Millisecond || p.Total != 5*time.Millisecond {
		t.Fatalf("unexpected phase stats: %+v", p)
	}
	if p.Average == nil || *p.Average != 2500*time.Microsecond {
		t.Fatalf("unexpected average: %v", p.Average)
	}
}

func TestObserveIgnoresRenderPhase(t *testing.T) {
	a := New(time.Now())
	a.Observe(PhaseRender, time.Millisecond)
	if got := a.RenderCount(); got != 0 {
		t.Fatalf("expected render phase to be rejected, got count %d", got)
	}
}

func TestObserveRenderTracksFirstAndExtremes(t *testing.T) {
	clock := stubClock(t)
	a := New(*clock)
	*clock = clock.Add(50 * time.Millisecond)

	if first := a.ObserveRender(4 * time.Millisecond); !first {
		t.Fatal("expected first render")
	}
	if first := a.ObserveRender(2 * time.Millisecond); first {
		t.Fatal("expected subsequent render")
	}
	a.ObserveRender(9 * time.Millisecond)

	s := a.Snapshot()
	if s.RenderMin == nil || *s.RenderMin != 2*time.Millisecond {
		t.Fatalf("unexpected render min: %v", s.RenderMin)
	}
	if s.RenderMax == nil || *s.RenderMax != 9*time.Millisecond {
		t.Fatalf("unexpected render max: %v", s.RenderMax)
	}
	if s.TimeToFirstRender == nil || *s.TimeToFirstRender != 50*time.Millisecond {
		t.Fatalf("unexpected time to first render: %v", s.TimeToFirstRender)
	}
}

func TestTimeToFirstRenderFrozen(t *testing.T) {
	clock := stubClock(t)
	a := New(*clock)
	*clock = clock.Add(10 * time.Millisecond)
	a.ObserveRender(time.Millisecond)
	*clock = clock.Add(time.Hour)
	a.ObserveRender(time.Millisecond)

	s := a.Snapshot()
	if s.TimeToFirstRender == nil || *s.TimeToFirstRender != 10*time.Millisecond {
		t.Fatalf("expected frozen ttfr 10ms, got %v", s.TimeToFirstRender)
	}
}

func TestDerivedFieldsNilWithoutData(t *testing.T) {
	clock := stubClock(t)
	a := New(*clock)
	s := a.Snapshot()

	if s.RenderMin != nil || s.RenderMax != nil {
		t.Fatal("expected nil render extremes with no renders")
	}
	if s.TimeToFirstRender != nil {
		t.Fatal("expected nil ttfr with no renders")
	}
	if s.InvalidationEfficiency != nil || s.SuppressionRatio != nil {
		t.Fatal("expected nil ratios with no invalidation calls")
	}
	if s.RendersPerMinute != nil {
		t.Fatal("expected nil rpm with no renders")
	}
	if s.Init.Average != nil {
		t.Fatal("expected nil average with no samples")
	}
}

func TestInvalidationOutcomePrecedence(t *testing.T) {
	a := New(time.Now())

	// Already-queued wins even when the gate also declined.
	if got := a.ObserveInvalidation(true, false); got != SuppressedQueued {
		t.Fatalf("expected suppressed_already_queued, got %s", got)
	}
	if got := a.ObserveInvalidation(false, false); got != SuppressedDeclined {
		t.Fatalf("expected suppressed_declined, got %s", got)
	}
	if got := a.ObserveInvalidation(false, true); got != Honored {
		t.Fatalf("expected honored, got %s", got)
	}

	s := a.Snapshot()
	if s.Invalidations != 1 || s.SuppressedQueued != 1 || s.SuppressedDeclined != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
}

func TestInvalidationRatios(t *testing.T) {
	a := New(time.Now())
	a.ObserveInvalidation(false, true)
	a.ObserveInvalidation(false, true)
	a.ObserveInvalidation(true, true)
	a.ObserveInvalidation(false, false)

	s := a.Snapshot()
	if s.InvalidationEfficiency == nil || *s.InvalidationEfficiency != 0.5 {
		t.Fatalf("unexpected efficiency: %v", s.InvalidationEfficiency)
	}
	if s.SuppressionRatio == nil || *s.SuppressionRatio != 0.5 {
		t.Fatalf("unexpected suppression ratio: %v", s.SuppressionRatio)
	}
}

func TestRendersPerMinute(t *testing.T) {
	clock := stubClock(t)
	a := New(*clock)
	a.ObserveRender(time.Millisecond)
	a.ObserveRender(time.Millisecond)
	*clock = clock.Add(2 * time.Minute)

	s := a.Snapshot()
	if s.RendersPerMinute == nil || *s.RendersPerMinute != 1.0 {
		t.Fatalf("unexpected rpm: %v", s.RendersPerMinute)
	}
	if s.Lifetime != 2*time.Minute {
		t.Fatalf("unexpected lifetime: %v", s.Lifetime)
	}
}
