package metrics

import "time"

// PhaseSummary is the read-side view of one phase: the stored counters plus
// the average, which is recomputed on every read.
type PhaseSummary struct {
	PhaseStats
	Average *time.Duration `json:"average,omitempty"`
}

// Stats is a point-in-time, fully derived view over an accumulator. Derived
// fields are pointers and nil whenever their denominator is zero; they are
// never persisted, so they cannot drift from the stored counters.
type Stats struct {
	Created time.Time `json:"created"`

	Init       PhaseSummary `json:"init"`
	Parameters PhaseSummary `json:"parameters"`
	Render     PhaseSummary `json:"render"`
	PostRender PhaseSummary `json:"post_render"`
	Callback   PhaseSummary `json:"callback"`

	RenderMin *time.Duration `json:"render_min,omitempty"`
	RenderMax *time.Duration `json:"render_max,omitempty"`

	Lifetime          time.Duration  `json:"lifetime"`
	TimeToFirstRender *time.Duration `json:"time_to_first_render,omitempty"`

	Invalidations      uint64 `json:"invalidations"`
	SuppressedQueued   uint64 `json:"suppressed_already_queued"`
	SuppressedDeclined uint64 `json:"suppressed_declined"`

	// InvalidationEfficiency is honored calls over all invalidation calls.
	InvalidationEfficiency *float64 `json:"invalidation_efficiency,omitempty"`
	// SuppressionRatio is suppressed calls over all invalidation calls.
	SuppressionRatio *float64 `json:"suppression_ratio,omitempty"`
	RendersPerMinute *float64 `json:"renders_per_minute,omitempty"`
}

// Snapshot derives a Stats view from the stored counters.
func (a *Accumulator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	at := now()
	s := Stats{
		Created:            a.created,
		Init:               summarize(a.phases[PhaseInit]),
		Parameters:         summarize(a.phases[PhaseParameters]),
		Render:             summarize(a.phases[PhaseRender]),
		PostRender:         summarize(a.phases[PhasePostRender]),
		Callback:           summarize(a.phases[PhaseCallback]),
		Lifetime:           at.Sub(a.created),
		Invalidations:      a.invalidations,
		SuppressedQueued:   a.suppressedQueued,
		SuppressedDeclined: a.suppressedDeclined,
	}

	if a.phases[PhaseRender].Count > 0 {
		s.RenderMin = durPtr(a.renderMin)
		s.RenderMax = durPtr(a.renderMax)
	}
	if !a.firstRenderAt.IsZero() {
		s.TimeToFirstRender = durPtr(a.firstRenderAt.Sub(a.created))
	}

	calls := a.invalidations + a.suppressedQueued + a.suppressedDeclined
	if calls > 0 {
		s.InvalidationEfficiency = ratio(a.invalidations, calls)
		s.SuppressionRatio = ratio(a.suppressedQueued+a.suppressedDeclined, calls)
	}
	if mins := at.Sub(a.created).Minutes(); mins > 0 && a.phases[PhaseRender].Count > 0 {
		rpm := float64(a.phases[PhaseRender].Count) / mins
		s.RendersPerMinute = &rpm
	}
	return s
}

func summarize(p PhaseStats) PhaseSummary {
	out := PhaseSummary{PhaseStats: p}
	if p.Count > 0 {
		out.Average = durPtr(p.Total / time.Duration(p.Count))
	}
	return out
}

func durPtr(d time.Duration) *time.Duration { return &d }

func ratio(num, den uint64) *float64 {
	v := float64(num) / float64(den)
	return &v
}
