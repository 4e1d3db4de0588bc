package app

import "time"

// Wire mirrors of the agent's inspector API responses.

// RecordingState mirrors the recorder state endpoint.
type RecordingState struct {
	Recording  bool    `json:"is_recording"`
	StartedAt  *string `json:"started_at"`
	ElapsedMs  float64 `json:"elapsed_ms"`
	EventCount int     `json:"event_count"`
	BatchCount int     `json:"batch_count"`
	Cap        int     `json:"cap"`
}

// TypeInfo mirrors a component type descriptor.
type TypeInfo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// Component mirrors one tracked component.
type Component struct {
	ID       *int64            `json:"id"`
	Type     TypeInfo          `json:"type"`
	ParentID *int64            `json:"parent_id"`
	Mode     string            `json:"mode"`
	Pending  bool              `json:"pending"`
	Created  time.Time         `json:"created_at"`
	Metrics  *ComponentMetrics `json:"metrics"`
}

// PhaseStats mirrors one phase of a component's metrics.
type PhaseStats struct {
	Count   uint64 `json:"count"`
	Last    int64  `json:"last"`
	Total   int64  `json:"total"`
	Average *int64 `json:"average"`
}

// ComponentMetrics mirrors the derived metrics view. Durations are
// nanoseconds; nil means the denominator was zero.
type ComponentMetrics struct {
	Created           time.Time  `json:"created"`
	Init              PhaseStats `json:"init"`
	Parameters        PhaseStats `json:"parameters"`
	Render            PhaseStats `json:"render"`
	PostRender        PhaseStats `json:"post_render"`
	Callback          PhaseStats `json:"callback"`
	RenderMin         *int64     `json:"render_min"`
	RenderMax         *int64     `json:"render_max"`
	Lifetime          int64      `json:"lifetime"`
	TimeToFirstRender *int64     `json:"time_to_first_render"`

	Invalidations          uint64   `json:"invalidations"`
	SuppressedQueued       uint64   `json:"suppressed_already_queued"`
	SuppressedDeclined     uint64   `json:"suppressed_declined"`
	InvalidationEfficiency *float64 `json:"invalidation_efficiency"`
	SuppressionRatio       *float64 `json:"suppression_ratio"`
	RendersPerMinute       *float64 `json:"renders_per_minute"`
}

// Counts mirrors registry occupancy.
type Counts struct {
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// Event mirrors one timeline entry.
type Event struct {
	Seq         int64    `json:"seq"`
	AtMs        float64  `json:"at_ms"`
	ComponentID int64    `json:"component_id"`
	TypeName    string   `json:"type"`
	Session     string   `json:"session"`
	Kind        string   `json:"kind"`
	Detail      string   `json:"detail"`
	DurationMs  *float64 `json:"duration_ms"`
	ParentSeq   *int64   `json:"parent_seq"`
	TriggerSeq  *int64   `json:"trigger_seq"`
	Trigger     string   `json:"trigger"`
	Async       bool     `json:"async"`
	FirstRender bool     `json:"first_render"`
	Suppressed  bool     `json:"suppressed"`
}

// Batch mirrors one render batch.
type Batch struct {
	ID       int64   `json:"id"`
	StartMs  float64 `json:"start_ms"`
	EndMs    float64 `json:"end_ms"`
	Members  []int64 `json:"member_ids"`
	Trigger  string  `json:"trigger"`
	EventSeq int64   `json:"event_seq"`
	Open     bool    `json:"open"`
}

// Ranked mirrors one row of the render-cost ranking.
type Ranked struct {
	ComponentID   int64   `json:"component_id"`
	TypeName      string  `json:"type"`
	Renders       uint64  `json:"renders"`
	TotalRenderMs float64 `json:"total_render_ms"`
}
