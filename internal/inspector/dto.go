package inspector

import (
	"time"

	"renderscope/internal/host"
	"renderscope/internal/metrics"
	"renderscope/internal/registry"
	"renderscope/internal/timeline"
)

// Wire shapes for the query surface. Enum-like internals (kinds, triggers,
// modes) become strings here and nowhere else; absent values become null.

// StateDTO mirrors timeline.State.
type StateDTO struct {
	Recording  bool    `json:"is_recording"`
	StartedAt  *string `json:"started_at"`
	ElapsedMs  float64 `json:"elapsed_ms"`
	EventCount int     `json:"event_count"`
	BatchCount int     `json:"batch_count"`
	Cap        int     `json:"cap"`
}

func stateDTO(st timeline.State) StateDTO {
	dto := StateDTO{
		Recording:  st.Recording,
		ElapsedMs:  durMs(st.Elapsed),
		EventCount: st.EventCount,
		BatchCount: st.BatchCount,
		Cap:        st.Cap,
	}
	if !st.StartedAt.IsZero() {
		s := st.StartedAt.Format(time.RFC3339Nano)
		dto.StartedAt = &s
	}
	return dto
}

// ComponentDTO mirrors registry.Component.
type ComponentDTO struct {
	ID       *int64         `json:"id"`
	Type     host.TypeInfo  `json:"type"`
	ParentID *int64         `json:"parent_id"`
	Mode     string         `json:"mode"`
	Pending  bool           `json:"pending"`
	Created  time.Time      `json:"created_at"`
	Metrics  *metrics.Stats `json:"metrics,omitempty"`
}

func componentDTO(c registry.Component) ComponentDTO {
	return ComponentDTO{
		ID:       idPtr(c.ID),
		Type:     c.Type,
		ParentID: idPtr(c.Parent),
		Mode:     c.Mode.String(),
		Pending:  c.Pending,
		Created:  c.Created,
		Metrics:  c.Metrics,
	}
}

func componentDTOs(cs []registry.Component) []ComponentDTO {
	out := make([]ComponentDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, componentDTO(c))
	}
	return out
}

// EventDTO mirrors timeline.Event.
type EventDTO struct {
	Seq         int64    `json:"seq"`
	AtMs        float64  `json:"at_ms"`
	ComponentID int64    `json:"component_id"` // -1 for session-level events
	TypeName    string   `json:"type,omitempty"`
	Session     string   `json:"session,omitempty"`
	Kind        string   `json:"kind"`
	Detail      string   `json:"detail,omitempty"`
	DurationMs  *float64 `json:"duration_ms"` // null while awaiting back-fill
	ParentSeq   *int64   `json:"parent_seq"`
	TriggerSeq  *int64   `json:"trigger_seq"`
	Trigger     string   `json:"trigger,omitempty"`
	Async       bool     `json:"async,omitempty"`
	FirstRender bool     `json:"first_render,omitempty"`
	Suppressed  bool     `json:"suppressed,omitempty"`
}

func eventDTO(ev timeline.Event) EventDTO {
	dto := EventDTO{
		Seq:         ev.Seq,
		AtMs:        durMs(ev.At),
		ComponentID: int64(ev.Component),
		TypeName:    ev.TypeName,
		Session:     ev.Session,
		Kind:        ev.Kind.String(),
		Detail:      ev.Detail,
		ParentSeq:   seqPtr(ev.Parent),
		TriggerSeq:  seqPtr(ev.TriggerSeq),
		Trigger:     ev.Trigger.String(),
		Async:       ev.Flags.Async,
		FirstRender: ev.Flags.FirstRender,
		Suppressed:  ev.Flags.Suppressed,
	}
	if ev.Duration != timeline.NoDuration {
		ms := durMs(ev.Duration)
		dto.DurationMs = &ms
	}
	return dto
}

func eventDTOs(evs []timeline.Event) []EventDTO {
	out := make([]EventDTO, 0, len(evs))
	for _, ev := range evs {
		out = append(out, eventDTO(ev))
	}
	return out
}

// BatchDTO mirrors timeline.Batch.
type BatchDTO struct {
	ID       int64   `json:"id"`
	StartMs  float64 `json:"start_ms"`
	EndMs    float64 `json:"end_ms"`
	Members  []int64 `json:"member_ids"`
	Trigger  string  `json:"trigger"`
	EventSeq int64   `json:"event_seq"`
	Open     bool    `json:"open"`
}

func batchDTO(b timeline.Batch) BatchDTO {
	members := make([]int64, 0, len(b.Members))
	for _, m := range b.Members {
		members = append(members, int64(m))
	}
	return BatchDTO{
		ID:       b.ID,
		StartMs:  durMs(b.Start),
		EndMs:    durMs(b.End),
		Members:  members,
		Trigger:  b.Trigger,
		EventSeq: b.EventSeq,
		Open:     b.Open,
	}
}

// RankedDTO mirrors timeline.Ranked.
type RankedDTO struct {
	ComponentID   int64   `json:"component_id"`
	TypeName      string  `json:"type"`
	Renders       uint64  `json:"renders"`
	TotalRenderMs float64 `json:"total_render_ms"`
}

func rankedDTO(r timeline.Ranked) RankedDTO {
	return RankedDTO{
		ComponentID:   int64(r.Component),
		TypeName:      r.TypeName,
		Renders:       r.Renders,
		TotalRenderMs: durMs(r.TotalRender),
	}
}

func durMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func idPtr(id host.ComponentID) *int64 {
	if id == host.None {
		return nil
	}
	v := int64(id)
	return &v
}

func seqPtr(seq int64) *int64 {
	if seq == timeline.NoSeq {
		return nil
	}
	return &seq
}
