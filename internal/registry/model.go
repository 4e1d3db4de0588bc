// Package registry maintains, per session, the mapping from component
// identity to tracking record, reconciled against the host runtime's own
// tree. The host stays the authority: records shadow it, they never own it.
package registry

import (
	"time"
	"weak"

	"renderscope/internal/host"
	"renderscope/internal/metrics"
)

// Mode says how a component is observed.
type Mode int

const (
	// ModeEnhanced components call instrumentation hooks directly; metrics
	// are populated and identity is resolved with high confidence.
	ModeEnhanced Mode = iota
	// ModeBasic components are only discoverable through tree introspection;
	// metrics are absent and confidence is lower.
	ModeBasic
)

func (m Mode) String() string {
	if m == ModeBasic {
		return "basic"
	}
	return "enhanced"
}

// record tracks one live component instance. The weak reference never keeps
// the instance alive; a record whose instance was collected is pruned.
type record[I any] struct {
	ref     weak.Pointer[I]
	hasRef  bool
	id      host.ComponentID // host.None while pending
	typ     host.TypeInfo
	parent  host.ComponentID
	mode    Mode
	created time.Time
	acc     *metrics.Accumulator // nil for basic-mode records
}

func (r *record[I]) pending() bool { return r.id == host.None }

// Component is the copy-out view of a record.
type Component struct {
	ID      host.ComponentID
	Type    host.TypeInfo
	Parent  host.ComponentID
	Mode    Mode
	Pending bool
	Created time.Time
	Metrics *metrics.Stats // nil when no accumulator exists
}

// Counts summarizes registry occupancy.
type Counts struct {
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

func (r *record[I]) component() Component {
	c := Component{
		ID:      r.id,
		Type:    r.typ,
		Parent:  r.parent,
		Mode:    r.mode,
		Pending: r.pending(),
		Created: r.created,
	}
	if r.acc != nil {
		s := r.acc.Snapshot()
		c.Metrics = &s
	}
	return c
}
