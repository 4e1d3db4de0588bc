package registry

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"renderscope/internal/host"
	"renderscope/internal/metrics"
	"renderscope/internal/timeline"
)

// Registry is the per-session component catalog. One mutex guards the whole
// pending/resolved state so readers never observe a half-reconciled pass.
// It is generic over the host runtime's component instance type.
type Registry[I any] struct {
	mu sync.Mutex

	session string
	byRef   map[weak.Pointer[I]]*record[I] // every record with a known instance
	byID    map[host.ComponentID]*record[I]

	introspector host.TreeIntrospector[I]
	rec          timeline.Recorder // optional; lifecycle transitions observed during reconcile

	minInterval   time.Duration
	lastReconcile time.Time
	unsupported   bool // sticky once the introspector reports ErrUnsupported
}

// Options configures a session registry.
type Options[I any] struct {
	// Session labels timeline events produced by reconciliation.
	Session string
	// Introspector is the host's tree capability; nil disables reconciliation
	// the same way ErrUnsupported does.
	Introspector host.TreeIntrospector[I]
	// Recorder receives synthesize/dispose events observed during
	// reconciliation. Optional.
	Recorder timeline.Recorder
	// ReconcileInterval throttles reconciliation passes. Zero means no
	// throttle, which is only sensible in tests.
	ReconcileInterval time.Duration
}

// New returns an empty session registry.
func New[I any](opts Options[I]) *Registry[I] {
	return &Registry[I]{
		session:      opts.Session,
		byRef:        make(map[weak.Pointer[I]]*record[I]),
		byID:         make(map[host.ComponentID]*record[I]),
		introspector: opts.Introspector,
		rec:          opts.Recorder,
		minInterval:  opts.ReconcileInterval,
	}
}

// Session returns the session label this registry serves.
func (r *Registry[I]) Session() string {
	return r.session
}

// SetIntrospector wires the host's tree capability after construction, for
// hosts that only exist once the probe does.
func (r *Registry[I]) SetIntrospector(ti host.TreeIntrospector[I]) {
	r.mu.Lock()
	r.introspector = ti
	r.unsupported = false
	r.mu.Unlock()
}

// RegisterPending inserts a pending record for an instance whose host id is
// not known yet. Re-registering the same instance overwrites the prior
// record. A nil instance is ignored.
func (r *Registry[I]) RegisterPending(inst *I, typ host.TypeInfo, mode Mode) {
	if inst == nil {
		return
	}
	wp := weak.Make(inst)

	r.mu.Lock()
	prev := r.byRef[wp]
	if prev != nil && !prev.pending() {
		delete(r.byID, prev.id)
	}
	rec := &record[I]{
		ref:     wp,
		hasRef:  true,
		id:      host.None,
		typ:     typ,
		parent:  host.None,
		mode:    mode,
		created: now(),
	}
	if mode == ModeEnhanced {
		rec.acc = metrics.New(rec.created)
	}
	r.byRef[wp] = rec
	r.mu.Unlock()

	// The association must never extend the instance's lifetime; once the
	// host lets go of the instance the record goes with it.
	if prev == nil {
		runtime.AddCleanup(inst, r.dropCollected, wp)
	}
}

// ResolveDirect promotes a pending record to resolved with the id the host
// assigned at attach. A no-op if the instance was never registered.
func (r *Registry[I]) ResolveDirect(inst *I, id host.ComponentID) {
	if inst == nil || id == host.None {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.byRef[weak.Make(inst)]
	if rec == nil {
		return
	}
	if other := r.byID[id]; other != nil && other != rec {
		r.removeLocked(other)
	}
	if !rec.pending() {
		delete(r.byID, rec.id)
	}
	rec.id = id
	r.byID[id] = rec
}

// Unregister removes a record, pending or resolved. After it returns no
// query yields the instance by id or by reference.
func (r *Registry[I]) Unregister(inst *I) {
	if inst == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.byRef[weak.Make(inst)]; rec != nil {
		r.removeLocked(rec)
	}
}

// Metrics returns the accumulator owned by the instance's record, if any.
func (r *Registry[I]) Metrics(inst *I) *metrics.Accumulator {
	if inst == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.byRef[weak.Make(inst)]; rec != nil {
		return rec.acc
	}
	return nil
}

// Describe returns the current identity of an instance: its id (host.None
// while pending) and type descriptor.
func (r *Registry[I]) Describe(inst *I) (host.ComponentID, host.TypeInfo, bool) {
	if inst == nil {
		return host.None, host.TypeInfo{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.byRef[weak.Make(inst)]
	if rec == nil {
		return host.None, host.TypeInfo{}, false
	}
	return rec.id, rec.typ, true
}

// Component returns a copy of the record resolved under id.
func (r *Registry[I]) Component(id host.ComponentID) (Component, bool) {
	r.Reconcile()
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.byID[id]
	if rec == nil {
		return Component{}, false
	}
	return rec.component(), true
}

// All returns every tracked component: resolved entries ordered by id, then
// pending entries ordered by creation time.
func (r *Registry[I]) All() []Component {
	r.Reconcile()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	out := make([]Component, 0, len(r.byRef)+len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec.component())
	}
	sortComponents(out)
	pending := make([]Component, 0)
	for _, rec := range r.byRef {
		if rec.pending() {
			pending = append(pending, rec.component())
		}
	}
	sortPending(pending)
	return append(out, pending...)
}

// Subtree returns the component with the given id plus every resolved
// descendant reachable through parent links.
func (r *Registry[I]) Subtree(id host.ComponentID) []Component {
	r.Reconcile()
	r.mu.Lock()
	defer r.mu.Unlock()

	root := r.byID[id]
	if root == nil {
		return nil
	}
	children := make(map[host.ComponentID][]*record[I])
	for _, rec := range r.byID {
		if rec.parent != host.None {
			children[rec.parent] = append(children[rec.parent], rec)
		}
	}
	out := []Component{root.component()}
	queue := []host.ComponentID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			out = append(out, child.component())
			queue = append(queue, child.id)
		}
	}
	sortComponents(out)
	return out
}

// Counts reports resolved/pending/total occupancy.
func (r *Registry[I]) Counts() Counts {
	r.Reconcile()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	pending := 0
	for _, rec := range r.byRef {
		if rec.pending() {
			pending++
		}
	}
	return Counts{
		Resolved: len(r.byID),
		Pending:  pending,
		Total:    len(r.byID) + pending,
	}
}

// removeLocked deletes a record from every index.
func (r *Registry[I]) removeLocked(rec *record[I]) {
	if rec.hasRef {
		delete(r.byRef, rec.ref)
	}
	if !rec.pending() {
		delete(r.byID, rec.id)
	}
}

// pruneLocked drops pending records whose instance has been collected.
func (r *Registry[I]) pruneLocked() {
	for wp, rec := range r.byRef {
		if rec.pending() && wp.Value() == nil {
			delete(r.byRef, wp)
		}
	}
}

// dropCollected runs from the GC once an instance is unreachable.
func (r *Registry[I]) dropCollected(wp weak.Pointer[I]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec := r.byRef[wp]; rec != nil {
		r.removeLocked(rec)
	}
}

func sortComponents(cs []Component) {
	sortSlice(cs, func(a, b Component) bool { return a.ID < b.ID })
}

func sortPending(cs []Component) {
	sortSlice(cs, func(a, b Component) bool { return a.Created.Before(b.Created) })
}

// now is swapped out by tests.
var now = func() time.Time { return time.Now().UTC() }
