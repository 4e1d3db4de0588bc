package registry

import (
	"errors"
	"weak"

	"renderscope/internal/host"
	"renderscope/internal/timeline"
)

// Reconcile merges locally observed state with the host's authoritative tree
// snapshot. The snapshot is read without holding the session mutex: the host
// serves it under its own locks, and those same locks may be held while the
// host fires lifecycle hooks that call back into this registry. Only the
// merge runs under the mutex, as one uninterrupted pass. Passes are
// throttled to the configured minimum interval; a pass against an
// unsupported introspector is a permanent no-op, which is the expected
// steady state for hosts that expose no introspection.
//
// After a completed pass the resolved set's ids equal the snapshot's ids
// exactly: pendings whose instance appears in the snapshot are promoted,
// parents of surviving entries are refreshed, snapshot entries nobody
// observed being created are synthesized as basic-mode records, and resolved
// entries the snapshot no longer reports are deleted.
func (r *Registry[I]) Reconcile() {
	r.mu.Lock()
	ti, run := r.beginReconcileLocked()
	r.mu.Unlock()
	if !run {
		return
	}

	snap, err := ti.IntrospectTree()

	r.mu.Lock()
	var changes []change
	if err != nil {
		if errors.Is(err, host.ErrUnsupported) {
			r.unsupported = true
		}
	} else {
		changes = r.mergeLocked(snap)
	}
	r.mu.Unlock()

	for _, c := range changes {
		r.emit(c)
	}
}

// beginReconcileLocked decides whether a pass should run and stamps the
// throttle timestamp up front, so concurrent callers never trigger
// overlapping passes within the interval.
func (r *Registry[I]) beginReconcileLocked() (host.TreeIntrospector[I], bool) {
	if r.introspector == nil || r.unsupported {
		return nil, false
	}
	if t := now(); t.Sub(r.lastReconcile) < r.minInterval {
		return nil, false
	}
	r.lastReconcile = now()
	return r.introspector, true
}

// change is a lifecycle transition observed while reconciling, reported to
// the timeline after the lock is released.
type change struct {
	kind timeline.Kind
	id   host.ComponentID
	typ  host.TypeInfo
}

func (r *Registry[I]) mergeLocked(snap map[host.ComponentID]host.TreeNode[I]) []change {
	r.pruneLocked()

	// Snapshot instances by weak identity for the reference-match pass.
	byInst := make(map[weak.Pointer[I]]host.ComponentID, len(snap))
	for id, node := range snap {
		if node.Instance != nil {
			byInst[weak.Make(node.Instance)] = id
		}
	}

	// Promote pendings whose instance is reference-identical to a snapshot
	// entry, preserving creation time and accumulated metrics.
	for wp, rec := range r.byRef {
		if !rec.pending() {
			continue
		}
		if id, ok := byInst[wp]; ok {
			r.promoteLocked(rec, id, snap[id])
		}
	}

	r.typeNameFallbackLocked(snap)

	// Refresh parents: the host legitimately re-parents subtrees.
	for id, rec := range r.byID {
		if node, ok := snap[id]; ok {
			rec.parent = node.Parent
		}
	}

	var changes []change

	// Synthesize records for snapshot entries that bypassed the creation
	// hook. These are only discoverable here, so they track in basic mode.
	for id, node := range snap {
		if _, ok := r.byID[id]; ok {
			continue
		}
		rec := &record[I]{
			id:      id,
			typ:     node.Type,
			parent:  node.Parent,
			mode:    ModeBasic,
			created: now(),
		}
		if node.Instance != nil {
			rec.ref = weak.Make(node.Instance)
			rec.hasRef = true
			r.byRef[rec.ref] = rec
		}
		r.byID[id] = rec
		changes = append(changes, change{timeline.KindBasicRender, id, node.Type})
	}

	// Drop resolved records the host no longer reports; either the dispose
	// hook was never observed or it raced this pass.
	for id, rec := range r.byID {
		if _, ok := snap[id]; !ok {
			r.removeLocked(rec)
			changes = append(changes, change{timeline.KindDispose, id, rec.typ})
		}
	}
	return changes
}

func (r *Registry[I]) promoteLocked(rec *record[I], id host.ComponentID, node host.TreeNode[I]) {
	if other := r.byID[id]; other != nil && other != rec {
		r.removeLocked(other)
	}
	rec.id = id
	rec.parent = node.Parent
	r.byID[id] = rec
}

// typeNameFallbackLocked is the lower-confidence fallback for pendings with
// no reference match: a pending is matched by type name only when it is the
// single pending of that type and the snapshot holds a single unclaimed
// entry of that type. Ambiguous sibling sets stay pending for a later pass.
func (r *Registry[I]) typeNameFallbackLocked(snap map[host.ComponentID]host.TreeNode[I]) {
	pendingByType := make(map[string][]*record[I])
	for _, rec := range r.byRef {
		if rec.pending() {
			pendingByType[rec.typ.FullName] = append(pendingByType[rec.typ.FullName], rec)
		}
	}
	if len(pendingByType) == 0 {
		return
	}

	unclaimedByType := make(map[string][]host.ComponentID)
	for id, node := range snap {
		if _, ok := r.byID[id]; !ok {
			unclaimedByType[node.Type.FullName] = append(unclaimedByType[node.Type.FullName], id)
		}
	}
	for typ, pendings := range pendingByType {
		ids := unclaimedByType[typ]
		if len(pendings) != 1 || len(ids) != 1 {
			continue
		}
		r.promoteLocked(pendings[0], ids[0], snap[ids[0]])
	}
}

func (r *Registry[I]) emit(c change) {
	if r.rec == nil {
		return
	}
	r.rec.Record(timeline.Sample{
		Component: c.id,
		TypeName:  c.typ.Name,
		Session:   r.session,
		Kind:      c.kind,
	})
}
