// Package sim is a small stand-in component runtime used by the demo agent.
// It owns a component tree, assigns ids, and drives a probe through the same
// lifecycle hooks a real host would call, so the inspector has live data.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"renderscope/internal/host"
	"renderscope/internal/probe"
)

// Component is the simulated instance type. Identity is the pointer.
type Component struct {
	Label   string
	Counter int
}

type node struct {
	inst   *Component
	parent host.ComponentID
	typ    host.TypeInfo
	// hooked is false for components inserted behind the probe's back; the
	// registry only finds those through introspection.
	hooked bool
}

// Runtime simulates one session of a host component runtime.
type Runtime struct {
	mu     sync.Mutex
	probe  *probe.Probe[Component]
	nextID host.ComponentID
	nodes  map[host.ComponentID]*node
	rng    *rand.Rand

	tick        time.Duration
	unsupported bool
	rounds      int
}

// Options configures the simulation.
type Options struct {
	Probe *probe.Probe[Component]
	// Tick is the interval between render passes.
	Tick time.Duration
	// Unsupported makes IntrospectTree fail permanently, exercising the
	// direct-resolution-only steady state.
	Unsupported bool
	Seed        int64
}

var componentTypes = []host.TypeInfo{
	{Name: "NavMenu", FullName: "demo/components.NavMenu"},
	{Name: "CounterCard", FullName: "demo/components.CounterCard"},
	{Name: "OrderRow", FullName: "demo/components.OrderRow"},
	{Name: "StatusBadge", FullName: "demo/components.StatusBadge"},
}

// New builds a runtime with a root layout component already attached.
func New(opts Options) *Runtime {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	r := &Runtime{
		probe:       opts.Probe,
		nextID:      1,
		nodes:       make(map[host.ComponentID]*node),
		rng:         rand.New(rand.NewSource(seed)),
		tick:        tick,
		unsupported: opts.Unsupported,
	}
	r.mu.Lock()
	r.mountLocked(host.None, host.TypeInfo{Name: "MainLayout", FullName: "demo/components.MainLayout"})
	r.mu.Unlock()
	return r
}

// IntrospectTree implements host.TreeIntrospector. The returned map is built
// fresh per call; the runtime retains no reference to it.
func (r *Runtime) IntrospectTree() (map[host.ComponentID]host.TreeNode[Component], error) {
	if r.unsupported {
		return nil, host.ErrUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[host.ComponentID]host.TreeNode[Component], len(r.nodes))
	for id, n := range r.nodes {
		snap[id] = host.TreeNode[Component]{
			Instance: n.inst,
			Parent:   n.parent,
			Type:     n.typ,
		}
	}
	return snap, nil
}

// Run drives render passes until the context is cancelled.
func (r *Runtime) Run(ctx context.Context) {
	t := time.NewTicker(r.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.probe.Close()
			return
		case <-t.C:
			r.step()
		}
	}
}

// step performs one render batch of random component activity.
func (r *Runtime) step() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds++

	batch := r.probe.BatchStarted("timer")

	switch {
	case r.rounds%7 == 0 && len(r.nodes) > 3:
		r.disposeLeafLocked()
	case len(r.nodes) < 12:
		typ := componentTypes[r.rng.Intn(len(componentTypes))]
		r.mountLocked(r.randomIDLocked(), typ)
	}

	// A round of parameter churn, invalidations and callbacks on a few
	// existing components, each followed by its render.
	for i := 0; i < 1+r.rng.Intn(3); i++ {
		id := r.randomIDLocked()
		n := r.nodes[id]
		if n == nil || !n.hooked {
			continue
		}
		n.inst.Counter++
		switch r.rng.Intn(3) {
		case 0:
			r.probe.ParametersSet(n.inst, r.dur(400))
		case 1:
			r.probe.Invalidated(n.inst, r.rng.Intn(4) == 0, r.rng.Intn(8) != 0)
		default:
			r.probe.CallbackInvoked(n.inst, "onclick", r.dur(900), r.rng.Intn(2) == 0)
		}
		r.probe.Rendered(n.inst, r.dur(1600))
		r.probe.PostRendered(n.inst, r.dur(200))
	}

	if r.rounds%11 == 0 {
		// A component mounted behind the probe's back; reconciliation has to
		// discover it.
		r.insertQuietLocked()
	}
	if r.rounds%13 == 0 {
		r.probe.Navigated(fmt.Sprintf("/orders/%d", r.rng.Intn(100)))
	}

	r.probe.BatchCompleted(batch)
}

// mountLocked runs the full enhanced lifecycle for a new component.
func (r *Runtime) mountLocked(parent host.ComponentID, typ host.TypeInfo) {
	inst := &Component{Label: typ.Name}
	r.probe.ComponentCreated(inst, typ)

	id := r.nextID
	r.nextID++
	r.nodes[id] = &node{inst: inst, parent: parent, typ: typ, hooked: true}
	r.probe.ComponentAttached(inst, id)
	r.probe.Initialized(inst, r.dur(700))
	r.probe.ParametersSet(inst, r.dur(300))
	r.probe.Rendered(inst, r.dur(2000))
	r.probe.PostRendered(inst, r.dur(250))
}

// insertQuietLocked adds a component without calling any hook.
func (r *Runtime) insertQuietLocked() {
	typ := componentTypes[r.rng.Intn(len(componentTypes))]
	id := r.nextID
	r.nextID++
	r.nodes[id] = &node{
		inst:   &Component{Label: typ.Name},
		parent: r.randomIDLocked(),
		typ:    typ,
	}
}

func (r *Runtime) disposeLeafLocked() {
	for id, n := range r.nodes {
		if id == 1 || r.hasChildLocked(id) {
			continue
		}
		if n.hooked {
			r.probe.Disposed(n.inst)
		}
		delete(r.nodes, id)
		return
	}
}

func (r *Runtime) hasChildLocked(id host.ComponentID) bool {
	for _, n := range r.nodes {
		if n.parent == id {
			return true
		}
	}
	return false
}

func (r *Runtime) randomIDLocked() host.ComponentID {
	ids := make([]host.ComponentID, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return host.None
	}
	return ids[r.rng.Intn(len(ids))]
}

func (r *Runtime) dur(maxMicros int) time.Duration {
	return time.Duration(1+r.rng.Intn(maxMicros)) * time.Microsecond
}
