// Package probe is the instrumentation layer the host runtime calls into.
// Every hook is a fast synchronous update of the session registry, the
// component's metrics and the timeline; nothing here is ever allowed to
// propagate a failure back into a host render.
package probe

import (
	"time"

	"go.uber.org/zap"

	"renderscope/internal/host"
	"renderscope/internal/metrics"
	"renderscope/internal/registry"
	"renderscope/internal/timeline"
)

// Probe instruments one session of the host runtime.
type Probe[I any] struct {
	session string
	reg     *registry.Registry[I]
	rec     timeline.Recorder
	log     *zap.Logger
}

// Options wires a probe.
type Options[I any] struct {
	Session  string
	Registry *registry.Registry[I]
	Recorder timeline.Recorder
	Logger   *zap.Logger // nop when nil
}

// New builds a probe and records the session-opened event.
func New[I any](opts Options[I]) *Probe[I] {
	p := &Probe[I]{
		session: opts.Session,
		reg:     opts.Registry,
		rec:     opts.Recorder,
		log:     opts.Logger,
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.rec.Record(timeline.Sample{
		Component: host.None,
		Session:   p.session,
		Kind:      timeline.KindSessionOpened,
	})
	return p
}

// Close records the session-closed event.
func (p *Probe[I]) Close() {
	defer p.guard("close")
	p.rec.Record(timeline.Sample{
		Component: host.None,
		Session:   p.session,
		Kind:      timeline.KindSessionClosed,
	})
}

// Registry exposes the session registry behind this probe.
func (p *Probe[I]) Registry() *registry.Registry[I] {
	return p.reg
}

// ComponentCreated registers an instance before the host assigns its id.
func (p *Probe[I]) ComponentCreated(inst *I, typ host.TypeInfo) {
	defer p.guard("created")
	p.reg.RegisterPending(inst, typ, registry.ModeEnhanced)
}

// ComponentAttached resolves the instance with its host-assigned id.
func (p *Probe[I]) ComponentAttached(inst *I, id host.ComponentID) {
	defer p.guard("attached")
	p.reg.ResolveDirect(inst, id)
}

// Initialized records the init phase duration.
func (p *Probe[I]) Initialized(inst *I, d time.Duration) {
	defer p.guard("initialized")
	p.observe(inst, metrics.PhaseInit, d)
	p.event(inst, timeline.Sample{Kind: timeline.KindInitialize, Duration: d})
}

// ParametersSet records a parameter application.
func (p *Probe[I]) ParametersSet(inst *I, d time.Duration) {
	defer p.guard("parameters")
	p.observe(inst, metrics.PhaseParameters, d)
	p.event(inst, timeline.Sample{Kind: timeline.KindParameterSet, Duration: d})
}

// Invalidated classifies a state-invalidation call. A render already queued
// takes precedence over the render gate declining.
func (p *Probe[I]) Invalidated(inst *I, alreadyQueued, renderAccepted bool) {
	defer p.guard("invalidated")

	outcome := metrics.Honored
	if acc := p.reg.Metrics(inst); acc != nil {
		outcome = acc.ObserveInvalidation(alreadyQueued, renderAccepted)
	} else if alreadyQueued {
		outcome = metrics.SuppressedQueued
	} else if !renderAccepted {
		outcome = metrics.SuppressedDeclined
	}

	s := timeline.Sample{Kind: timeline.KindInvalidation, Detail: outcome.String()}
	if outcome != metrics.Honored {
		s.Kind = timeline.KindInvalidationSuppressed
		s.Flags.Suppressed = true
	}
	p.event(inst, s)
}

// CallbackInvoked records a completed event callback.
func (p *Probe[I]) CallbackInvoked(inst *I, name string, d time.Duration, async bool) {
	defer p.guard("callback")
	p.observe(inst, metrics.PhaseCallback, d)
	p.event(inst, timeline.Sample{
		Kind:     timeline.KindCallbackInvoked,
		Detail:   name,
		Duration: d,
		Flags:    timeline.Flags{Async: async},
	})
}

// CallbackStarted opens a split event for a callback spanning an awaited
// operation. The returned sequence id feeds CallbackFinished.
func (p *Probe[I]) CallbackStarted(inst *I, name string) int64 {
	defer p.guard("callback_start")
	id, typ, _ := p.reg.Describe(inst)
	return p.rec.RecordStart(timeline.Sample{
		Component: id,
		TypeName:  typ.Name,
		Session:   p.session,
		Kind:      timeline.KindCallbackInvoked,
		Detail:    name,
		Flags:     timeline.Flags{Async: true},
	})
}

// CallbackFinished back-fills the duration of a split callback event. An
// unknown sequence id means the event was already evicted; that is accepted
// precision loss, not an error.
func (p *Probe[I]) CallbackFinished(inst *I, seq int64, d time.Duration) {
	defer p.guard("callback_end")
	p.observe(inst, metrics.PhaseCallback, d)
	if seq != timeline.NoSeq {
		p.rec.RecordEnd(seq, d)
	}
}

// Rendered records a render: metrics, first-render detection and the
// trigger-correlated timeline event.
func (p *Probe[I]) Rendered(inst *I, d time.Duration) {
	defer p.guard("rendered")
	first := false
	if acc := p.reg.Metrics(inst); acc != nil {
		first = acc.ObserveRender(d)
	}
	p.event(inst, timeline.Sample{
		Kind:     timeline.KindRender,
		Duration: d,
		Flags:    timeline.Flags{FirstRender: first},
	})
}

// PostRendered records the post-render phase.
func (p *Probe[I]) PostRendered(inst *I, d time.Duration) {
	defer p.guard("post_rendered")
	p.observe(inst, metrics.PhasePostRender, d)
	p.event(inst, timeline.Sample{Kind: timeline.KindPostRender, Duration: d})
}

// Disposed records the dispose event and removes the instance's record.
func (p *Probe[I]) Disposed(inst *I) {
	defer p.guard("disposed")
	p.event(inst, timeline.Sample{Kind: timeline.KindDispose})
	p.reg.Unregister(inst)
}

// Navigated records a session-level navigation event.
func (p *Probe[I]) Navigated(target string) {
	defer p.guard("navigated")
	p.rec.Record(timeline.Sample{
		Component: host.None,
		Session:   p.session,
		Kind:      timeline.KindNavigation,
		Detail:    target,
	})
}

// BatchStarted opens a render batch and returns its id for BatchCompleted.
func (p *Probe[I]) BatchStarted(trigger string) int64 {
	defer p.guard("batch_start")
	return p.rec.BatchStart(p.session, trigger)
}

// BatchCompleted closes a render batch.
func (p *Probe[I]) BatchCompleted(id int64) {
	defer p.guard("batch_end")
	if id != timeline.NoSeq {
		p.rec.BatchEnd(id)
	}
}

func (p *Probe[I]) observe(inst *I, phase metrics.Phase, d time.Duration) {
	if acc := p.reg.Metrics(inst); acc != nil {
		acc.Observe(phase, d)
	}
}

func (p *Probe[I]) event(inst *I, s timeline.Sample) {
	id, typ, _ := p.reg.Describe(inst)
	s.Component = id
	s.TypeName = typ.Name
	s.Session = p.session
	p.rec.Record(s)
}

// guard keeps instrumentation failures out of the host's call stack. A drop
// costs data quality, never a render.
func (p *Probe[I]) guard(hook string) {
	if v := recover(); v != nil {
		p.log.Debug("instrumentation hook dropped", zap.String("hook", hook), zap.Any("panic", v))
	}
}
