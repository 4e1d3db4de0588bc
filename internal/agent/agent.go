// Package agent assembles a running renderscope instance: the process-wide
// recorder, one demo host session with its registry and probe, and the
// inspector API serving both.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"renderscope/internal/config"
	"renderscope/internal/inspector"
	"renderscope/internal/probe"
	"renderscope/internal/registry"
	"renderscope/internal/sim"
	"renderscope/internal/timeline"
)

// Agent is a running instance.
type Agent struct {
	srv    *inspector.Server
	cancel context.CancelFunc
	log    *zap.Logger
}

// Start loads configuration, wires the pipeline and begins serving. The
// demo runtime starts producing lifecycle activity immediately and the
// recorder starts recording, so an inspector sees data without extra steps.
func Start(cfgPath string) (*Agent, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	rec := timeline.NewLog(cfg.EventLimit)
	rec.Start()

	svc := inspector.NewService(rec, logger)

	session := uuid.NewString()
	reg := registry.New(registry.Options[sim.Component]{
		Session:           session,
		Recorder:          rec,
		ReconcileInterval: cfg.ReconcileInterval,
	})
	p := probe.New(probe.Options[sim.Component]{
		Session:  session,
		Registry: reg,
		Recorder: rec,
		Logger:   logger,
	})
	rt := sim.New(sim.Options{Probe: p, Tick: cfg.SimTick})
	reg.SetIntrospector(rt)
	svc.AddSession(reg)

	srv, err := inspector.Serve(cfg.ListenAddr, svc, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go rt.Run(ctx)

	return &Agent{srv: srv, cancel: cancel, log: logger}, nil
}

// Addr returns the inspector API's bound address.
func (a *Agent) Addr() string {
	return a.srv.Addr()
}

// Close stops the demo runtime and drains the server.
func (a *Agent) Close() error {
	a.cancel()
	err := a.srv.Close()
	_ = a.log.Sync()
	return err
}
