package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"renderscope/internal/app"
)

type stubController struct {
	stateFunc  func(ctx context.Context, timeout time.Duration) (app.RecordingState, error)
	rankedFunc func(ctx context.Context, timeout time.Duration) ([]app.Ranked, error)
}

func (s *stubController) State(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
	if s.stateFunc != nil {
		return s.stateFunc(ctx, timeout)
	}
	return app.RecordingState{}, errors.New("state not implemented")
}

func (s *stubController) Ranked(ctx context.Context, timeout time.Duration) ([]app.Ranked, error) {
	if s.rankedFunc != nil {
		return s.rankedFunc(ctx, timeout)
	}
	return nil, errors.New("ranked not implemented")
}

func (s *stubController) Status() (app.AgentStatus, error) {
	panic("Status not implemented")
}

func (s *stubController) StartAgent() (*app.AgentHandle, error) {
	panic("StartAgent not implemented")
}

func (s *stubController) StartRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
	panic("StartRecording not implemented")
}

func (s *stubController) StopRecording(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
	panic("StopRecording not implemented")
}

func (s *stubController) ClearEvents(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
	panic("ClearEvents not implemented")
}

func (s *stubController) SetLimit(ctx context.Context, n int, timeout time.Duration) (int, error) {
	panic("SetLimit not implemented")
}

func (s *stubController) Components(ctx context.Context, params app.ComponentsParams) ([]app.Component, error) {
	panic("Components not implemented")
}

func (s *stubController) Component(ctx context.Context, session string, id int64, timeout time.Duration) (app.Component, error) {
	panic("Component not implemented")
}

func (s *stubController) Counts(ctx context.Context, session string, timeout time.Duration) (app.Counts, error) {
	panic("Counts not implemented")
}

func (s *stubController) Sessions(ctx context.Context, timeout time.Duration) ([]string, error) {
	panic("Sessions not implemented")
}

func (s *stubController) Events(ctx context.Context, params app.EventsParams) ([]app.Event, error) {
	panic("Events not implemented")
}

func (s *stubController) Batches(ctx context.Context, timeout time.Duration) ([]app.Batch, error) {
	panic("Batches not implemented")
}

func withController(t *testing.T, stub controllerAPI) {
	t.Helper()
	origFactory := controllerFactory
	controllerFactory = func() controllerAPI {
		return stub
	}
	t.Cleanup(func() {
		controllerFactory = origFactory
	})
}

func TestStateSuccess(t *testing.T) {
	withController(t, &stubController{
		stateFunc: func(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
			if timeout != 2*time.Second {
				t.Fatalf("expected timeout 2s, got %v", timeout)
			}
			return app.RecordingState{Recording: true, EventCount: 7, BatchCount: 1, Cap: 10000}, nil
		},
	})

	buf := &bytes.Buffer{}
	cmdState.SetOut(buf)
	t.Cleanup(func() { cmdState.SetOut(nil) })

	oldTimeout := timeoutSeconds
	timeoutSeconds = 2
	t.Cleanup(func() { timeoutSeconds = oldTimeout })

	if err := cmdState.RunE(cmdState, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "recording events=7 batches=1 cap=10000\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStateError(t *testing.T) {
	expected := errors.New("agent is not running")
	withController(t, &stubController{
		stateFunc: func(ctx context.Context, timeout time.Duration) (app.RecordingState, error) {
			return app.RecordingState{}, expected
		},
	})

	err := cmdState.RunE(cmdState, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestRankedOutput(t *testing.T) {
	withController(t, &stubController{
		rankedFunc: func(ctx context.Context, timeout time.Duration) ([]app.Ranked, error) {
			return []app.Ranked{
				{ComponentID: 4, TypeName: "CounterCard", Renders: 12, TotalRenderMs: 48.5},
			}, nil
		},
	})

	buf := &bytes.Buffer{}
	cmdRanked.SetOut(buf)
	t.Cleanup(func() { cmdRanked.SetOut(nil) })

	if err := cmdRanked.RunE(cmdRanked, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != " 1. [4] CounterCard          renders=12 total=48.50ms\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
