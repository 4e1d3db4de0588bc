package app

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// State fetches the recorder state.
func (a *App) State(ctx context.Context, timeout time.Duration) (RecordingState, error) {
	var out RecordingState
	err := a.get(ctx, timeout, "/api/recording", &out)
	return out, err
}

// StartRecording begins a fresh recording and returns the new state.
func (a *App) StartRecording(ctx context.Context, timeout time.Duration) (RecordingState, error) {
	var out RecordingState
	err := a.call(ctx, timeout, http.MethodPost, "/api/recording/start", nil, &out)
	return out, err
}

// StopRecording freezes the recording buffer.
func (a *App) StopRecording(ctx context.Context, timeout time.Duration) (RecordingState, error) {
	var out RecordingState
	err := a.call(ctx, timeout, http.MethodPost, "/api/recording/stop", nil, &out)
	return out, err
}

// ClearEvents drops recorded events and batches.
func (a *App) ClearEvents(ctx context.Context, timeout time.Duration) (RecordingState, error) {
	var out RecordingState
	err := a.call(ctx, timeout, http.MethodPost, "/api/recording/clear", nil, &out)
	return out, err
}

// SetLimit applies a new event cap and returns the value the agent actually
// applied after clamping.
func (a *App) SetLimit(ctx context.Context, n int, timeout time.Duration) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid event limit: %d", n)
	}
	body := map[string]int{"max_events": n}
	var out struct {
		Cap int `json:"cap"`
	}
	if err := a.call(ctx, timeout, http.MethodPut, "/api/recording/limit", body, &out); err != nil {
		return 0, err
	}
	return out.Cap, nil
}
