package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EventsParams narrows the timeline query. Since, Component and the time
// range are mutually exclusive; the agent applies them in that order.
type EventsParams struct {
	Since     *int64
	Component *int64
	FromMs    *float64
	ToMs      *float64
	Timeout   time.Duration
}

func (p EventsParams) buildPath() (string, error) {
	set := 0
	for _, on := range []bool{p.Since != nil, p.Component != nil, p.FromMs != nil || p.ToMs != nil} {
		if on {
			set++
		}
	}
	if set > 1 {
		return "", errors.New("since, component and time range filters are mutually exclusive")
	}

	switch {
	case p.Since != nil:
		if *p.Since < 0 {
			return "", fmt.Errorf("invalid since sequence id: %d", *p.Since)
		}
		return "/api/events?since=" + strconv.FormatInt(*p.Since, 10), nil
	case p.Component != nil:
		return "/api/events?component=" + strconv.FormatInt(*p.Component, 10), nil
	case p.FromMs != nil || p.ToMs != nil:
		path := "/api/events?"
		if p.FromMs != nil {
			path += "from_ms=" + strconv.FormatFloat(*p.FromMs, 'f', -1, 64)
			if p.ToMs != nil {
				path += "&"
			}
		}
		if p.ToMs != nil {
			path += "to_ms=" + strconv.FormatFloat(*p.ToMs, 'f', -1, 64)
		}
		return path, nil
	default:
		return "/api/events", nil
	}
}

// Events fetches timeline events matching the provided filters.
func (a *App) Events(ctx context.Context, params EventsParams) ([]Event, error) {
	path, err := params.buildPath()
	if err != nil {
		return nil, err
	}
	var out []Event
	if err := a.get(ctx, params.Timeout, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Batches fetches recorded render batches.
func (a *App) Batches(ctx context.Context, timeout time.Duration) ([]Batch, error) {
	var out []Batch
	if err := a.get(ctx, timeout, "/api/batches", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ranked fetches the render-cost ranking.
func (a *App) Ranked(ctx context.Context, timeout time.Duration) ([]Ranked, error) {
	var out []Ranked
	if err := a.get(ctx, timeout, "/api/ranked", &out); err != nil {
		return nil, err
	}
	return out, nil
}
