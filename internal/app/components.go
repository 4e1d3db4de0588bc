package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ComponentsParams selects which components to fetch.
type ComponentsParams struct {
	// Session selects one session; empty targets the agent's only session.
	Session string
	// Subtree, when non-nil, restricts the result to the component with that
	// id plus its resolved descendants.
	Subtree *int64
	Timeout time.Duration
}

func componentsPath(session string) string {
	if session == "" {
		return "/api/components"
	}
	return "/api/sessions/" + url.PathEscape(session) + "/components"
}

// Components fetches tracked components for a session.
func (a *App) Components(ctx context.Context, params ComponentsParams) ([]Component, error) {
	path := componentsPath(params.Session)
	if params.Subtree != nil {
		if *params.Subtree < 0 {
			return nil, fmt.Errorf("invalid subtree id: %d", *params.Subtree)
		}
		path += "?subtree=" + strconv.FormatInt(*params.Subtree, 10)
	}
	var out []Component
	if err := a.get(ctx, params.Timeout, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Component fetches a single component by id.
func (a *App) Component(ctx context.Context, session string, id int64, timeout time.Duration) (Component, error) {
	if id < 0 {
		return Component{}, fmt.Errorf("invalid component id: %d", id)
	}
	var out Component
	err := a.get(ctx, timeout, componentsPath(session)+"/"+strconv.FormatInt(id, 10), &out)
	return out, err
}

// Counts fetches registry occupancy for a session.
func (a *App) Counts(ctx context.Context, session string, timeout time.Duration) (Counts, error) {
	var out Counts
	err := a.get(ctx, timeout, componentsPath(session)+"/counts", &out)
	return out, err
}

// Sessions lists the agent's registered session ids.
func (a *App) Sessions(ctx context.Context, timeout time.Duration) ([]string, error) {
	var out struct {
		Sessions []string `json:"sessions"`
	}
	if err := a.get(ctx, timeout, "/api/sessions", &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}
