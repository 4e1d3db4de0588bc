package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var httpClient = &http.Client{}

var (
	agentReachable = defaultAgentReachable
	doRequest      = func(req *http.Request) (*http.Response, error) {
		return httpClient.Do(req)
	}
)

func resetAgentDeps() {
	agentReachable = defaultAgentReachable
	doRequest = func(req *http.Request) (*http.Response, error) {
		return httpClient.Do(req)
	}
}

// defaultAgentReachable probes the agent's health endpoint.
func defaultAgentReachable(addr string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// call performs one JSON request against the agent, decoding the response
// into out when non-nil.
func (a *App) call(ctx context.Context, timeout time.Duration, method, path string, body, out any) error {
	if timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if !agentReachable(a.addr) {
		return errors.New("agent is not running")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+a.addr+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := doRequest(req)
	if err != nil {
		return fmt.Errorf("connect to agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("agent request failed: %s", apiErr.Error)
		}
		return fmt.Errorf("agent request failed: status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode agent response: %w", err)
		}
	}
	return nil
}

func (a *App) get(ctx context.Context, timeout time.Duration, path string, out any) error {
	return a.call(ctx, timeout, http.MethodGet, path, nil, out)
}
