package app

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// stubAgent replaces the reachability probe and the HTTP transport with
// in-process fakes; handler receives every request the facade issues.
func stubAgent(t *testing.T, running bool, handler func(*http.Request) (*http.Response, error)) {
	t.Helper()
	resetAgentDeps()
	agentReachable = func(string) bool { return running }
	if handler == nil {
		handler = func(*http.Request) (*http.Response, error) {
			t.Fatal("unexpected agent request")
			return nil, nil
		}
	}
	doRequest = handler
	t.Cleanup(resetAgentDeps)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	if r.Body == nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		t.Fatalf("read request body: %v", err)
	}
	return buf.String()
}
