package inspector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renderscope/internal/host"
	"renderscope/internal/registry"
	"renderscope/internal/timeline"
)

// fakeSession is a canned Session implementation.
type fakeSession struct {
	id         string
	components []registry.Component
}

func (f *fakeSession) Session() string { return f.id }

func (f *fakeSession) All() []registry.Component {
	return append([]registry.Component(nil), f.components...)
}

func (f *fakeSession) Component(id host.ComponentID) (registry.Component, bool) {
	for _, c := range f.components {
		if c.ID == id {
			return c, true
		}
	}
	return registry.Component{}, false
}

func (f *fakeSession) Subtree(id host.ComponentID) []registry.Component {
	c, ok := f.Component(id)
	if !ok {
		return nil
	}
	out := []registry.Component{c}
	for _, cand := range f.components {
		if cand.Parent == id {
			out = append(out, cand)
		}
	}
	return out
}

func (f *fakeSession) Counts() registry.Counts {
	return registry.Counts{Resolved: len(f.components), Total: len(f.components)}
}

func newTestService(t *testing.T) (*Service, *timeline.Log) {
	t.Helper()
	log := timeline.NewLog(0)
	log.Start()
	svc := NewService(log, nil)
	svc.AddSession(&fakeSession{
		id: "sess-1",
		components: []registry.Component{
			{ID: 1, Type: host.TypeInfo{Name: "MainLayout", FullName: "demo.MainLayout"}, Parent: host.None},
			{ID: 2, Type: host.TypeInfo{Name: "CounterCard", FullName: "demo.CounterCard"}, Parent: 1},
		},
	})
	return svc, log
}

func doRequest(t *testing.T, svc *Service, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	svc, _ := newTestService(t)
	w := doRequest(t, svc, http.MethodGet, "/api/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRecordingLifecycle(t *testing.T) {
	svc, log := newTestService(t)
	log.Stop()

	w := doRequest(t, svc, http.MethodPost, "/api/recording/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state StateDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Recording)
	assert.Equal(t, 0, state.EventCount)
	require.NotNil(t, state.StartedAt)

	log.Record(timeline.Sample{Component: 1, Kind: timeline.KindRender})

	w = doRequest(t, svc, http.MethodPost, "/api/recording/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Recording)
	assert.Equal(t, 1, state.EventCount)

	w = doRequest(t, svc, http.MethodPost, "/api/recording/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 0, state.EventCount)
}

func TestRecordingLimit(t *testing.T) {
	svc, _ := newTestService(t)

	w := doRequest(t, svc, http.MethodPut, "/api/recording/limit", `{"max_events": 999999}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cap":100000}`, w.Body.String())

	w = doRequest(t, svc, http.MethodPut, "/api/recording/limit", `{"max_events": 50}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cap":100}`, w.Body.String())

	w = doRequest(t, svc, http.MethodPut, "/api/recording/limit", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionsList(t *testing.T) {
	svc, _ := newTestService(t)
	w := doRequest(t, svc, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":["sess-1"]}`, w.Body.String())
}

func TestComponentsDefaultSession(t *testing.T) {
	svc, _ := newTestService(t)
	w := doRequest(t, svc, http.MethodGet, "/api/components", "")
	require.Equal(t, http.StatusOK, w.Code)

	var comps []ComponentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comps))
	require.Len(t, comps, 2)
	require.NotNil(t, comps[0].ID)
	assert.EqualValues(t, 1, *comps[0].ID)
	assert.Nil(t, comps[0].ParentID, "root parent serializes as null")
	require.NotNil(t, comps[1].ParentID)
	assert.EqualValues(t, 1, *comps[1].ParentID)
	assert.Equal(t, "enhanced", comps[0].Mode)
}

func TestComponentsExplicitSession(t *testing.T) {
	svc, _ := newTestService(t)

	w := doRequest(t, svc, http.MethodGet, "/api/sessions/sess-1/components", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, svc, http.MethodGet, "/api/sessions/nope/components", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDefaultSessionAmbiguousWithTwo(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AddSession(&fakeSession{id: "sess-2"})

	w := doRequest(t, svc, http.MethodGet, "/api/components", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, svc, http.MethodGet, "/api/sessions/sess-2/components", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestComponentByID(t *testing.T) {
	svc, _ := newTestService(t)

	w := doRequest(t, svc, http.MethodGet, "/api/components/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var c ComponentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, "CounterCard", c.Type.Name)

	w = doRequest(t, svc, http.MethodGet, "/api/components/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, svc, http.MethodGet, "/api/components/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComponentsSubtree(t *testing.T) {
	svc, _ := newTestService(t)
	w := doRequest(t, svc, http.MethodGet, "/api/components?subtree=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var comps []ComponentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comps))
	assert.Len(t, comps, 2)

	w = doRequest(t, svc, http.MethodGet, "/api/components?subtree=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCounts(t *testing.T) {
	svc, _ := newTestService(t)
	w := doRequest(t, svc, http.MethodGet, "/api/components/counts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resolved":2,"pending":0,"total":2}`, w.Body.String())
}

func TestEventsFilters(t *testing.T) {
	svc, log := newTestService(t)
	log.Record(timeline.Sample{Component: 1, TypeName: "MainLayout", Session: "sess-1", Kind: timeline.KindRender, Duration: 2 * time.Millisecond})
	log.Record(timeline.Sample{Component: 2, TypeName: "CounterCard", Session: "sess-1", Kind: timeline.KindRender, Duration: time.Millisecond})

	w := doRequest(t, svc, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []EventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.EqualValues(t, 1, events[0].Seq)
	require.NotNil(t, events[0].DurationMs)
	assert.Equal(t, 2.0, *events[0].DurationMs)

	w = doRequest(t, svc, http.MethodGet, "/api/events?since=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.EqualValues(t, 2, events[0].Seq)

	w = doRequest(t, svc, http.MethodGet, "/api/events?component=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.EqualValues(t, 2, events[0].ComponentID)

	w = doRequest(t, svc, http.MethodGet, "/api/events?since=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, svc, http.MethodGet, "/api/events?from_ms=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpenDurationSerializesNull(t *testing.T) {
	svc, log := newTestService(t)
	log.RecordStart(timeline.Sample{Component: 1, Kind: timeline.KindCallbackInvoked})

	w := doRequest(t, svc, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "null", string(raw[0]["duration_ms"]))
}

func TestBatchesAndRanked(t *testing.T) {
	svc, log := newTestService(t)
	id := log.BatchStart("sess-1", "timer")
	log.Record(timeline.Sample{Component: 2, TypeName: "CounterCard", Kind: timeline.KindRender, Duration: 3 * time.Millisecond})
	log.BatchEnd(id)

	w := doRequest(t, svc, http.MethodGet, "/api/batches", "")
	require.Equal(t, http.StatusOK, w.Code)
	var batches []BatchDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batches))
	require.Len(t, batches, 1)
	assert.Equal(t, "timer", batches[0].Trigger)
	assert.Equal(t, []int64{2}, batches[0].Members)
	assert.False(t, batches[0].Open)

	w = doRequest(t, svc, http.MethodGet, "/api/ranked", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ranked []RankedDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))
	require.Len(t, ranked, 1)
	assert.EqualValues(t, 2, ranked[0].ComponentID)
	assert.EqualValues(t, 1, ranked[0].Renders)
	assert.Equal(t, 3.0, ranked[0].TotalRenderMs)
}

func TestRemoveSession(t *testing.T) {
	svc, _ := newTestService(t)
	svc.RemoveSession("sess-1")
	w := doRequest(t, svc, http.MethodGet, "/api/components", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
