package inspector

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"renderscope/internal/host"
)

// Router builds the inspector API. Everything is side-effect-free except the
// recording controls and the event-cap setter.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/api/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/recording", s.handleState)
		r.Post("/recording/start", s.handleStart)
		r.Post("/recording/stop", s.handleStop)
		r.Post("/recording/clear", s.handleClear)
		r.Put("/recording/limit", s.handleLimit)

		r.Get("/sessions", s.handleSessions)

		// Component queries accept an explicit session or, for the common
		// single-session agent, none at all.
		r.Get("/components", s.handleComponents)
		r.Get("/components/counts", s.handleCounts)
		r.Get("/components/{id}", s.handleComponent)
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Get("/components", s.handleComponents)
			r.Get("/components/counts", s.handleCounts)
			r.Get("/components/{id}", s.handleComponent)
		})

		r.Get("/events", s.handleEvents)
		r.Get("/batches", s.handleBatches)
		r.Get("/ranked", s.handleRanked)

		r.Get("/stream", s.handleStream)
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stateDTO(s.rec.State()))
}

func (s *Service) handleStart(w http.ResponseWriter, _ *http.Request) {
	s.rec.Start()
	writeJSON(w, http.StatusOK, stateDTO(s.rec.State()))
}

func (s *Service) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.rec.Stop()
	writeJSON(w, http.StatusOK, stateDTO(s.rec.State()))
}

func (s *Service) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.rec.Clear()
	writeJSON(w, http.StatusOK, stateDTO(s.rec.State()))
}

func (s *Service) handleLimit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxEvents int `json:"max_events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: expected {\"max_events\": n}")
		return
	}
	applied := s.rec.SetMaxEvents(body.MaxEvents)
	writeJSON(w, http.StatusOK, map[string]int{"cap": applied})
}

func (s *Service) handleSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.SessionIDs()})
}

func (s *Service) handleComponents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "session"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	if sub := r.URL.Query().Get("subtree"); sub != "" {
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid subtree id")
			return
		}
		writeJSON(w, http.StatusOK, componentDTOs(sess.Subtree(host.ComponentID(id))))
		return
	}
	writeJSON(w, http.StatusOK, componentDTOs(sess.All()))
}

func (s *Service) handleComponent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "session"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid component id")
		return
	}
	c, ok := sess.Component(host.ComponentID(id))
	if !ok {
		writeError(w, http.StatusNotFound, "component not found")
		return
	}
	writeJSON(w, http.StatusOK, componentDTO(c))
}

func (s *Service) handleCounts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(chi.URLParam(r, "session"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, sess.Counts())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if v := q.Get("since"); v != "" {
		seq, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since sequence id")
			return
		}
		writeJSON(w, http.StatusOK, eventDTOs(s.rec.EventsSince(seq)))
		return
	}
	if v := q.Get("component"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid component id")
			return
		}
		writeJSON(w, http.StatusOK, eventDTOs(s.rec.EventsFor(host.ComponentID(id))))
		return
	}
	if q.Has("from_ms") || q.Has("to_ms") {
		from, err1 := parseMs(q.Get("from_ms"), 0)
		to, err2 := parseMs(q.Get("to_ms"), time.Duration(1<<62))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "invalid time range")
			return
		}
		writeJSON(w, http.StatusOK, eventDTOs(s.rec.EventsInRange(from, to)))
		return
	}
	writeJSON(w, http.StatusOK, eventDTOs(s.rec.Events()))
}

func (s *Service) handleBatches(w http.ResponseWriter, _ *http.Request) {
	batches := s.rec.Batches()
	out := make([]BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) handleRanked(w http.ResponseWriter, _ *http.Request) {
	ranked := s.rec.Ranked()
	out := make([]RankedDTO, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, rankedDTO(r))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func parseMs(v string, fallback time.Duration) (time.Duration, error) {
	if v == "" {
		return fallback, nil
	}
	ms, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
