// Package inspector exposes the reconstructed tracking state to external
// inspector clients over a JSON HTTP API plus a websocket event stream.
package inspector

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"renderscope/internal/host"
	"renderscope/internal/registry"
	"renderscope/internal/timeline"
)

// Session is the slice of a session registry the query surface needs. All
// methods return copies; the inspector never holds live records.
type Session interface {
	Session() string
	All() []registry.Component
	Component(id host.ComponentID) (registry.Component, bool)
	Subtree(id host.ComponentID) []registry.Component
	Counts() registry.Counts
}

// Service routes inspector queries to the recorder and the per-session
// registries.
type Service struct {
	log *zap.Logger
	rec timeline.Recorder

	mu       sync.RWMutex
	sessions map[string]Session

	done      chan struct{} // closed on shutdown; stops stream pumps
	closeOnce sync.Once
}

// NewService builds a service over the process-wide recorder.
func NewService(rec timeline.Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:      log,
		rec:      rec,
		sessions: make(map[string]Session),
		done:     make(chan struct{}),
	}
}

// Close stops the service's stream pumps. Websocket connections are hijacked
// from the HTTP server, so shutting that server down does not reach them.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// AddSession registers a session registry with the query surface.
func (s *Service) AddSession(sess Session) {
	s.mu.Lock()
	s.sessions[sess.Session()] = sess
	s.mu.Unlock()
	s.log.Info("session registered", zap.String("session", sess.Session()))
}

// RemoveSession detaches a session, typically during teardown.
func (s *Service) RemoveSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.Info("session removed", zap.String("session", id))
}

// SessionIDs returns registered session ids, sorted.
func (s *Service) SessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// session resolves a session id; the empty id means "the only session" when
// exactly one is registered, which keeps single-session clients simple.
func (s *Service) session(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == "" && len(s.sessions) == 1 {
		for _, sess := range s.sessions {
			return sess, true
		}
	}
	sess, ok := s.sessions[id]
	return sess, ok
}
