package inspector

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamPoll   = 250 * time.Millisecond
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		// The inspector channel is local tooling only.
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "http://127.0.0.1")
	},
}

// streamMessage is one websocket frame: the recorder state plus any events
// recorded since the previous frame.
type streamMessage struct {
	Type   string     `json:"type"`
	State  StateDTO   `json:"state"`
	Events []EventDTO `json:"events,omitempty"`
}

// handleStream pushes newly recorded events to an inspector client. The
// client drives nothing; it only reads. A slow or vanished client is dropped
// silently, which is the expected teardown path, not an error.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("stream upgrade failed", zap.Error(err))
		return
	}
	s.log.Info("stream client connected", zap.String("remote", conn.RemoteAddr().String()))
	go s.writePump(conn)
}

func (s *Service) writePump(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
		s.log.Info("stream client disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()

	// Drain the read side so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var lastSeq int64
	if evs := s.rec.Events(); len(evs) > 0 {
		lastSeq = evs[len(evs)-1].Seq
	}

	ticker := time.NewTicker(streamPoll)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		events := s.rec.EventsSince(lastSeq)
		if len(events) > 0 {
			lastSeq = events[len(events)-1].Seq
		} else if all := s.rec.Events(); len(all) > 0 && all[len(all)-1].Seq < lastSeq {
			// Recording was restarted and the sequence counter reset.
			lastSeq = 0
			continue
		}
		msg := streamMessage{
			Type:   "events",
			State:  stateDTO(s.rec.State()),
			Events: eventDTOs(events),
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
