package inspector

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs the inspector API on a TCP listener.
type Server struct {
	httpSrv *http.Server
	ln      net.Listener
	svc     *Service
	log     *zap.Logger
}

const shutdownGrace = 5 * time.Second

// Serve binds addr and starts serving the service's router in the
// background. The returned server must be closed by the caller.
func Serve(addr string, svc *Service, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		httpSrv: &http.Server{
			Handler:           svc.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ln:  ln,
		svc: svc,
		log: log,
	}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("inspector server stopped", zap.Error(err))
		}
	}()
	log.Info("inspector listening", zap.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops the stream pumps, drains in-flight requests and stops the
// server. The pumps must be stopped explicitly: their connections are
// hijacked and a plain Shutdown never touches them.
func (s *Server) Close() error {
	s.svc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
