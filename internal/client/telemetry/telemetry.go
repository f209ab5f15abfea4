// Package telemetry serves the client's Prometheus metrics and health
// endpoints on a local address.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gatelog/internal/buildinfo"
	"github.com/dmitrijs2005/gatelog/internal/logging"
)

const (
	StatusOK   = "ok"
	StatusFail = "fail"

	shutdownTimeout = 5 * time.Second
)

// Checker reports the readiness of one dependency.
type Checker interface {
	CheckReady(ctx context.Context) (status, message string)
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) (status, message string)

func (f CheckFunc) CheckReady(ctx context.Context) (string, string) { return f(ctx) }

type checkResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

// NewRouter exposes /metrics, /healthz (liveness) and /readyz, which runs
// every check and answers 503 if any of them fails.
func NewRouter(checks map[string]Checker) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: StatusOK})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		resp := healthResponse{Status: StatusOK, Checks: map[string]checkResult{}}

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			status, msg := checks[name].CheckReady(req.Context())
			resp.Checks[name] = checkResult{Status: status, Message: msg}
			if status == StatusFail {
				resp.Status = StatusFail
			}
		}

		code := http.StatusOK
		if resp.Status == StatusFail {
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, resp)
	})
	return r
}

func writeHealth(w http.ResponseWriter, code int, resp healthResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.Version = buildinfo.Version
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Server runs the telemetry router until its context ends.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "telemetry"),
	}
}

// Run listens on the configured address and shuts down gracefully when ctx
// is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "telemetry listening", "addr", ln.Addr().String())
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info(ctx, "telemetry stopped")
	return <-errCh
}
