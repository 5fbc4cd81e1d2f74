// Package server exposes a Simulator over HTTP. Clients POST {"code": ...}
// to /api/ and receive the measurement histogram as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"qcomposer/internal/sim"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Options tunes the HTTP front end.
type Options struct {
	CORSOrigins   []string // empty disables CORS handling
	MaxConcurrent int      // simultaneous simulations, at least 1
	MaxShots      int      // zero means no limit
}

// Server serves simulation requests.
type Server struct {
	sim  sim.Simulator
	opts Options
	log  *slog.Logger
	sem  *semaphore.Weighted
}

func New(s sim.Simulator, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		sim:  s,
		opts: opts,
		log:  log,
		sem:  semaphore.NewWeighted(int64(max(opts.MaxConcurrent, 1))),
	}
}

// Handler returns the HTTP handler, wrapped for CORS when origins are set.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/", s.handleRun)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return newCorsHandler(mux, s.opts.CORSOrigins)
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	// disable CORS support if user has not specified a custom CORS configuration
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req sim.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing code"))
		return
	}
	if req.Shots < 0 || (s.opts.MaxShots > 0 && req.Shots > s.opts.MaxShots) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("shots must be between 0 and %d", s.opts.MaxShots))
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer s.sem.Release(1)

	res, err := s.sim.Run(r.Context(), req.Code, req.Shots)
	if err != nil {
		s.log.Debug("Simulation rejected", "remote", r.RemoteAddr, "err", err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err)
		return
	}
	s.log.Info("Simulation served", "id", res.ID, "remote", r.RemoteAddr, "shots", res.Shots, "outcomes", len(res.Counts), "elapsed", res.Elapsed)
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, sim.ErrorResponse{Error: err.Error()})
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server started", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.log.Info("HTTP server stopped", "addr", ln.Addr().String())
		return err
	})
	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
