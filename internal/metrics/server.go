package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds the graceful shutdown of the metrics server
const shutdownTimeout = 10 * time.Second

// HealthCheck reports an error when a dependency is unhealthy
type HealthCheck func(ctx context.Context) error

// ServerConfig holds configuration for the metrics server
type ServerConfig struct {
	// Addr is the listen address
	Addr string

	// Checks are run by /healthz, keyed by dependency name
	Checks map[string]HealthCheck
}

// Server serves /metrics and /healthz. It implements suture.Service.
type Server struct {
	server *http.Server
}

// NewServer creates the metrics server
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Addr == "" {
		return nil, errors.New("listen address cannot be empty")
	}

	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg.Checks),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// NewRouter returns the chi router behind the metrics server
func NewRouter(checks map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})

	return r
}

// Serve implements suture.Service
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for supervisor logs
func (s *Server) String() string {
	return "metrics-server"
}
