// Package httpadapter exposes the planning API plus health, readiness, and
// metrics endpoints.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborwatch/sector-scoring/internal/domain"
	"github.com/harborwatch/sector-scoring/internal/pipeline"
)

// ReadinessChecker reports whether the service can take traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PlanRunner executes one planning run. Satisfied by *pipeline.Planner.
type PlanRunner interface {
	Run(ctx context.Context, req pipeline.PlanRequest) (*domain.Scenario, error)
}

// Server exposes the scoring HTTP API.
type Server struct {
	httpServer *http.Server
	planner    PlanRunner
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the plans route plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, planner PlanRunner, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second, // runs fan out to slow providers
			IdleTimeout:  60 * time.Second,
		},
		planner: planner,
		logger:  logger,
	}

	mux.HandleFunc("POST /v1/plans", s.handleCreatePlan)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready.CheckReadiness(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req pipeline.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	scenario, err := s.planner.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSector), errors.Is(err, domain.ErrInvalidWeights):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			s.logger.Error("planning run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "planning run failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, scenario)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
