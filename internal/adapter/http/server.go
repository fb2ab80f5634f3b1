// Package http serves the aggregate summaries of a finished run together with
// health, readiness, and Prometheus endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/climate-summary/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SummaryProvider returns the summaries to serve.
type SummaryProvider interface {
	Summaries() []report.Summary
}

// Server exposes the summary API plus operational endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	ready      sharedobs.ReadinessChecker
	summaries  SummaryProvider
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /summary, and /summary/{state} routes. Summary routes answer 503 until
// ready reports that the summaries are final.
func NewServer(addr string, ready sharedobs.ReadinessChecker, summaries SummaryProvider, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:    logger,
		ready:     ready,
		summaries: summaries,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /summary", s.handleSummaries)
	mux.HandleFunc("GET /summary/{state}", s.handleState)

	return s
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

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if !s.checkReady(w, r) {
		return
	}
	out := s.summaries.Summaries()
	if out == nil {
		out = []report.Summary{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.checkReady(w, r) {
		return
	}
	code := r.PathValue("state")
	for _, sum := range s.summaries.Summaries() {
		if sum.State == code {
			sharedobs.WriteJSON(w, http.StatusOK, sum)
			return
		}
	}
	sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown state " + code})
}

// checkReady writes a 503 and returns false while summaries are not final.
func (s *Server) checkReady(w http.ResponseWriter, r *http.Request) bool {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready.CheckReadiness(ctx); err != nil {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return false
	}
	return true
}
