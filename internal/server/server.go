// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/graph"
	"github.com/Divas-Gupta30/agentic-assistant/internal/ingestion"
	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

// QueryRunner answers one query.
type QueryRunner interface {
	Run(ctx context.Context, query string) graph.State
}

// Ingester indexes a file or directory on the server's filesystem.
type Ingester interface {
	IngestPath(ctx context.Context, path string) (ingestion.Summary, error)
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type Server struct {
	router     *mux.Router
	runner     QueryRunner
	ingester   Ingester
	ingestRoot string
	checks     map[string]Check
	log        *zap.Logger
}

// New builds the router. ingester may be nil, in which case /ingest answers
// 503; otherwise /ingest only reads paths inside ingestRoot. checks are
// reported by /health under their map key.
func New(runner QueryRunner, ingester Ingester, ingestRoot string, checks map[string]Check, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router:     mux.NewRouter(),
		runner:     runner,
		ingester:   ingester,
		ingestRoot: ingestRoot,
		checks:     checks,
		log:        log,
	}
	s.router.Use(s.instrument)
	s.router.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	s.router.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Server exited")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		if endpoint == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := "success"
		if rec.status >= http.StatusBadRequest {
			status = "error"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
