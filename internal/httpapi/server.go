// Package httpapi serves the portal evolution and collaboration REST API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/evolution"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/llm"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/logging"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/metrics"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/ratelimit"
	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/report"
)

// Engine is the portal evolution surface the API exposes.
// *evolution.Coordinator implements it.
type Engine interface {
	HasPortal(name string) bool
	PortalStatus(name string) (models.PortalStatus, error)
	AllStatuses() map[string]models.PortalStatus
	RecentActivities(name string, limit int) ([]models.Activity, error)
	RecordPortalActivity(ctx context.Context, name, description string) (models.Activity, error)
	CreateRecommendation(ctx context.Context, source, target string, typ models.RecommendationType, details string) (models.Recommendation, error)
	ImplementRecommendation(ctx context.Context, id string) (evolution.ImplementResult, error)
	RecommendationsFor(name string) []models.Recommendation
}

// Server serves the REST API and the metrics endpoint.
type Server struct {
	engine     Engine
	workspaces Workspaces
	ai         *llm.Router
	reports    *report.Generator
	metrics    *metrics.Collector
	limiter    *ratelimit.Limiter
	logger     *slog.Logger
	version    string

	addr            string
	shutdownTimeout time.Duration

	mu         sync.Mutex
	httpServer *http.Server
	boundAddr  string
}

// Option configures a Server.
type Option func(*Server)

// WithAI enables the AI routes. Without a router they answer 503.
func WithAI(r *llm.Router) Option {
	return func(s *Server) { s.ai = r }
}

// WithReports enables portal reports.
func WithReports(g *report.Generator) Option {
	return func(s *Server) { s.reports = g }
}

// WithMetrics exposes /metrics and records request metrics.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit enables per-client-IP rate limiting. perSecond <= 0 disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = ratelimit.NewLimiter(perSecond, burst)
	}
}

// WithLogger sets the access and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported by /api/status.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New creates a Server over engine.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:          engine,
		logger:          logging.Discard(),
		version:         "dev",
		addr:            ":5000",
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverMiddleware(s.logger))
	r.Use(requestIDMiddleware)
	r.Use(observeMiddleware(s.logger, s.metrics))
	r.Use(rateLimitMiddleware(s.limiter, s.logger))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	pe := r.PathPrefix("/api/portal-evolution").Subrouter()
	pe.HandleFunc("/status", s.handleAllPortals).Methods(http.MethodGet)
	pe.HandleFunc("/portal/{name}", s.handlePortal).Methods(http.MethodGet)
	pe.HandleFunc("/portal/{name}/activities", s.handleActivities).Methods(http.MethodGet)
	pe.HandleFunc("/portal/{name}/report", s.handleReport).Methods(http.MethodPost)
	pe.HandleFunc("/recommendations/{name}", s.handleRecommendationsFor).Methods(http.MethodGet)
	pe.HandleFunc("/recommendations", s.handleCreateRecommendation).Methods(http.MethodPost)
	pe.HandleFunc("/implement-recommendation", s.handleImplement).Methods(http.MethodPost)
	pe.HandleFunc("/record-activity", s.handleRecordActivity).Methods(http.MethodPost)

	co := r.PathPrefix("/api/collaboration").Subrouter()
	co.HandleFunc("/workspaces", s.handleListWorkspaces).Methods(http.MethodGet)
	co.HandleFunc("/workspace", s.handleCreateWorkspace).Methods(http.MethodPost)
	co.HandleFunc("/workspace/{id}", s.handleGetWorkspace).Methods(http.MethodGet)
	co.HandleFunc("/workspace/{id}", s.handleUpdateWorkspace).Methods(http.MethodPut)
	co.HandleFunc("/workspace/{id}/resource", s.handleAddResource).Methods(http.MethodPost)

	ai := r.PathPrefix("/api/ai").Subrouter()
	ai.HandleFunc("/generate-text", s.handleGenerateText).Methods(http.MethodPost)
	ai.HandleFunc("/generate-json", s.handleGenerateJSON).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

// Addr returns the bound address once the server is listening, else "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within the shutdown timeout. A clean shutdown returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	s.logger.Info("HTTP API listening", "addr", ln.Addr().String())

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		if serr := <-shutdownErr; serr != nil {
			return fmt.Errorf("shutting down HTTP API: %w", serr)
		}
		return nil
	}
	return err
}
