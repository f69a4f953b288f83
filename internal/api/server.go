package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/triage/internal/processor"
	"github.com/MikeSquared-Agency/triage/internal/store"
	"github.com/MikeSquared-Agency/triage/internal/thread"
)

type Analyzer interface {
	Process(ctx context.Context, threadID, source string) (*processor.Analysis, error)
}

type MessageLoader interface {
	Load(ctx context.Context, threadID string) ([]thread.Message, error)
}

type AnalyticsReader interface {
	LatestForThread(ctx context.Context, threadID string) (*store.AnalyticsRow, error)
	Summary(ctx context.Context, since time.Time) (*store.Summary, error)
}

type BusStatus interface {
	Connected() bool
}

// Deps wires the server's collaborators. Nil fields disable the routes
// that need them.
type Deps struct {
	Analyzer  Analyzer
	Loader    MessageLoader
	Analytics AnalyticsReader
	Bus       BusStatus
	Gatherer  prometheus.Gatherer
	Model     string
}

type Server struct {
	router *chi.Mux
	deps   Deps
	srv    *http.Server
}

func NewServer(port int, apiToken string, deps Deps) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s := &Server{
		router: router,
		deps:   deps,
		srv:    srv,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/triage/status", s.status)
	router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/api/v1/threads/{id}/analyze", s.analyzeThread)
		r.Get("/api/v1/threads/{id}/messages", s.threadMessages)
		r.Get("/api/v1/analytics/summary", s.analyticsSummary)
		r.Get("/api/v1/analytics/{id}", s.latestAnalytics)
	})

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("API server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	natsConnected := s.deps.Bus != nil && s.deps.Bus.Connected()
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":          "triage",
		"status":         "ok",
		"model":          s.deps.Model,
		"nats_connected": natsConnected,
		"store":          s.deps.Analytics != nil,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
