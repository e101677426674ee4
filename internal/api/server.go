package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/esgdigest/internal/config"
	"github.com/dgallion1/esgdigest/internal/pipeline"
	"github.com/dgallion1/esgdigest/internal/store"
	"github.com/dgallion1/esgdigest/internal/summarize"
)

// Server is the HTTP API server for esgdigest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	claude       *summarize.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, st *store.Store, claude *summarize.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        st,
		claude:       claude,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/reports", s.handleUploadReport)
		r.Get("/api/reports", s.handleListReports)
		r.Get("/api/reports/{reportID}", s.handleGetReport)
		r.Delete("/api/reports/{reportID}", s.handleDeleteReport)
		r.Get("/api/reports/{reportID}/chapters", s.handleReportChapters)
		r.Get("/api/reports/{reportID}/indicators", s.handleReportIndicators)
		r.Get("/api/reports/{reportID}/goals", s.handleReportGoals)

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
