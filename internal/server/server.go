// Package server exposes the triage pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/copperline/triage/internal/config"
	"github.com/copperline/triage/internal/decide"
	"github.com/copperline/triage/internal/model"
	"github.com/copperline/triage/internal/pipeline"
)

const requestTimeout = 60 * time.Second

// Server routes API requests into the pipeline.
type Server struct {
	pipe *pipeline.Pipeline
	http *http.Server
}

// New creates a Server listening on cfg.Addr.
func New(cfg config.ServerConfig, pipe *pipeline.Pipeline) *Server {
	s := &Server{pipe: pipe}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	r.Use(c.Handler)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/cases", s.handleCreateCase)
		r.Post("/cases/analyze", s.handleAnalyze)
		r.Post("/cases/{id}/decision", s.handleDecision)
		r.Get("/cases/{id}/severity", s.handleSeverity)
		r.Get("/cases/{id}/similar", s.handleSimilar)
		r.Post("/cluster", s.handleCluster)
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"embeddings": s.pipe.EmbeddingsAvailable(),
	})
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var c model.CaseContext
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid case payload")
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.EmergencyType == "" {
		c.EmergencyType = model.TypeOther
	}
	if c.ReportedAt.IsZero() {
		c.ReportedAt = time.Now().UTC()
	}

	if err := s.pipe.Ingest(r.Context(), c); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid analyze payload")
		return
	}
	writeJSON(w, http.StatusOK, s.pipe.Analyze(req.Text))
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.pipe.Run(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSeverity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sev, ok, err := s.pipe.Severity(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, sev)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok, err := s.pipe.Similar(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	res, err := s.pipe.Cluster(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, decide.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
