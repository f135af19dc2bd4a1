// Package server exposes the HTTP API: generation triggers, run status,
// artifact listings, student reports, and motivation messages.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cognify-app/cognify-backend/internal/analytics"
	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/motivation"
	"github.com/cognify-app/cognify-backend/internal/pipeline"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

// HealthChecker reports liveness of a backing service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the HTTP server.
type Config struct {
	Orchestrator *pipeline.Orchestrator
	Runs         pipeline.RunStore
	Artifacts    content.Store
	Reporter     *analytics.Reporter
	Motivation   *motivation.Service
	TOS          tos.Store

	// Readiness dependencies; nil entries are skipped.
	Dependencies map[string]HealthChecker
}

// Server is the HTTP API surface.
type Server struct {
	orchestrator *pipeline.Orchestrator
	runs         pipeline.RunStore
	artifacts    content.Store
	reporter     *analytics.Reporter
	motivation   *motivation.Service
	tos          tos.Store
	deps         map[string]HealthChecker
}

func New(cfg Config) *Server {
	return &Server{
		orchestrator: cfg.Orchestrator,
		runs:         cfg.Runs,
		artifacts:    cfg.Artifacts,
		reporter:     cfg.Reporter,
		motivation:   cfg.Motivation,
		tos:          cfg.TOS,
		deps:         cfg.Dependencies,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate/from_module/{module_id}", s.handleTrigger)
	mux.HandleFunc("GET /generate/runs/{module_id}", s.handleRunStatus)
	mux.HandleFunc("GET /generate/runs/{module_id}/watch", s.handleRunWatch)

	mux.HandleFunc("GET /generate/generated_summaries/for_module/{module_id}", s.handleListSummaries)
	mux.HandleFunc("GET /generate/generated_quizzes/for_module/{module_id}", s.handleListQuizzes)
	mux.HandleFunc("GET /generate/generated_flashcards/for_module/{module_id}", s.handleListDecks)

	mux.HandleFunc("POST /tos/import/{subject_id}", s.handleImportTOS)
	mux.HandleFunc("POST /tos/{tos_id}/activate", s.handleActivateTOS)
	mux.HandleFunc("GET /tos/for_subject/{subject_id}", s.handleListTOS)

	mux.HandleFunc("GET /analytics/student_report/{user_id}", s.handleStudentReport)

	mux.HandleFunc("GET /utilities/motivation/{user_id}", s.handleGetMotivation)
	mux.HandleFunc("PUT /utilities/motivation/{user_id}", s.handleSetMotivation)
	mux.HandleFunc("DELETE /utilities/motivation/{user_id}", s.handleClearMotivation)
	mux.HandleFunc("POST /utilities/motivation/generate/{user_id}", s.handleGenerateMotivation)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	for name, dep := range s.deps {
		if dep == nil {
			continue
		}
		if err := dep.HealthCheck(r.Context()); err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"failed": name,
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// pageParams reads limit and start_after query parameters. A missing or
// out-of-range limit falls back to the default.
func pageParams(r *http.Request) (limit int, startAfter string) {
	limit = content.DefaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return limit, r.URL.Query().Get("start_after")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError writes the API error shape. stage is included for pipeline
// failures and empty otherwise. Raw internal errors never leak here: callers
// pass a client-safe message.
func respondError(w http.ResponseWriter, status int, message, stage string) {
	body := map[string]string{"error": message}
	if stage != "" {
		body["stage"] = stage
	}
	respondJSON(w, status, body)
}
