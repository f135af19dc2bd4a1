package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/pipeline"
)

// handleTrigger starts a generation run. The response is 202: the caller
// polls or watches the run for the outcome.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")

	runID, err := s.orchestrator.Trigger(r.Context(), moduleID)
	switch {
	case errors.Is(err, content.ErrModuleNotFound):
		respondError(w, http.StatusNotFound, "module not found", "")
		return
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		respondError(w, http.StatusConflict, "generation already running for this module", "")
		return
	case err != nil:
		slog.Error("failed to trigger generation", "module_id", moduleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to start generation", "")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "generation started",
		"run_id":  runID,
	})
}

// runStatusResponse is the poll view of a run.
type runStatusResponse struct {
	RunID      string             `json:"run_id"`
	ModuleID   string             `json:"module_id"`
	State      pipeline.RunState  `json:"state"`
	Stage      string             `json:"stage"`
	Reason     string             `json:"reason,omitempty"`
	Counts     pipeline.RunCounts `json:"counts"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
}

func runStatus(run *pipeline.Run) runStatusResponse {
	resp := runStatusResponse{
		RunID:     run.ID,
		ModuleID:  run.ModuleID,
		State:     run.State,
		Stage:     run.Stage,
		Reason:    run.Reason,
		Counts:    run.Counts,
		StartedAt: run.StartedAt,
	}
	if !run.FinishedAt.IsZero() {
		t := run.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")

	run, err := s.runs.Latest(r.Context(), moduleID)
	if err != nil {
		slog.Error("failed to load run", "module_id", moduleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load run status", "")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "no runs for this module", "")
		return
	}
	respondJSON(w, http.StatusOK, runStatus(run))
}

// handleRunWatch streams run transitions over a websocket until the client
// disconnects. The current state is sent first so late watchers see where
// the run stands.
func (s *Server) handleRunWatch(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "module_id", moduleID, "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	updates, cancel := s.orchestrator.Notifier().Subscribe(moduleID)
	defer cancel()

	if run, err := s.runs.Latest(ctx, moduleID); err == nil && run != nil {
		snapshot := pipeline.RunUpdate{
			RunID:    run.ID,
			ModuleID: run.ModuleID,
			State:    run.State,
			Stage:    run.Stage,
			Reason:   run.Reason,
		}
		if err := wsjson.Write(ctx, conn, snapshot); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case update, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := wsjson.Write(ctx, conn, update); err != nil {
				return
			}
		}
	}
}
