package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func (s *Server) handleGetMotivation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	msg, err := s.motivation.Resolve(r.Context(), userID)
	if err != nil {
		slog.Error("failed to resolve motivation", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load motivation message", "")
		return
	}
	if msg == nil {
		respondError(w, http.StatusNotFound, "no motivation message set", "")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleSetMotivation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	if err := s.motivation.SetOverride(r.Context(), userID, body.Text); err != nil {
		respondError(w, http.StatusBadRequest, "message text is required", "")
		return
	}

	msg, err := s.motivation.Resolve(r.Context(), userID)
	if err != nil {
		slog.Error("failed to resolve motivation after set", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load motivation message", "")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleClearMotivation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	if err := s.motivation.ClearOverride(r.Context(), userID); err != nil {
		slog.Error("failed to clear motivation override", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear motivation message", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGenerateMotivation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	msg, err := s.motivation.GenerateFor(r.Context(), userID)
	if err != nil {
		slog.Error("failed to generate motivation", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate motivation message", "")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}
