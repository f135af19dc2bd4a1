package server

import (
	"log/slog"
	"net/http"
)

// listResponse is the shared pagination envelope. LastDocID feeds the next
// page's start_after; it is empty when the page is empty.
type listResponse struct {
	Items     any    `json:"items"`
	LastDocID string `json:"last_doc_id"`
}

func (s *Server) handleListSummaries(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")
	limit, startAfter := pageParams(r)

	items, last, err := s.artifacts.SummariesForModule(r.Context(), moduleID, limit, startAfter)
	if err != nil {
		slog.Error("failed to list summaries", "module_id", moduleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list summaries", "")
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items, LastDocID: last})
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")
	limit, startAfter := pageParams(r)

	items, last, err := s.artifacts.QuizzesForModule(r.Context(), moduleID, limit, startAfter)
	if err != nil {
		slog.Error("failed to list quizzes", "module_id", moduleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list quizzes", "")
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items, LastDocID: last})
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	moduleID := r.PathValue("module_id")
	limit, startAfter := pageParams(r)

	items, last, err := s.artifacts.DecksForModule(r.Context(), moduleID, limit, startAfter)
	if err != nil {
		slog.Error("failed to list flashcard decks", "module_id", moduleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list flashcard decks", "")
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Items: items, LastDocID: last})
}
