package server

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleStudentReport(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	report, err := s.reporter.StudentReport(r.Context(), userID)
	if err != nil {
		slog.Error("failed to build student report", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report", "")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
