package server

import (
	"log/slog"
	"net/http"

	"github.com/cognify-app/cognify-backend/internal/tos"
)

const maxWorkbookBytes = 5 << 20

// handleImportTOS accepts an .xlsx workbook body and stores it as a new TOS
// version for the subject. The version starts inactive unless activate=true;
// activation demotes every other version for the subject.
func (s *Server) handleImportTOS(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("subject_id")

	t, err := tos.ParseWorkbook(http.MaxBytesReader(w, r.Body, maxWorkbookBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid workbook: "+err.Error(), "")
		return
	}
	t.SubjectID = subjectID
	t.SubjectName = r.URL.Query().Get("subject_name")
	t.Active = r.URL.Query().Get("activate") == "true"

	id, err := s.tos.Create(r.Context(), *t)
	if err != nil {
		slog.Error("failed to store imported tos", "subject_id", subjectID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store tos", "")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleActivateTOS(w http.ResponseWriter, r *http.Request) {
	tosID := r.PathValue("tos_id")

	if err := s.tos.Activate(r.Context(), tosID); err != nil {
		respondError(w, http.StatusNotFound, "tos not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTOS(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("subject_id")

	versions, err := s.tos.BySubject(r.Context(), subjectID)
	if err != nil {
		slog.Error("failed to list tos versions", "subject_id", subjectID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list tos versions", "")
		return
	}
	if versions == nil {
		versions = []tos.TOS{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": versions})
}
