package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jpalmerr/sitepatch/internal/patcher"
)

type projectsResponse struct {
	OK       bool             `json:"ok"`
	Count    int              `json:"count"`
	Projects []patcher.Record `json:"projects"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// handleProjects returns the records currently stored in the document.
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	text, err := s.doc.Read()
	if err != nil {
		logger.Warn("failed to read document", "path", s.doc.Path(), "error", err)
		s.writeError(w, err)
		return
	}

	records, err := patcher.Extract(text, s.cfg.PatchOptions...)
	if err != nil {
		logger.Warn("failed to extract records", "path", s.doc.Path(), "error", err)
		s.writeError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, projectsResponse{OK: true, Count: len(records), Projects: records}, logger)
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true}, s.logger)
}

// writeJSON writes v as a compact JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write response", "error", err)
	}
}
