package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/jpalmerr/sitepatch/internal/static"
)

// handleStatic streams a file from the site root. Only GET and HEAD are
// served; any other method gets a plain not-found.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	logger := s.requestLogger(r)

	res, err := s.resolver.Resolve(r.URL.Path)
	if err != nil {
		switch {
		case errors.Is(err, static.ErrPathForbidden):
			logger.Warn("forbidden static path", "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
		case errors.Is(err, static.ErrPathNotFound):
			logger.Debug("static path not found", "path", r.URL.Path)
			http.Error(w, "Not Found", http.StatusNotFound)
		default:
			logger.Error("failed to resolve static path", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	f, err := os.Open(res.Path)
	if err != nil {
		logger.Error("failed to open static file", "path", res.Path, "error", err)
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	defer f.Close()

	// the document may have been replaced since Resolve; size the open file
	size := res.Size
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		logger.Debug("static copy interrupted", "path", res.Path, "error", err)
	}
}
