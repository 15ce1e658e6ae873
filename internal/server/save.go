package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpalmerr/sitepatch/internal/patcher"
	"github.com/jpalmerr/sitepatch/internal/store"
)

// ErrMalformedRequestBody is returned when a save request body is not valid
// JSON or lacks the projects array.
var ErrMalformedRequestBody = errors.New("malformed request body")

// saveRequest is the body of POST /save-projects.
type saveRequest struct {
	Projects json.RawMessage `json:"projects"`
	Settings *saveSettings   `json:"settings,omitempty"`
}

type saveSettings struct {
	Background string `json:"bg,omitempty"`
	Title      string `json:"title,omitempty"`
}

type saveResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// handleSave rewrites the document's literal with the posted records.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	logger := s.requestLogger(r)

	records, aux, err := decodeSaveRequest(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		logger.Warn("rejected save request", "error", err)
		s.writeError(w, err)
		return
	}

	event, err := s.save(requestID(r), records, aux)
	if err != nil {
		logger.Error("save failed", "path", s.doc.Path(), "error", err)
		s.writeError(w, err)
		return
	}

	logger.Info("document saved",
		"path", event.Document,
		"count", event.Count,
		"bytes", event.Bytes,
		"background_updated", event.BackgroundUpdated,
		"title_updated", event.TitleUpdated,
	)

	s.hub.Publish(event)
	if s.cfg.OnSave != nil {
		s.cfg.OnSave(event)
	}

	writeJSON(w, http.StatusOK, saveResponse{OK: true, Count: event.Count}, logger)
}

// save runs one read-modify-write cycle on the document. The document is
// only written when patching succeeds.
func (s *Server) save(id string, records []patcher.Record, aux patcher.Auxiliary) (store.SaveEvent, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	text, err := s.doc.Read()
	if err != nil {
		return store.SaveEvent{}, err
	}

	res, err := patcher.Patch(text, records, aux, s.cfg.PatchOptions...)
	if err != nil {
		return store.SaveEvent{}, err
	}

	if err := s.doc.Write(res.Text); err != nil {
		return store.SaveEvent{}, err
	}

	return store.SaveEvent{
		ID:                id,
		Document:          s.doc.Path(),
		Count:             res.Count,
		Bytes:             len(res.Text),
		BackgroundUpdated: res.BackgroundReplaced,
		TitleUpdated:      res.TitleReplaced,
		SavedAt:           time.Now(),
	}, nil
}

// decodeSaveRequest reads a save body. The body must be a single JSON object
// whose "projects" member is an array of objects.
func decodeSaveRequest(body io.Reader) ([]patcher.Record, patcher.Auxiliary, error) {
	dec := json.NewDecoder(body)

	var req saveRequest
	if err := dec.Decode(&req); err != nil {
		return nil, patcher.Auxiliary{}, fmt.Errorf("%w: %w", ErrMalformedRequestBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after body")
		}
		return nil, patcher.Auxiliary{}, fmt.Errorf("%w: %w", ErrMalformedRequestBody, err)
	}

	raw := bytes.TrimSpace(req.Projects)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, patcher.Auxiliary{}, fmt.Errorf("%w: projects must be an array", ErrMalformedRequestBody)
	}

	records, err := patcher.DecodeRecords(raw)
	if err != nil {
		return nil, patcher.Auxiliary{}, fmt.Errorf("%w: projects: %w", ErrMalformedRequestBody, err)
	}

	var aux patcher.Auxiliary
	if req.Settings != nil {
		aux.Background = req.Settings.Background
		aux.Title = req.Settings.Title
	}
	return records, aux, nil
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMalformedRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrDocumentMissing):
		return http.StatusNotFound
	case errors.Is(err, patcher.ErrMarkerNotFound),
		errors.Is(err, patcher.ErrOpenBracketNotFound),
		errors.Is(err, patcher.ErrUnbalancedLiteral),
		errors.Is(err, patcher.ErrLiteralNotJSON):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{OK: false, Error: err.Error()}, s.logger)
}
