package main

import (
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staffmap/internal/aggregate"
	"staffmap/internal/blob"
	"staffmap/internal/config"
	"staffmap/internal/core"
	"staffmap/internal/projection"
	"staffmap/internal/registry"
	"staffmap/pkg/domain"
)

type server struct {
	cfg    config.Config
	svc    *core.Service
	reg    *registry.Registry
	gate   *projection.Gate
	blobs  blob.Store
	logger core.Logger
}

func newServer(cfg config.Config, svc *core.Service, reg *registry.Registry, gate *projection.Gate, blobs blob.Store, logger core.Logger) *server {
	return &server{cfg: cfg, svc: svc, reg: reg, gate: gate, blobs: blobs, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /debug/vars", expvar.Handler())

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/rename", s.handleRenameSession)
	mux.HandleFunc("POST /api/sessions/{id}/import", s.handleImportSession)
	mux.HandleFunc("POST /api/sessions/{id}/activate", s.handleActivateSession)
	mux.HandleFunc("GET /api/active-session", s.handleActiveSession)
	mux.HandleFunc("POST /api/public", s.handleSetPublic)

	mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleSessionStream)
	mux.HandleFunc("GET /api/public/stream", s.handlePublicStream)

	mux.HandleFunc("POST /api/sessions/{id}/markers/{marker}/position", s.handleMarkerPosition)
	mux.HandleFunc("POST /api/sessions/{id}/images/{kind}", s.handleImageUpload)
	mux.HandleFunc("GET /api/images/{key...}", s.handleImageGet)
	return mux
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ruleErr domain.RuleViolationError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case errors.As(err, &ruleErr):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reg.ListSessions(s.cfg.OwnerID))
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	created, err := s.reg.CreateSession(r.Context(), req.Name, s.cfg.OwnerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	renamed, err := s.reg.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, renamed)
}

func (s *server) handleImportSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	if err := s.reg.ImportFrom(r.Context(), r.PathValue("id"), req.Source); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	if err := s.reg.SetActive(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleActiveSession(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"session": s.reg.ActiveSession(s.cfg.OwnerID)})
}

func (s *server) handleSetPublic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	if err := s.reg.SetPublic(r.Context(), req.Session); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionStream pushes the session's full materialized state over SSE,
// one venue_data event per committed change.
func (s *server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("id")
	if _, ok := s.svc.Store().GetSession(session); !ok {
		s.writeError(w, domain.ErrSessionNotFound{ID: session})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for data := range aggregate.Watch(r.Context(), s.svc.Store(), session) {
		if err := writeSSE(w, "venue_data", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

// handlePublicStream pushes the gated public projection over SSE. Viewers get
// state events for publication changes and venue_data events while a session
// is published.
func (s *server) handlePublicStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for update := range s.gate.Run(r.Context()) {
		event := "state"
		var payload any = map[string]string{"state": string(update.State), "session": update.Session}
		if update.State == projection.StateActive {
			event = "venue_data"
			payload = update.Data
		}
		if err := writeSSE(w, event, payload); err != nil {
			return
		}
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, raw)
	return err
}

// handleMarkerPosition commits a drag gesture's final position. Derived
// marker ids are promoted to persisted markers here.
func (s *server) handleMarkerPosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X        float64  `json:"x"`
		Y        float64  `json:"y"`
		StaffIDs []string `json:"staff_ids"`
		Day      int      `json:"day"`
		Time     string   `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, domain.ValidationError{Field: "body", Reason: "malformed json"})
		return
	}
	marker, _, err := s.svc.UpdateMarkerPosition(r.Context(), r.PathValue("id"), r.PathValue("marker"),
		req.X, req.Y, req.StaffIDs, domain.Slot{Day: req.Day, Time: req.Time})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, marker)
}

// handleImageUpload stores an avatar or map background under a fresh key,
// enforcing the per-kind size ceiling.
func (s *server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	kind := blob.ImageKind(r.PathValue("kind"))
	session := r.PathValue("id")
	if _, ok := s.svc.Store().GetSession(session); !ok {
		s.writeError(w, domain.ErrSessionNotFound{ID: session})
		return
	}
	if r.ContentLength > 0 {
		if err := blob.CheckImageSize(kind, r.ContentLength); err != nil {
			s.writeError(w, domain.ValidationError{Field: "image", Reason: err.Error()})
			return
		}
	}
	key := fmt.Sprintf("%s/%s/%s", session, kind, uuid.NewString())
	info, err := blob.PutImage(r.Context(), s.blobs, kind, key, r.Body, blob.PutOptions{
		ContentType: r.Header.Get("Content-Type"),
	})
	if err != nil {
		var tooLarge blob.ErrTooLarge
		if errors.As(err, &tooLarge) {
			s.writeError(w, domain.ValidationError{Field: "image", Reason: tooLarge.Error()})
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, info)
}

func (s *server) handleImageGet(w http.ResponseWriter, r *http.Request) {
	info, body, err := s.blobs.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "image not found"})
		return
	}
	defer func() { _ = body.Close() }()
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Debug("image stream aborted", "key", info.Key, "error", err)
	}
}
