// Package api provides the HTTP API handlers of the sparsh daemon.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/sparsh/internal/store"
)

// SessionsHandler serves the recorded trace sessions.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

type sessionResponse struct {
	ID        string   `json:"id"`
	Plugins   []string `json:"plugins"`
	StartTick uint64   `json:"start_tick"`
	StartedAt string   `json:"started_at"`
	EndedAt   string   `json:"ended_at,omitempty"`
	Clicks    int      `json:"clicks"`
}

// ServeHTTP implements the http.Handler interface.
// Routes: GET /api/sessions and GET /api/sessions/{id}.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

func (h *SessionsHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, h.toResponse(&sessions[i]))
	}
	writeJSON(w, out)
}

func (h *SessionsHandler) get(w http.ResponseWriter, _ *http.Request, id string) {
	sess, err := h.store.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.toResponse(sess))
}

func (h *SessionsHandler) toResponse(sess *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID,
		Plugins:   sess.Plugins,
		StartTick: sess.StartTick,
		StartedAt: sess.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if sess.EndedAt != nil {
		resp.EndedAt = sess.EndedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if clicks, err := h.store.Traces().DispatchCount(sess.ID, "click"); err == nil {
		resp.Clicks = clicks
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
