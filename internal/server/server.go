// Package server provides the local HTTP/WebSocket surface of the
// daemon: the vision ingress, the page bridge, and a small status API.
//
// The event bus is single-goroutine. Every connection reader posts its
// work onto the server's run loop, which is the tick domain: bus
// publishes, host model updates and plugin handlers all execute there,
// one message at a time.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/sparsh/internal/host"
	"github.com/ayusman/sparsh/internal/server/api"
	"github.com/ayusman/sparsh/internal/store"
	"github.com/ayusman/sparsh/internal/track"
)

// Config holds the server configuration.
type Config struct {
	// Host is the page model the bridge keeps current.
	Host *host.Model

	// OnFrames receives each decoded frame batch, on the run loop.
	OnFrames func(track.FrameBatch)

	// Store serves the sessions API when set.
	Store *store.Store
}

// Server is the daemon's HTTP surface.
type Server struct {
	config Config
	mux    *http.ServeMux
	bridge *Bridge
	run    chan func()
	done   chan struct{}
	start  time.Time
}

// New creates a Server and starts its run loop.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		run:    make(chan func(), 64),
		done:   make(chan struct{}),
		start:  time.Now(),
	}
	s.bridge = newBridge(s)
	s.setupRoutes()
	go s.loop()
	return s
}

// Bridge returns the page bridge. It is the production dispatch sink
// and the boot status surface; the bootstrap mounts it before starting
// any plugin.
func (s *Server) Bridge() *Bridge { return s.bridge }

// Dispatch posts fn onto the run loop. It is how connection readers
// enter the tick domain.
func (s *Server) Dispatch(fn func()) {
	select {
	case s.run <- fn:
	case <-s.done:
	}
}

// Close stops the run loop. Connections drain on their own.
func (s *Server) Close() {
	close(s.done)
}

func (s *Server) loop() {
	for {
		select {
		case fn := <-s.run:
			fn()
		case <-s.done:
			return
		}
	}
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/ws/frames", newFramesHandler(s))
	s.mux.Handle("/ws/bridge", s.bridge)

	if s.config.Store != nil {
		sessions := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.start).String(),
		"bridges": s.bridge.ClientCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
