package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ayusman/sparsh/internal/track"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local daemon, loopback connections only
	},
}

// framesHandler is the vision ingress: the hand landmarker connects
// here and streams one JSON frame batch per tick.
type framesHandler struct {
	server *Server
}

func newFramesHandler(s *Server) *framesHandler {
	return &framesHandler{server: s}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *framesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ingress: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("ingress: vision client connected from %s", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ingress: vision client gone: %v", err)
			return
		}

		var batch track.FrameBatch
		if err := json.Unmarshal(data, &batch); err != nil {
			log.Printf("ingress: bad frame batch: %v", err)
			continue
		}

		h.server.Dispatch(func() {
			if h.server.config.Host != nil {
				h.server.config.Host.SetTick(batch.Tick)
			}
			if h.server.config.OnFrames != nil {
				h.server.config.OnFrames(batch)
			}
		})
	}
}
