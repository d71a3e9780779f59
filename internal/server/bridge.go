package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ayusman/sparsh/internal/pal"
	"github.com/ayusman/sparsh/internal/pointer"
)

// Bridge is the page-side WebSocket. The content script connects here,
// reports the viewport and the interactive element map, and receives
// the synthesized cascades to replay into the DOM. It is also the boot
// status surface: supervisor errors go out on it so the page can show
// something better than a dead cursor.
type Bridge struct {
	server  *Server
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

func newBridge(s *Server) *Bridge {
	return &Bridge{
		server:  s,
		clients: make(map[*websocket.Conn]bool),
	}
}

// bridgeMessage is the inbound page-to-daemon envelope.
type bridgeMessage struct {
	Type     string          `json:"type"`
	Width    int             `json:"width,omitempty"`
	Height   int             `json:"height,omitempty"`
	Elements []bridgeElement `json:"elements,omitempty"`
}

// bridgeElement mirrors pal.Element on the wire.
type bridgeElement struct {
	ID          string  `json:"id"`
	FrameID     string  `json:"frameId,omitempty"`
	FrameX      float64 `json:"frameX,omitempty"`
	FrameY      float64 `json:"frameY,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	W           float64 `json:"w"`
	H           float64 `json:"h"`
	Interactive bool    `json:"interactive"`
}

// dispatchMessage is the outbound cascade envelope.
type dispatchMessage struct {
	Type   string                 `json:"type"`
	Record pointer.DispatchRecord `json:"record"`
}

// statusMessage is the outbound status envelope.
type statusMessage struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("bridge: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
	}()

	log.Printf("bridge: page client connected from %s", r.RemoteAddr)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("bridge: page client gone: %v", err)
			return
		}

		var msg bridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("bridge: bad message: %v", err)
			continue
		}
		b.handle(msg)
	}
}

// handle applies one inbound message on the run loop.
func (b *Bridge) handle(msg bridgeMessage) {
	model := b.server.config.Host
	if model == nil {
		return
	}
	switch msg.Type {
	case "viewport":
		b.server.Dispatch(func() {
			model.SetViewport(msg.Width, msg.Height)
		})
	case "elements":
		elements := make([]pal.Element, len(msg.Elements))
		for i, e := range msg.Elements {
			elements[i] = pal.Element{
				ID:          e.ID,
				FrameID:     e.FrameID,
				FrameX:      e.FrameX,
				FrameY:      e.FrameY,
				X:           e.X,
				Y:           e.Y,
				W:           e.W,
				H:           e.H,
				Interactive: e.Interactive,
			}
		}
		b.server.Dispatch(func() {
			model.SetElements(elements)
		})
	default:
		log.Printf("bridge: unknown message type %q", msg.Type)
	}
}

// Dispatch implements pointer.Sink: every synthesized cascade goes to
// all connected page clients. Called from the run loop.
func (b *Bridge) Dispatch(rec pointer.DispatchRecord) error {
	return b.send(dispatchMessage{Type: "dispatch", Record: rec})
}

// SendStatus pushes a status message to the page. The bootstrap uses it
// to surface boot errors.
func (b *Bridge) SendStatus(level, message string) {
	if err := b.send(statusMessage{Type: "status", Level: level, Message: message}); err != nil {
		log.Printf("bridge: status send: %v", err)
	}
}

// ClientCount reports how many page clients are connected.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bridge) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("bridge: write: %v", err)
		}
	}
	return nil
}
