package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/host"
	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/store"
	"github.com/ayusman/sparsh/internal/track"
)

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(Config{})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
}

func TestFramesIngressReachesCallback(t *testing.T) {
	var got []track.FrameBatch
	srv := New(Config{
		OnFrames: func(b track.FrameBatch) { got = append(got, b) },
	})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/frames"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	batch := track.FrameBatch{Tick: 7, Hands: []track.HandFrame{
		{HandID: "h1", Label: track.LabelPinch, Confidence: 0.9, X: 0.5, Y: 0.5},
	}}
	if err := conn.WriteJSON(batch); err != nil {
		t.Fatalf("write error = %v", err)
	}

	// Callback runs on the server's run loop; read the result there too.
	var count int
	waitFor(t, func() bool {
		done := make(chan struct{})
		srv.Dispatch(func() { count = len(got); close(done) })
		<-done
		return count == 1
	}, "ingested batch")

	done := make(chan struct{})
	var first track.FrameBatch
	srv.Dispatch(func() { first = got[0]; close(done) })
	<-done
	if first.Tick != 7 || first.Hands[0].HandID != "h1" {
		t.Errorf("unexpected batch: %+v", first)
	}
}

func TestBridgeUpdatesHostModel(t *testing.T) {
	b := bus.New()
	model := host.NewModel(b)
	srv := New(Config{Host: model})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/bridge"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{
		"type": "viewport", "width": 1920, "height": 1080,
	}); err != nil {
		t.Fatalf("write error = %v", err)
	}
	waitFor(t, func() bool {
		vp := model.Viewport()
		return vp.Width == 1920 && vp.Height == 1080
	}, "viewport update")

	if err := conn.WriteJSON(map[string]any{
		"type": "elements",
		"elements": []map[string]any{
			{"id": "btn", "x": 10.0, "y": 20.0, "w": 100.0, "h": 50.0, "interactive": true},
		},
	}); err != nil {
		t.Fatalf("write error = %v", err)
	}
	waitFor(t, func() bool {
		e, ok := model.ElementFromPoint(50, 40)
		return ok && e.ID == "btn"
	}, "element map update")
}

func TestBridgeReceivesDispatches(t *testing.T) {
	srv := New(Config{})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/bridge"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return srv.Bridge().ClientCount() == 1 }, "bridge client")

	rec := pointer.DispatchRecord{
		HandID: "h1",
		Events: []pointer.SyntheticEvent{
			{Type: pointer.EvClick, PointerID: 2, X: 100, Y: 200, TargetID: "btn"},
		},
	}
	if err := srv.Bridge().Dispatch(rec); err != nil {
		t.Fatalf("dispatch error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg struct {
		Type   string                 `json:"type"`
		Record pointer.DispatchRecord `json:"record"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if msg.Type != "dispatch" {
		t.Errorf("type = %q, want dispatch", msg.Type)
	}
	if len(msg.Record.Events) != 1 || msg.Record.Events[0].Type != pointer.EvClick {
		t.Errorf("unexpected record: %+v", msg.Record)
	}
}

func TestBridgeStatusSurface(t *testing.T) {
	srv := New(Config{})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/bridge"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return srv.Bridge().ClientCount() == 1 }, "bridge client")

	srv.Bridge().SendStatus("error", "plugin fabric failed to start")

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg struct {
		Type    string `json:"type"`
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if msg.Type != "status" || msg.Level != "error" {
		t.Errorf("unexpected status: %+v", msg)
	}
}

func TestSessionsAPI(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store error = %v", err)
	}
	defer st.Close()
	if err := st.Sessions().Begin("sess-1", []string{"sensor"}, 0); err != nil {
		t.Fatal(err)
	}

	srv := New(Config{Store: st})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	defer resp.Body.Close()

	var sessions []struct {
		ID      string   `json:"id"`
		Plugins []string `json:"plugins"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "sess-1" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	resp2, err := ts.Client().Get(ts.URL + "/api/sessions/no-such")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp2.StatusCode, http.StatusNotFound)
	}
}
