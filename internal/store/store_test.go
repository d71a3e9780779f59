package store

import (
	"path/filepath"
	"testing"

	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/track"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := testStore(t)

	if err := s.Sessions().Begin("sess-1", []string{"sensor", "intent", "fabric"}, 7); err != nil {
		t.Fatalf("failed to begin session: %v", err)
	}

	sess, err := s.Sessions().Get("sess-1")
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if len(sess.Plugins) != 3 || sess.Plugins[0] != "sensor" {
		t.Errorf("unexpected plugin list: %v", sess.Plugins)
	}
	if sess.StartTick != 7 {
		t.Errorf("start tick = %d, want 7", sess.StartTick)
	}
	if sess.EndedAt != nil {
		t.Error("expected a running session to have no end time")
	}

	if err := s.Sessions().End("sess-1"); err != nil {
		t.Fatalf("failed to end session: %v", err)
	}
	sess, err = s.Sessions().Get("sess-1")
	if err != nil {
		t.Fatalf("failed to re-get session: %v", err)
	}
	if sess.EndedAt == nil {
		t.Error("expected ended session to have an end time")
	}
}

func TestSessionNotFound(t *testing.T) {
	s := testStore(t)

	if _, err := s.Sessions().Get("no-such-session"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := s.Sessions().End("no-such-session"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound on End, got %v", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.Sessions().Begin("sess-1", nil, 0); err != nil {
		t.Fatalf("failed to begin session: %v", err)
	}

	batches := []track.FrameBatch{
		{Tick: 1, Hands: []track.HandFrame{
			{HandID: "h1", Label: track.LabelPinch, Confidence: 0.9, X: 0.5, Y: 0.5},
			{HandID: "h2", Label: track.LabelOpenPalm, Confidence: 0.8, X: 0.2, Y: 0.3},
		}},
		{Tick: 2, Hands: []track.HandFrame{
			{HandID: "h1", Label: track.LabelPinch, Confidence: 0.92, X: 0.51, Y: 0.5},
		}},
	}
	for _, b := range batches {
		if err := s.Traces().AddFrames("sess-1", b); err != nil {
			t.Fatalf("failed to add frames: %v", err)
		}
	}

	got, err := s.Traces().Frames("sess-1")
	if err != nil {
		t.Fatalf("failed to read frames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(got))
	}
	if len(got[0].Hands) != 2 || got[0].Hands[0].HandID != "h1" {
		t.Errorf("unexpected first batch: %+v", got[0])
	}
	if got[1].Tick != 2 || got[1].Hands[0].Confidence != 0.92 {
		t.Errorf("unexpected second batch: %+v", got[1])
	}
}

func TestDispatchRecording(t *testing.T) {
	s := testStore(t)

	if err := s.Sessions().Begin("sess-1", nil, 0); err != nil {
		t.Fatalf("failed to begin session: %v", err)
	}

	rec := pointer.DispatchRecord{
		HandID: "h1",
		Events: []pointer.SyntheticEvent{
			{Type: pointer.EvPointerDown, PointerID: 2, X: 100, Y: 200, TargetID: "btn", Tick: 7},
			{Type: pointer.EvClick, PointerID: 2, X: 100, Y: 200, TargetID: "btn", Tick: 7},
		},
	}
	if err := s.Traces().AddDispatch("sess-1", rec); err != nil {
		t.Fatalf("failed to add dispatch: %v", err)
	}

	clicks, err := s.Traces().DispatchCount("sess-1", pointer.EvClick)
	if err != nil {
		t.Fatalf("failed to count dispatches: %v", err)
	}
	if clicks != 1 {
		t.Errorf("expected 1 click, got %d", clicks)
	}
}

func TestIntentKindConstraint(t *testing.T) {
	s := testStore(t)

	if err := s.Sessions().Begin("sess-1", nil, 0); err != nil {
		t.Fatalf("failed to begin session: %v", err)
	}

	if err := s.Traces().AddIntent("sess-1", track.Intent{HandID: "h1", Kind: track.IntentPinchStart, Tick: 1}); err != nil {
		t.Fatalf("failed to add valid intent: %v", err)
	}
	if err := s.Traces().AddIntent("sess-1", track.Intent{HandID: "h1", Kind: "bogus", Tick: 2}); err == nil {
		t.Error("expected CHECK constraint to reject an unknown intent kind")
	}
}
