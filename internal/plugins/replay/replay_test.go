package replay

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/store"
	"github.com/ayusman/sparsh/internal/track"
)

func recordedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Sessions().Begin("sess-1", nil, 0); err != nil {
		t.Fatal(err)
	}
	for tick := uint64(1); tick <= 3; tick++ {
		err := st.Traces().AddFrames("sess-1", track.FrameBatch{
			Tick: tick,
			Hands: []track.HandFrame{
				{HandID: "h1", Label: track.LabelPinch, Confidence: 0.9, X: 0.5, Y: 0.5},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestReplayPublishesRecordedBatches(t *testing.T) {
	st := recordedStore(t)
	b := bus.New()

	var ticks []uint64
	b.Subscribe(bus.FrameProcessed, func(payload any) {
		ticks = append(ticks, payload.(track.FrameBatch).Tick)
	})

	r := New(st, "sess-1")
	if err := r.Init(&kernel.Context{Bus: b}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if len(ticks) != 3 {
		t.Fatalf("expected 3 replayed batches, got %d", len(ticks))
	}
	for i, tick := range ticks {
		if tick != uint64(i+1) {
			t.Errorf("batch %d out of order: tick %d", i, tick)
		}
	}
}

func TestUnknownSessionFailsInit(t *testing.T) {
	st := recordedStore(t)
	r := New(st, "no-such-session")

	err := r.Init(&kernel.Context{Bus: bus.New()})
	if !errors.Is(err, store.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
