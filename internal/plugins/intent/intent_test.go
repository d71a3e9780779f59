package intent

import (
	"testing"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/gesture"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

func startIntent(t *testing.T, cfg gesture.Config) (*Intent, *bus.Bus) {
	t.Helper()
	b := bus.New()
	p := New(cfg)
	if err := p.Init(&kernel.Context{Bus: b}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return p, b
}

func pinchBatch(tick uint64, conf float64) track.FrameBatch {
	return track.FrameBatch{Tick: tick, Hands: []track.HandFrame{
		{HandID: "h1", Label: track.LabelPinch, Confidence: conf, X: 0.5, Y: 0.5},
	}}
}

func TestPinchCommitPublishesIntent(t *testing.T) {
	cfg := gesture.Config{ConfHigh: 0.64, ConfLow: 0.50, CommitFrames: 2, ReleaseFrames: 2}
	_, b := startIntent(t, cfg)

	var intents []track.Intent
	b.Subscribe(bus.GestureIntent, func(payload any) {
		intents = append(intents, payload.(track.Intent))
	})

	b.Publish(bus.FrameProcessed, pinchBatch(1, 0.9))
	b.Publish(bus.FrameProcessed, pinchBatch(2, 0.9))

	if len(intents) == 0 {
		t.Fatal("expected a committed intent")
	}
	if intents[0].Kind != track.IntentPinchStart || intents[0].HandID != "h1" {
		t.Errorf("unexpected first intent: %+v", intents[0])
	}
}

func TestStopDetachesFromFrameStream(t *testing.T) {
	cfg := gesture.Config{ConfHigh: 0.64, ConfLow: 0.50, CommitFrames: 1, ReleaseFrames: 1}
	p, b := startIntent(t, cfg)

	published := 0
	b.Subscribe(bus.GestureIntent, func(any) { published++ })

	if err := p.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	b.Publish(bus.FrameProcessed, pinchBatch(1, 0.9))
	if published != 0 {
		t.Errorf("stopped plugin must not publish, got %d", published)
	}
}

func TestNonBatchPayloadIgnored(t *testing.T) {
	_, b := startIntent(t, gesture.DefaultConfig())
	// Must not panic.
	b.Publish(bus.FrameProcessed, "not a batch")
}
