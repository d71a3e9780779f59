package stillness

import (
	"testing"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

func startMonitor(t *testing.T, cfg Config) (*Stillness, *bus.Bus) {
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

func feed(b *bus.Bus, handID string, tick uint64, vx, vy float64) {
	b.Publish(bus.FilteredPosition, track.FilteredPosition{
		HandID: handID, Tick: tick, VX: vx, VY: vy,
	})
}

func TestStillEdgeAfterThreshold(t *testing.T) {
	p, b := startMonitor(t, Config{SpeedThreshold: 0.002, Ticks: 3})

	var edges []track.Stillness
	b.Subscribe(bus.StillnessChanged, func(payload any) {
		edges = append(edges, payload.(track.Stillness))
	})

	for tick := uint64(1); tick <= 5; tick++ {
		feed(b, "h1", tick, 0.0001, 0)
	}

	if len(edges) != 1 {
		t.Fatalf("expected exactly 1 edge, got %d", len(edges))
	}
	if !edges[0].Still || edges[0].Tick != 3 {
		t.Errorf("unexpected edge: %+v", edges[0])
	}
	if !p.Still("h1") {
		t.Error("hand should report still")
	}
}

func TestMovementResetsCounter(t *testing.T) {
	p, b := startMonitor(t, Config{SpeedThreshold: 0.002, Ticks: 3})

	feed(b, "h1", 1, 0, 0)
	feed(b, "h1", 2, 0, 0)
	feed(b, "h1", 3, 0.01, 0) // moving: resets before the edge
	feed(b, "h1", 4, 0, 0)
	feed(b, "h1", 5, 0, 0)

	if p.Still("h1") {
		t.Error("counter must reset on movement")
	}
}

func TestMovingEdgeAfterStill(t *testing.T) {
	_, b := startMonitor(t, Config{SpeedThreshold: 0.002, Ticks: 2})

	var edges []track.Stillness
	b.Subscribe(bus.StillnessChanged, func(payload any) {
		edges = append(edges, payload.(track.Stillness))
	})

	feed(b, "h1", 1, 0, 0)
	feed(b, "h1", 2, 0, 0)   // still edge
	feed(b, "h1", 3, 0.1, 0) // moving edge

	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if !edges[0].Still || edges[1].Still {
		t.Errorf("unexpected edge sequence: %+v", edges)
	}
}

func TestHandsAreIndependent(t *testing.T) {
	p, b := startMonitor(t, Config{SpeedThreshold: 0.002, Ticks: 2})

	feed(b, "h1", 1, 0, 0)
	feed(b, "h2", 1, 0.1, 0)
	feed(b, "h1", 2, 0, 0)
	feed(b, "h2", 2, 0.1, 0)

	if !p.Still("h1") {
		t.Error("h1 should be still")
	}
	if p.Still("h2") {
		t.Error("h2 should be moving")
	}
}

func TestStopSilencesMonitor(t *testing.T) {
	p, b := startMonitor(t, Config{SpeedThreshold: 0.002, Ticks: 1})

	edges := 0
	b.Subscribe(bus.StillnessChanged, func(any) { edges++ })

	if err := p.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	feed(b, "h1", 1, 0, 0)
	if edges != 0 {
		t.Errorf("stopped monitor must not publish, got %d edges", edges)
	}
}
