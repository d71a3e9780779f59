package e2e

import (
	"testing"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/filter"
	"github.com/ayusman/sparsh/internal/gesture"
	"github.com/ayusman/sparsh/internal/host"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/pal"
	"github.com/ayusman/sparsh/internal/plugins/fabric"
	"github.com/ayusman/sparsh/internal/plugins/intent"
	"github.com/ayusman/sparsh/internal/plugins/sensor"
	"github.com/ayusman/sparsh/internal/plugins/smoothing"
	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/track"
)

// recordingSink captures every cascade the pipeline dispatches.
type recordingSink struct {
	records []pointer.DispatchRecord
}

func (r *recordingSink) Dispatch(rec pointer.DispatchRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingSink) count(eventType string) int {
	n := 0
	for _, rec := range r.records {
		for _, ev := range rec.Events {
			if ev.Type == eventType {
				n++
			}
		}
	}
	return n
}

// pipeline is the full daemon wiring minus the network: supervisor,
// host model, and the four core plugins, fed directly through the
// sensor adapter.
type pipeline struct {
	sup    *kernel.Supervisor
	bus    *bus.Bus
	sensor *sensor.Sensor
	sink   *recordingSink
}

func bootPipeline(t *testing.T) *pipeline {
	t.Helper()

	sup := kernel.NewSupervisor()
	model := host.NewModel(sup.Bus())
	model.Seed(sup.PAL())
	model.SetViewport(1920, 1080)
	model.SetElements([]pal.Element{
		{ID: "buy-button", X: 880, Y: 500, W: 160, H: 80, Interactive: true},
	})

	sink := &recordingSink{}
	sensorPlugin := sensor.New()

	for _, p := range []kernel.Plugin{
		sensorPlugin,
		intent.New(gesture.DefaultConfig()),
		smoothing.New(filter.DefaultConfig()),
		fabric.New(pointer.DefaultConfig(), sink),
	} {
		if err := sup.Register(p); err != nil {
			t.Fatalf("register %s: %v", p.Name(), err)
		}
	}
	if err := sup.InitAll(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := sup.StartAll(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { sup.DestroyAll() })

	return &pipeline{sup: sup, bus: sup.Bus(), sensor: sensorPlugin, sink: sink}
}

func hand(id, label string, conf, x, y float64) track.HandFrame {
	return track.HandFrame{HandID: id, Label: label, Confidence: conf, X: x, Y: y}
}

// TestPinchClicksWhileTraversalDoesNot drives two hands through the
// whole pipeline: hand A rests over the button and pinches, hand B
// sweeps across the viewport open-palmed. Exactly one click must come
// out, from A, on the button.
func TestPinchClicksWhileTraversalDoesNot(t *testing.T) {
	p := bootPipeline(t)

	tick := uint64(0)
	feed := func(hands ...track.HandFrame) {
		tick++
		p.sensor.Ingest(track.FrameBatch{Tick: tick, Hands: hands})
	}

	// Settle both hands: A over the button center, B at the left edge.
	for i := 0; i < 10; i++ {
		feed(
			hand("a", track.LabelOpenPalm, 0.9, 0.5, 0.5),
			hand("b", track.LabelOpenPalm, 0.9, 0.05, 0.5),
		)
	}

	// A pinches through the commit window; B sweeps across the screen,
	// passing straight over the button.
	for i := 0; i < 8; i++ {
		bx := 0.05 + float64(i)*0.12
		feed(
			hand("a", track.LabelPinch, 0.9, 0.5, 0.5),
			hand("b", track.LabelOpenPalm, 0.9, bx, 0.5),
		)
	}

	// A releases.
	for i := 0; i < 5; i++ {
		feed(
			hand("a", track.LabelOpenPalm, 0.9, 0.5, 0.5),
			hand("b", track.LabelOpenPalm, 0.9, 0.95, 0.5),
		)
	}

	if got := p.sink.count(pointer.EvClick); got != 1 {
		t.Fatalf("expected exactly 1 click, got %d", got)
	}
	if got := p.sink.count(pointer.EvPointerDown); got != 1 {
		t.Errorf("expected exactly 1 pointerdown, got %d", got)
	}
	if got := p.sink.count(pointer.EvPointerUp); got != 1 {
		t.Errorf("expected exactly 1 pointerup, got %d", got)
	}

	// The click belongs to hand A and lands on the button.
	for _, rec := range p.sink.records {
		for _, ev := range rec.Events {
			if ev.Type == pointer.EvClick {
				if rec.HandID != "a" {
					t.Errorf("click from hand %q, want a", rec.HandID)
				}
				if ev.TargetID != "buy-button" {
					t.Errorf("click target %q, want buy-button", ev.TargetID)
				}
			}
		}
	}
}

// TestVanishedHandReleases drops a pinching hand from the frame set and
// expects the release cascade rather than a stuck pointer.
func TestVanishedHandReleases(t *testing.T) {
	p := bootPipeline(t)

	tick := uint64(0)
	feed := func(hands ...track.HandFrame) {
		tick++
		p.sensor.Ingest(track.FrameBatch{Tick: tick, Hands: hands})
	}

	for i := 0; i < 5; i++ {
		feed(hand("a", track.LabelOpenPalm, 0.9, 0.5, 0.5))
	}
	for i := 0; i < 6; i++ {
		feed(hand("a", track.LabelPinch, 0.9, 0.5, 0.5))
	}
	if got := p.sink.count(pointer.EvPointerDown); got != 1 {
		t.Fatalf("expected a committed pinch, got %d pointerdown", got)
	}

	// Hand disappears mid-pinch.
	feed()

	if got := p.sink.count(pointer.EvPointerUp); got != 1 {
		t.Errorf("expected the vanished hand to release, got %d pointerup", got)
	}
}

// TestSupervisorRestartKeepsPipelineAlive stops and restarts the whole
// plugin set, then verifies a pinch still clicks.
func TestSupervisorRestartKeepsPipelineAlive(t *testing.T) {
	p := bootPipeline(t)

	if err := p.sup.StopAll(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.sup.StartAll(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	tick := uint64(100)
	feed := func(hands ...track.HandFrame) {
		tick++
		p.sensor.Ingest(track.FrameBatch{Tick: tick, Hands: hands})
	}

	for i := 0; i < 5; i++ {
		feed(hand("a", track.LabelOpenPalm, 0.9, 0.5, 0.5))
	}
	for i := 0; i < 6; i++ {
		feed(hand("a", track.LabelPinch, 0.9, 0.5, 0.5))
	}

	if got := p.sink.count(pointer.EvClick); got != 1 {
		t.Errorf("expected 1 click after restart, got %d", got)
	}
}
