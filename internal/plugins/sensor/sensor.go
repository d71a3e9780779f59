// Package sensor adapts the vision ingress to the event bus. The
// WebSocket endpoint hands it decoded frame batches; it validates tick
// ordering and publishes FRAME_PROCESSED. It is the only producer of
// raw tracking data in the tree.
package sensor

import (
	"log"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

// Sensor is the ingress adapter plugin.
type Sensor struct {
	bus      *bus.Bus
	running  bool
	lastTick uint64
	hasTick  bool
}

// New returns an unstarted sensor adapter.
func New() *Sensor {
	return &Sensor{}
}

// Name implements kernel.Plugin.
func (s *Sensor) Name() string { return "sensor" }

// Init implements kernel.Plugin.
func (s *Sensor) Init(ctx *kernel.Context) error {
	s.bus = ctx.Bus
	return nil
}

// Start implements kernel.Plugin.
func (s *Sensor) Start() error {
	s.running = true
	return nil
}

// Stop implements kernel.Plugin.
func (s *Sensor) Stop() error {
	s.running = false
	return nil
}

// Destroy implements kernel.Plugin.
func (s *Sensor) Destroy() error {
	s.bus = nil
	s.hasTick = false
	return nil
}

// Ingest publishes one frame batch. Batches arriving while the plugin
// is stopped are dropped, as are batches whose tick does not advance:
// the ingress socket can redeliver on reconnect and downstream state
// machines assume monotonic time.
//
// Ingest must be called from the tick domain goroutine; the bus fans
// out synchronously.
func (s *Sensor) Ingest(batch track.FrameBatch) {
	if !s.running {
		return
	}
	if s.hasTick && batch.Tick <= s.lastTick {
		log.Printf("sensor: dropping stale batch tick=%d last=%d", batch.Tick, s.lastTick)
		return
	}
	s.lastTick = batch.Tick
	s.hasTick = true
	s.bus.Publish(bus.FrameProcessed, batch)
}
