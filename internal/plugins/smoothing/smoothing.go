// Package smoothing hosts the One Euro signal pipeline as a plugin:
// frame batches in, filtered per-hand positions out.
package smoothing

import (
	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/filter"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

// Smoothing runs the signal pipeline over the frame stream.
type Smoothing struct {
	bus      *bus.Bus
	pipeline *filter.Pipeline
	unsub    bus.UnsubscribeFunc
}

// New returns the plugin with the given filter tuning.
func New(config filter.Config) *Smoothing {
	return &Smoothing{pipeline: filter.NewPipeline(config)}
}

// SetConfig applies new filter tuning. Safe between ticks.
func (p *Smoothing) SetConfig(config filter.Config) {
	p.pipeline.SetConfig(config)
}

// Name implements kernel.Plugin.
func (p *Smoothing) Name() string { return "smoothing" }

// Init implements kernel.Plugin.
func (p *Smoothing) Init(ctx *kernel.Context) error {
	p.bus = ctx.Bus
	return nil
}

// Start implements kernel.Plugin.
func (p *Smoothing) Start() error {
	p.unsub = p.bus.Subscribe(bus.FrameProcessed, p.onFrames)
	return nil
}

// Stop implements kernel.Plugin.
func (p *Smoothing) Stop() error {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	return nil
}

// Destroy implements kernel.Plugin.
func (p *Smoothing) Destroy() error {
	p.bus = nil
	return nil
}

func (p *Smoothing) onFrames(payload any) {
	batch, ok := payload.(track.FrameBatch)
	if !ok {
		return
	}
	for _, pos := range p.pipeline.ProcessBatch(batch) {
		p.bus.Publish(bus.FilteredPosition, pos)
	}
}
