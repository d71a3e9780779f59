// Package fabric hosts the pointer fabric as a plugin: filtered
// positions and intents in, synthesized pointer cascades out through
// the dispatch sink.
package fabric

import (
	"log"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/track"
)

// Fabric owns the pointer synthesis state for every tracked hand.
type Fabric struct {
	config pointer.Config
	sink   pointer.Sink

	fabric      *pointer.Fabric
	unsubPos    bus.UnsubscribeFunc
	unsubIntent bus.UnsubscribeFunc
	unsubFrames bus.UnsubscribeFunc
	busRef      *bus.Bus
}

// New returns the plugin. The sink receives every synthesized cascade;
// in production it is the page bridge.
func New(config pointer.Config, sink pointer.Sink) *Fabric {
	return &Fabric{config: config, sink: sink}
}

// SetConfig applies new magnetism tuning. Safe between ticks.
func (p *Fabric) SetConfig(config pointer.Config) {
	p.config = config
	if p.fabric != nil {
		p.fabric.SetConfig(config)
	}
}

// Name implements kernel.Plugin.
func (p *Fabric) Name() string { return "fabric" }

// Init implements kernel.Plugin.
func (p *Fabric) Init(ctx *kernel.Context) error {
	p.busRef = ctx.Bus
	p.fabric = pointer.NewFabric(p.config, ctx.PAL, ctx.Bus, p.sink)
	return nil
}

// Start implements kernel.Plugin.
func (p *Fabric) Start() error {
	p.unsubPos = p.busRef.Subscribe(bus.FilteredPosition, p.onFiltered)
	p.unsubIntent = p.busRef.Subscribe(bus.GestureIntent, p.onIntent)
	p.unsubFrames = p.busRef.Subscribe(bus.FrameProcessed, p.onFrames)
	return nil
}

// Stop implements kernel.Plugin.
func (p *Fabric) Stop() error {
	for _, unsub := range []bus.UnsubscribeFunc{p.unsubPos, p.unsubIntent, p.unsubFrames} {
		if unsub != nil {
			unsub()
		}
	}
	p.unsubPos, p.unsubIntent, p.unsubFrames = nil, nil, nil
	return nil
}

// Destroy implements kernel.Plugin.
func (p *Fabric) Destroy() error {
	p.fabric = nil
	p.busRef = nil
	return nil
}

func (p *Fabric) onFiltered(payload any) {
	pos, ok := payload.(track.FilteredPosition)
	if !ok {
		return
	}
	if err := p.fabric.OnFiltered(pos); err != nil {
		log.Printf("fabric: %v", err)
	}
}

func (p *Fabric) onIntent(payload any) {
	intent, ok := payload.(track.Intent)
	if !ok {
		return
	}
	if err := p.fabric.OnIntent(intent); err != nil {
		log.Printf("fabric: %v", err)
	}
}

func (p *Fabric) onFrames(payload any) {
	batch, ok := payload.(track.FrameBatch)
	if !ok {
		return
	}
	p.fabric.PruneMissing(batch)
}
