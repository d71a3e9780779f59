// Package intent hosts the gesture state machine as a plugin: frame
// batches in, committed intents out.
package intent

import (
	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/gesture"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

// Intent runs the pinch state machine over the frame stream.
type Intent struct {
	bus     *bus.Bus
	tracker *gesture.Tracker
	unsub   bus.UnsubscribeFunc
}

// New returns the plugin with the given state machine tuning.
func New(config gesture.Config) *Intent {
	return &Intent{tracker: gesture.NewTracker(config)}
}

// SetConfig applies new tuning to the state machine. Safe between
// ticks.
func (p *Intent) SetConfig(config gesture.Config) {
	p.tracker.SetConfig(config)
}

// Name implements kernel.Plugin.
func (p *Intent) Name() string { return "intent" }

// Init implements kernel.Plugin.
func (p *Intent) Init(ctx *kernel.Context) error {
	p.bus = ctx.Bus
	return nil
}

// Start implements kernel.Plugin.
func (p *Intent) Start() error {
	p.unsub = p.bus.Subscribe(bus.FrameProcessed, p.onFrames)
	return nil
}

// Stop implements kernel.Plugin.
func (p *Intent) Stop() error {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	return nil
}

// Destroy implements kernel.Plugin.
func (p *Intent) Destroy() error {
	p.bus = nil
	return nil
}

func (p *Intent) onFrames(payload any) {
	batch, ok := payload.(track.FrameBatch)
	if !ok {
		return
	}
	for _, intent := range p.tracker.ProcessBatch(batch) {
		p.bus.Publish(bus.GestureIntent, intent)
	}
}
