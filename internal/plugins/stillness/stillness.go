// Package stillness watches the filtered position stream and raises an
// edge when a hand settles or starts moving again. Observers use the
// edges for hover affordances; nothing in the core pipeline depends on
// them.
package stillness

import (
	"math"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/track"
)

// Config tunes the stillness monitor.
type Config struct {
	// SpeedThreshold is the normalized per-tick speed below which a
	// hand counts as still.
	SpeedThreshold float64

	// Ticks is how many consecutive still ticks raise the edge.
	Ticks int
}

// DefaultConfig returns the monitor defaults: half a second of rest at
// 60 Hz.
func DefaultConfig() Config {
	return Config{SpeedThreshold: 0.002, Ticks: 30}
}

type handState struct {
	stillTicks int
	still      bool
}

// Stillness is the monitor plugin.
type Stillness struct {
	config Config
	bus    *bus.Bus
	hands  map[string]*handState
	unsub  bus.UnsubscribeFunc
}

// New returns the plugin with the given tuning.
func New(config Config) *Stillness {
	if config.Ticks < 1 {
		config.Ticks = 1
	}
	return &Stillness{
		config: config,
		hands:  make(map[string]*handState, 4),
	}
}

// SetConfig applies new tuning. Safe between ticks.
func (p *Stillness) SetConfig(config Config) {
	if config.Ticks < 1 {
		config.Ticks = 1
	}
	p.config = config
}

// Name implements kernel.Plugin.
func (p *Stillness) Name() string { return "stillness" }

// Init implements kernel.Plugin.
func (p *Stillness) Init(ctx *kernel.Context) error {
	p.bus = ctx.Bus
	return nil
}

// Start implements kernel.Plugin.
func (p *Stillness) Start() error {
	p.unsub = p.bus.Subscribe(bus.FilteredPosition, p.onFiltered)
	return nil
}

// Stop implements kernel.Plugin.
func (p *Stillness) Stop() error {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	return nil
}

// Destroy implements kernel.Plugin.
func (p *Stillness) Destroy() error {
	p.bus = nil
	p.hands = make(map[string]*handState, 4)
	return nil
}

// Still reports whether a hand is currently considered still.
func (p *Stillness) Still(handID string) bool {
	h, ok := p.hands[handID]
	return ok && h.still
}

func (p *Stillness) onFiltered(payload any) {
	pos, ok := payload.(track.FilteredPosition)
	if !ok {
		return
	}
	h := p.hands[pos.HandID]
	if h == nil {
		h = &handState{}
		p.hands[pos.HandID] = h
	}

	speed := math.Hypot(pos.VX, pos.VY)
	if speed < p.config.SpeedThreshold {
		h.stillTicks++
	} else {
		h.stillTicks = 0
	}

	still := h.stillTicks >= p.config.Ticks
	if still == h.still {
		return
	}
	h.still = still
	p.bus.Publish(bus.StillnessChanged, track.Stillness{
		HandID: pos.HandID,
		Still:  still,
		Tick:   pos.Tick,
	})
}
