package filter

import (
	"github.com/ayusman/sparsh/internal/track"
)

// Config holds the pipeline tuning.
type Config struct {
	// MinCutoff is the cutoff frequency (Hz) at zero velocity. Lower
	// values smooth tremor harder at the price of lag.
	MinCutoff float64
	// Beta scales how fast the cutoff opens with velocity. Higher values
	// trade smoothing for responsiveness on fast motion.
	Beta float64
	// DCutoff is the cutoff for the derivative estimate itself.
	DCutoff float64
	// Rate is the nominal sample rate in Hz (frames arrive at 30-120 Hz;
	// ticks are treated as evenly spaced at this rate).
	Rate float64
	// PredictTicks projects the output ahead to counteract perceived lag
	// on fast gestures. 0 disables prediction. Predictions are clamped
	// to the span between the filtered and the raw sample, so the output
	// never overshoots the unfiltered signal.
	PredictTicks int
}

// DefaultConfig returns the production tuning for normalized [0,1]
// coordinates at 60 Hz.
func DefaultConfig() Config {
	return Config{
		MinCutoff:    1.0,
		Beta:         0.5,
		DCutoff:      1.0,
		Rate:         60,
		PredictTicks: 0,
	}
}

// handState is the per-hand working state: last position, last velocity
// and the filter internals. Owned exclusively by the Pipeline, allocated
// once per hand lifetime, reused every tick.
type handState struct {
	ax, ay oneEuroAxis
}

// Pipeline filters every tracked hand's position stream. The per-frame
// path performs no heap allocation: hand states, the output slice and
// the seen-set are pre-sized and reused, because small allocations at
// 60-120 Hz show up as GC pauses and GC pauses show up as pointer
// freezes.
type Pipeline struct {
	config Config
	hands  map[string]*handState

	out  []track.FilteredPosition
	seen map[string]bool
}

// NewPipeline creates a Pipeline with the given tuning.
func NewPipeline(config Config) *Pipeline {
	if config.Rate <= 0 {
		config.Rate = 60
	}
	return &Pipeline{
		config: config,
		hands:  make(map[string]*handState, 4),
		out:    make([]track.FilteredPosition, 0, 8),
		seen:   make(map[string]bool, 4),
	}
}

// SetConfig swaps the tuning between ticks (live config reload).
func (p *Pipeline) SetConfig(config Config) {
	if config.Rate <= 0 {
		config.Rate = 60
	}
	p.config = config
}

// ProcessBatch filters one tick's frames and returns the per-hand
// filtered positions with velocity estimates (normalized units per
// tick). The returned slice is reused on the next call; callers must not
// retain it across ticks.
func (p *Pipeline) ProcessBatch(batch track.FrameBatch) []track.FilteredPosition {
	p.out = p.out[:0]
	for k := range p.seen {
		delete(p.seen, k)
	}

	for i := range batch.Hands {
		frame := &batch.Hands[i]
		p.seen[frame.HandID] = true

		h, ok := p.hands[frame.HandID]
		if !ok {
			h = &handState{}
			p.hands[frame.HandID] = h
		}

		fx, dxs := h.ax.filter(frame.X, &p.config)
		fy, dys := h.ay.filter(frame.Y, &p.config)

		if p.config.PredictTicks > 0 {
			lead := float64(p.config.PredictTicks) / p.config.Rate
			fx = clampBetween(fx+dxs*lead, fx, frame.X)
			fy = clampBetween(fy+dys*lead, fy, frame.Y)
		}

		p.out = append(p.out, track.FilteredPosition{
			HandID: frame.HandID,
			Tick:   batch.Tick,
			X:      fx,
			Y:      fy,
			VX:     dxs / p.config.Rate,
			VY:     dys / p.config.Rate,
		})
	}

	// Drop state for hands that left the frame set.
	for id := range p.hands {
		if !p.seen[id] {
			delete(p.hands, id)
		}
	}

	return p.out
}

// Tracked reports whether filter state exists for a hand id.
func (p *Pipeline) Tracked(handID string) bool {
	_, ok := p.hands[handID]
	return ok
}

// clampBetween limits v to the closed interval spanned by a and b.
func clampBetween(v, a, b float64) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
