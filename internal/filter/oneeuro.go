// Package filter implements the velocity-adaptive signal pipeline that
// turns the raw per-hand position stream into a filtered position and a
// velocity estimate. At near-zero velocity the cutoff drops and tremor
// is smoothed hard; at high velocity the cutoff opens up and the filter
// adds almost no latency (the One Euro scheme).
package filter

import "math"

// lowPass is a first-order exponential filter. Output is always a convex
// combination of the previous output and the new sample, so it can never
// overshoot the input's local extrema.
type lowPass struct {
	initialized bool
	hat         float64
}

func (f *lowPass) filter(x, alpha float64) float64 {
	if !f.initialized {
		f.initialized = true
		f.hat = x
		return x
	}
	f.hat = alpha*x + (1-alpha)*f.hat
	return f.hat
}

func (f *lowPass) reset() {
	f.initialized = false
	f.hat = 0
}

// oneEuroAxis filters one coordinate axis. The derivative is taken from
// the previous raw sample, not the previous filtered output: the filtered
// trace lags under motion, and differencing against it would inflate the
// velocity estimate.
type oneEuroAxis struct {
	x       lowPass
	dx      lowPass
	prevRaw float64
	hasRaw  bool
}

// alphaFor converts a cutoff frequency to the smoothing factor at the
// given sample rate.
func alphaFor(cutoff, rate float64) float64 {
	tau := 1.0 / (2 * math.Pi * cutoff)
	te := 1.0 / rate
	return 1.0 / (1.0 + tau/te)
}

// filter advances the axis by one sample and returns the filtered value
// and the filtered derivative in units per second.
func (a *oneEuroAxis) filter(x float64, c *Config) (float64, float64) {
	var rawDx float64
	if a.hasRaw {
		rawDx = (x - a.prevRaw) * c.Rate
	}
	a.prevRaw = x
	a.hasRaw = true
	dxHat := a.dx.filter(rawDx, alphaFor(c.DCutoff, c.Rate))

	cutoff := c.MinCutoff + c.Beta*math.Abs(dxHat)
	return a.x.filter(x, alphaFor(cutoff, c.Rate)), dxHat
}

func (a *oneEuroAxis) reset() {
	a.x.reset()
	a.dx.reset()
	a.prevRaw = 0
	a.hasRaw = false
}
