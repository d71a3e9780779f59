// Package host is the daemon-side model of the page bridge: viewport
// size and the interactive-element map the browser keeps fresh over the
// bridge WebSocket. It is the only package that speaks for the browser;
// everything else reads host state through PAL capabilities. The
// conformance gate enforces that boundary.
package host

import (
	"sync"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/pal"
)

// Model mirrors the target page's layout. The bridge goroutine writes
// it; the tick domain reads it through the capability closures seeded in
// Seed.
type Model struct {
	mu       sync.RWMutex
	bus      *bus.Bus
	viewport pal.Viewport
	// elements in paint order: a later entry draws over an earlier one.
	elements []pal.Element
	tick     uint64
}

// NewModel creates a Model that publishes resize events on the
// supervisor's bus.
func NewModel(b *bus.Bus) *Model {
	return &Model{bus: b}
}

// SetViewport records a new viewport size and publishes
// VIEWPORT_RESIZED so PAL re-registers the screen dimensions.
func (m *Model) SetViewport(width, height int) {
	m.mu.Lock()
	m.viewport = pal.Viewport{Width: width, Height: height}
	m.mu.Unlock()
	m.bus.Publish(bus.ViewportResized, pal.Viewport{Width: width, Height: height})
}

// Viewport returns the last reported viewport size.
func (m *Model) Viewport() pal.Viewport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}

// SetElements replaces the element map. Entries arrive in paint order.
func (m *Model) SetElements(elements []pal.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements = elements
}

// SetTick records the most recent sensor tick, read back through the
// Clock capability.
func (m *Model) SetTick(tick uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tick = tick
}

// ElementFromPoint resolves the top-most element containing the
// root-document coordinate. Callers must clamp first; the model does not
// guard against out-of-viewport queries.
func (m *Model) ElementFromPoint(x, y float64) (pal.Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.elements) - 1; i >= 0; i-- {
		e := m.elements[i]
		if x >= e.X && x < e.X+e.W && y >= e.Y && y < e.Y+e.H {
			return e, true
		}
	}
	return pal.Element{}, false
}

// NearestInteractive finds the interactive element whose center is
// closest to the coordinate, within radius pixels.
func (m *Model) NearestInteractive(x, y, radius float64) (pal.Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := pal.Element{}
	bestDist := radius * radius
	found := false
	for _, e := range m.elements {
		if !e.Interactive {
			continue
		}
		dx := e.CenterX() - x
		dy := e.CenterY() - y
		d := dx*dx + dy*dy
		if d <= bestDist {
			best = e
			bestDist = d
			found = true
		}
	}
	return best, found
}

// Seed registers the bootstrap capabilities: screen dimensions, the
// element accessors and the tick clock. Later resizes flow through the
// VIEWPORT_RESIZED channel instead.
func (m *Model) Seed(p *pal.PAL) {
	vp := m.Viewport()
	p.Register(pal.KeyScreenWidth, vp.Width)
	p.Register(pal.KeyScreenHeight, vp.Height)
	p.Register(pal.KeyElementFromPoint, pal.ElementFromPointFunc(m.ElementFromPoint))
	p.Register(pal.KeyNearestElement, pal.NearestElementFunc(m.NearestInteractive))
	p.Register(pal.KeyClock, pal.TickSource(func() uint64 {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.tick
	}))
}
