// Package pal is the platform abstraction layer: the sole broker of
// host-global capabilities (viewport size, element-under-point, clock).
// Plugins never touch the browser bridge directly; every host read goes
// through a registered capability. The narrow exceptions are the
// host-boundary adapters themselves (internal/host, internal/server),
// which the conformance gate allow-lists.
package pal

import (
	"fmt"

	"github.com/ayusman/sparsh/internal/bus"
)

// Well-known capability keys seeded at bootstrap.
const (
	KeyScreenWidth      = "ScreenWidth"
	KeyScreenHeight     = "ScreenHeight"
	KeyElementFromPoint = "ElementFromPoint"
	KeyNearestElement   = "NearestInteractiveElement"
	KeyClock            = "Clock"
)

// Viewport is the payload published on VIEWPORT_RESIZED by the host
// bridge. Dimensions are CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Element describes an interactive-element hit in root-document
// coordinates. FrameID is empty for the root document; for iframe
// content it names the frame and FrameX/FrameY give the frame's origin
// so dispatch can translate into frame-local space.
type Element struct {
	ID          string
	FrameID     string
	FrameX      float64
	FrameY      float64
	X, Y, W, H  float64
	Interactive bool
}

// CenterX returns the horizontal center of the element's bounding box.
func (e Element) CenterX() float64 { return e.X + e.W/2 }

// CenterY returns the vertical center of the element's bounding box.
func (e Element) CenterY() float64 { return e.Y + e.H/2 }

// ElementFromPointFunc resolves the top-most element at a root-document
// pixel coordinate. The boolean is false when nothing is hit.
type ElementFromPointFunc func(x, y float64) (Element, bool)

// NearestElementFunc finds the interactive element whose center is
// nearest to the coordinate, within radius pixels.
type NearestElementFunc func(x, y, radius float64) (Element, bool)

// TickSource reports the most recent sensor tick.
type TickSource func() uint64

// CapabilityNotFound is returned by Resolve for an unregistered key.
// This is deliberate fail-loud policy: a silently-missing capability is
// the historical "forgot to wire it" bug class, and it must surface at
// test time rather than flow downstream as a zero value.
type CapabilityNotFound struct {
	Key string
}

func (e *CapabilityNotFound) Error() string {
	return fmt.Sprintf("pal: capability %q not registered", e.Key)
}

// PAL owns the capability registry for one supervisor instance. Entries
// are registered at bootstrap and may be live-updated (viewport size on
// resize), never removed except at teardown.
type PAL struct {
	caps        map[string]any
	unsubResize bus.UnsubscribeFunc
	onResize    bus.Handler
}

// New creates a PAL bound to the supervisor's bus. The PAL owns exactly
// one side-effecting subscription: a VIEWPORT_RESIZED listener that
// re-registers ScreenWidth and ScreenHeight on every host resize.
func New(b *bus.Bus) *PAL {
	p := &PAL{
		caps: make(map[string]any),
	}
	p.onResize = func(payload any) {
		vp, ok := payload.(Viewport)
		if !ok {
			return
		}
		p.Register(KeyScreenWidth, vp.Width)
		p.Register(KeyScreenHeight, vp.Height)
	}
	p.unsubResize = b.Subscribe(bus.ViewportResized, p.onResize)
	return p
}

// Register binds key to value, replacing any previous binding.
func (p *PAL) Register(key string, value any) {
	if p.caps == nil {
		return
	}
	p.caps[key] = value
}

// Resolve returns the value registered under key, or CapabilityNotFound.
// After Destroy, every key resolves the same way as an unregistered one.
func (p *PAL) Resolve(key string) (any, error) {
	v, ok := p.caps[key]
	if !ok {
		return nil, &CapabilityNotFound{Key: key}
	}
	return v, nil
}

// Destroy removes the resize listener and clears the registry.
func (p *PAL) Destroy() {
	if p.unsubResize != nil {
		p.unsubResize()
		p.unsubResize = nil
	}
	p.caps = nil
}

// As resolves key and asserts it to T. A registered value of the wrong
// type fails loudly, like a missing key, rather than limping along.
func As[T any](p *PAL, key string) (T, error) {
	var zero T
	v, err := p.Resolve(key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("pal: capability %q holds %T, want %T", key, v, zero)
	}
	return t, nil
}
