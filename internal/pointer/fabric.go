package pointer

import (
	"fmt"
	"math"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/pal"
	"github.com/ayusman/sparsh/internal/track"
)

// firstPointerID is the first synthetic pointer id handed out. Id 1 is
// reserved for the real mouse per the Pointer Events spec.
const firstPointerID = 2

// Config tunes target magnetism.
type Config struct {
	// SnapRadius is the magnetism reach in pixels.
	SnapRadius float64
	// SpeedThreshold is the speed (normalized units per tick) below
	// which the dispatch coordinate snaps to the nearest interactive
	// element's center. Magnetism masks residual micro-jitter without
	// buying latency with heavier filtering.
	SpeedThreshold float64
}

// DefaultConfig returns the production magnetism tuning.
func DefaultConfig() Config {
	return Config{
		SnapRadius:     24,
		SpeedThreshold: 0.002,
	}
}

// Target is the synthesized pointer identity for one hand. The pointer
// id is stable for the hand's lifetime, satisfying W3C multi-pointer
// identity semantics.
type Target struct {
	PointerID int
	LastX     float64
	LastY     float64
	Pinching  bool
	Primary   bool

	overElement pal.Element
	hasElement  bool
}

// Fabric consumes filtered positions and committed intents and
// synthesizes the event cascades. One Fabric per supervisor; all host
// reads go through PAL, re-resolved every tick because the underlying
// capabilities (viewport size, element map) change underneath us.
type Fabric struct {
	config Config
	pal    *pal.PAL
	bus    *bus.Bus
	sink   Sink

	hands         map[string]*Target
	nextPointerID int

	// events is the scratch cascade buffer reused across ticks.
	events []SyntheticEvent
}

// NewFabric creates a Fabric dispatching into sink.
func NewFabric(config Config, p *pal.PAL, b *bus.Bus, sink Sink) *Fabric {
	return &Fabric{
		config:        config,
		pal:           p,
		bus:           b,
		sink:          sink,
		hands:         make(map[string]*Target, 4),
		nextPointerID: firstPointerID,
		events:        make([]SyntheticEvent, 0, 8),
	}
}

// SetConfig applies new magnetism tuning. Safe between ticks.
func (f *Fabric) SetConfig(config Config) {
	f.config = config
}

// Target returns the pointer identity for a hand, if one exists.
func (f *Fabric) Target(handID string) (Target, bool) {
	t, ok := f.hands[handID]
	if !ok {
		return Target{}, false
	}
	return *t, true
}

func (f *Fabric) ensure(handID string) *Target {
	t, ok := f.hands[handID]
	if !ok {
		primary := true
		for _, other := range f.hands {
			if other.Primary {
				primary = false
				break
			}
		}
		t = &Target{PointerID: f.nextPointerID, Primary: primary}
		f.nextPointerID++
		f.hands[handID] = t
	}
	return t
}

// OnFiltered advances a hand's pointer to a new filtered position,
// emitting over/enter/out/leave transitions on element change plus the
// move pair.
func (f *Fabric) OnFiltered(pos track.FilteredPosition) error {
	w, h, err := f.viewport()
	if err != nil {
		return err
	}

	t := f.ensure(pos.HandID)

	// An out-of-bounds coordinate must never reach ElementFromPoint.
	x := clamp(pos.X*float64(w), 0, float64(w-1))
	y := clamp(pos.Y*float64(h), 0, float64(h-1))

	// Target magnetism at near-zero velocity.
	if math.Hypot(pos.VX, pos.VY) < f.config.SpeedThreshold {
		if nearest, err := pal.As[pal.NearestElementFunc](f.pal, pal.KeyNearestElement); err == nil {
			if e, ok := nearest(x, y, f.config.SnapRadius); ok {
				x = clamp(e.CenterX(), 0, float64(w-1))
				y = clamp(e.CenterY(), 0, float64(h-1))
			}
		}
	}

	efp, err := pal.As[pal.ElementFromPointFunc](f.pal, pal.KeyElementFromPoint)
	if err != nil {
		return err
	}
	element, hit := efp(x, y)

	f.events = f.events[:0]
	if f.elementChanged(t, element, hit) {
		if t.hasElement {
			f.push(t, EvPointerOut, t.LastX, t.LastY, t.overElement, pos.Tick)
			f.push(t, EvPointerLeave, t.LastX, t.LastY, t.overElement, pos.Tick)
		}
		if hit {
			f.push(t, EvPointerOver, x, y, element, pos.Tick)
			f.push(t, EvPointerEnter, x, y, element, pos.Tick)
		}
	}
	f.push(t, EvPointerMove, x, y, element, pos.Tick)
	f.push(t, EvMouseMove, x, y, element, pos.Tick)

	t.LastX, t.LastY = x, y
	t.overElement, t.hasElement = element, hit

	return f.flush(pos.HandID)
}

// OnIntent reacts to a committed gesture transition. Commit dispatches
// the full cascade the W3C model produces for a touch press; release
// mirrors the teardown.
func (f *Fabric) OnIntent(intent track.Intent) error {
	t, ok := f.hands[intent.HandID]
	if !ok {
		// No position has been seen for this hand yet; nothing to aim at.
		return nil
	}

	switch intent.Kind {
	case track.IntentPinchStart:
		t.Pinching = true
		f.events = f.events[:0]
		for _, ev := range [...]string{
			EvPointerOver, EvPointerEnter, EvMouseMove,
			EvMouseDown, EvPointerDown, EvFocus, EvClick,
		} {
			f.push(t, ev, t.LastX, t.LastY, t.overElement, intent.Tick)
		}
		return f.flush(intent.HandID)

	case track.IntentRelease:
		if !t.Pinching {
			return nil
		}
		t.Pinching = false
		f.events = f.events[:0]
		for _, ev := range [...]string{
			EvPointerUp, EvMouseUp, EvPointerOut, EvPointerLeave,
		} {
			f.push(t, ev, t.LastX, t.LastY, t.overElement, intent.Tick)
		}
		return f.flush(intent.HandID)

	case track.IntentDrag:
		// Position updates flow through FILTERED_POSITION; a drag tick
		// carries no extra cascade.
		return nil
	}
	return fmt.Errorf("pointer: unknown intent kind %q", intent.Kind)
}

// PruneMissing drops pointer identities for hands absent from the
// current frame set. A pruned pinching hand has already received its
// release from the FSM teardown path.
func (f *Fabric) PruneMissing(batch track.FrameBatch) {
	for id := range f.hands {
		present := false
		for i := range batch.Hands {
			if batch.Hands[i].HandID == id {
				present = true
				break
			}
		}
		if !present {
			delete(f.hands, id)
		}
	}
}

func (f *Fabric) viewport() (int, int, error) {
	w, err := pal.As[int](f.pal, pal.KeyScreenWidth)
	if err != nil {
		return 0, 0, err
	}
	h, err := pal.As[int](f.pal, pal.KeyScreenHeight)
	if err != nil {
		return 0, 0, err
	}
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("pointer: degenerate viewport %dx%d", w, h)
	}
	return w, h, nil
}

func (f *Fabric) elementChanged(t *Target, e pal.Element, hit bool) bool {
	if hit != t.hasElement {
		return true
	}
	return hit && (e.ID != t.overElement.ID || e.FrameID != t.overElement.FrameID)
}

// push appends one event, translating into the target frame's local
// coordinate space when the element lives in an iframe.
func (f *Fabric) push(t *Target, evType string, x, y float64, e pal.Element, tick uint64) {
	ev := SyntheticEvent{
		Type:      evType,
		PointerID: t.PointerID,
		X:         x,
		Y:         y,
		LocalX:    x,
		LocalY:    y,
		IsPrimary: t.Primary,
		Tick:      tick,
	}
	if e.ID != "" {
		ev.TargetID = e.ID
		if e.FrameID != "" {
			ev.FrameID = e.FrameID
			ev.LocalX = x - e.FrameX
			ev.LocalY = y - e.FrameY
		}
	}
	f.events = append(f.events, ev)
}

// flush delivers the pending cascade to the sink and announces it on the
// POINTER_DISPATCHED channel.
func (f *Fabric) flush(handID string) error {
	if len(f.events) == 0 {
		return nil
	}
	rec := DispatchRecord{
		HandID: handID,
		Events: append([]SyntheticEvent(nil), f.events...),
	}
	if err := f.sink.Dispatch(rec); err != nil {
		return err
	}
	f.bus.Publish(bus.PointerDispatched, rec)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
