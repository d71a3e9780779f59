// Package pointer synthesizes the W3C pointer event cascade from the
// filtered position stream and the committed gesture intents, well
// enough that unmodified third-party pages treat it as a real touch.
package pointer

// Event types in the synthesized cascades. Names match the DOM event
// names the page bridge replays verbatim.
const (
	EvPointerOver  = "pointerover"
	EvPointerEnter = "pointerenter"
	EvPointerMove  = "pointermove"
	EvMouseMove    = "mousemove"
	EvPointerDown  = "pointerdown"
	EvMouseDown    = "mousedown"
	EvFocus        = "focus"
	EvClick        = "click"
	EvPointerUp    = "pointerup"
	EvMouseUp      = "mouseup"
	EvPointerOut   = "pointerout"
	EvPointerLeave = "pointerleave"
)

// SyntheticEvent is one DOM event to replay. X/Y are clamped
// root-document pixels; for targets inside an iframe, FrameID names the
// content document and LocalX/LocalY are the coordinates translated into
// that frame's space.
type SyntheticEvent struct {
	Type      string  `json:"type"`
	PointerID int     `json:"pointerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	TargetID  string  `json:"targetId,omitempty"`
	FrameID   string  `json:"frameId,omitempty"`
	LocalX    float64 `json:"localX"`
	LocalY    float64 `json:"localY"`
	IsPrimary bool    `json:"isPrimary"`
	Tick      uint64  `json:"tick"`
}

// DispatchRecord is one synthesized cascade, published on
// POINTER_DISPATCHED after delivery to the sink.
type DispatchRecord struct {
	HandID string           `json:"handId"`
	Events []SyntheticEvent `json:"events"`
}

// Sink receives synthesized cascades. The production sink forwards them
// to the page bridge; tests record them.
type Sink interface {
	Dispatch(rec DispatchRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec DispatchRecord) error

// Dispatch calls f.
func (f SinkFunc) Dispatch(rec DispatchRecord) error { return f(rec) }
