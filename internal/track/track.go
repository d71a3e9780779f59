// Package track defines the per-tick hand tracking records exchanged on
// the event bus. The vision collaborator (a MediaPipe hand landmarker
// running in the browser) produces them; the gesture FSM and the signal
// pipeline consume them. Frames are ephemeral and never persisted beyond
// the tick window a consumer needs for filtering.
package track

// Gesture classification labels as emitted by the vision collaborator.
const (
	LabelPinch      = "pinch"
	LabelOpenPalm   = "open_palm"
	LabelClosedFist = "closed_fist"
	LabelNone       = "none"
)

// HandFrame is one hand's classification for one tick. Coordinates are
// normalized to [0,1] in viewport space, already corrected for
// mirror/overscan mapping on the sensor side.
type HandFrame struct {
	HandID     string  `json:"handId"`
	Label      string  `json:"gestureLabel"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
}

// FrameBatch is the per-tick array of hand frames published on
// FRAME_PROCESSED. Tick numbers are assigned by the sensor adapter and
// increase monotonically; all downstream time is tick counting, never
// wall clock.
type FrameBatch struct {
	Tick  uint64      `json:"tick"`
	Hands []HandFrame `json:"hands"`
}

// IntentKind enumerates the committed intents the gesture FSM can emit.
type IntentKind string

const (
	// IntentPinchStart fires exactly once when a hand commits a pinch.
	IntentPinchStart IntentKind = "pinch-start"
	// IntentDrag fires each tick while a committed pinch persists.
	IntentDrag IntentKind = "drag"
	// IntentRelease fires exactly once when a committed pinch releases.
	IntentRelease IntentKind = "release"
)

// Intent is a committed gesture transition published on GESTURE_INTENT.
type Intent struct {
	HandID string
	Kind   IntentKind
	Tick   uint64
}

// FilteredPosition is the signal pipeline's per-hand output published on
// FILTERED_POSITION. X/Y remain normalized; VX/VY are in normalized
// units per tick.
type FilteredPosition struct {
	HandID string
	Tick   uint64
	X, Y   float64
	VX, VY float64
}

// Stillness is a stillness-monitor edge published on STILLNESS_CHANGED.
type Stillness struct {
	HandID string
	Still  bool
	Tick   uint64
}
