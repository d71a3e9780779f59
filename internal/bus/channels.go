package bus

// Channel names. Every name listed here must also appear in the wiring
// manifest (wiring.json); the conformance gate fails the build when the
// two drift apart.
const (
	// FrameProcessed carries a track.FrameBatch from the sensor adapter,
	// one batch per tick.
	FrameProcessed = "FRAME_PROCESSED"

	// GestureIntent carries a track.Intent committed by the gesture FSM.
	GestureIntent = "GESTURE_INTENT"

	// FilteredPosition carries a track.FilteredPosition from the signal
	// pipeline, one per hand per tick.
	FilteredPosition = "FILTERED_POSITION"

	// ViewportResized carries a pal.Viewport whenever the page bridge
	// reports a new viewport size.
	ViewportResized = "VIEWPORT_RESIZED"

	// PointerDispatched carries a pointer.DispatchRecord for every
	// synthesized cascade. Extension point: observers only.
	PointerDispatched = "POINTER_DISPATCHED"

	// StillnessChanged carries a track.Stillness edge from the stillness
	// monitor. Extension point: observers only.
	StillnessChanged = "STILLNESS_CHANGED"

	// BootComplete fires exactly once per supervisor lifetime, after
	// StartAll succeeds. Oneshot: exempt from unsubscribe symmetry.
	BootComplete = "BOOT_COMPLETE"
)
