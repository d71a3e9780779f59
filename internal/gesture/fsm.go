// Package gesture turns the noisy per-hand classification stream into
// committed intent transitions. It is the single layer that owns intent
// debouncing: no smoothing of raw gesture labels happens upstream of it,
// and duplicating its hysteresis in the sensor adapter is a structural
// defect the conformance gate flags.
package gesture

import (
	"github.com/ayusman/sparsh/internal/track"
)

// State is the per-hand FSM state.
type State int

const (
	// StateIdle: no pinch in sight.
	StateIdle State = iota
	// StateCandidate: a pinch classification has appeared but has not
	// yet persisted long enough to commit.
	StateCandidate
	// StateCommitted: the pinch is a committed intent; the pointer is
	// down.
	StateCommitted
	// StateReleasing: a release classification has appeared but has not
	// yet persisted long enough to release.
	StateReleasing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCandidate:
		return "CANDIDATE"
	case StateCommitted:
		return "COMMITTED"
	case StateReleasing:
		return "RELEASING"
	default:
		return "UNKNOWN"
	}
}

// Config holds the hysteresis tuning. Confidence bounds follow the
// original deployment: a classification engages at ConfHigh and only
// disengages below ConfLow, so a frame hovering between the two never
// flaps the machine.
type Config struct {
	// ConfHigh is the confidence needed for a frame to count toward a
	// commit.
	ConfHigh float64
	// ConfLow is the confidence below which a committed pinch starts
	// releasing.
	ConfLow float64
	// CommitFrames is the number of consecutive qualifying frames before
	// CANDIDATE promotes to COMMITTED.
	CommitFrames int
	// ReleaseFrames is the debounce window before RELEASING settles back
	// to IDLE.
	ReleaseFrames int
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		ConfHigh:      0.64,
		ConfLow:       0.50,
		CommitFrames:  5,
		ReleaseFrames: 3,
	}
}

// handFSM is the state for one tracked hand. Owned exclusively by the
// Tracker; never exposed for external mutation.
type handFSM struct {
	state   State
	counter int
}

// Tracker runs one FSM per active hand id. FSMs are created lazily on
// first sighting and destroyed when the hand is absent from the current
// frame set.
type Tracker struct {
	config Config
	hands  map[string]*handFSM

	// scratch buffers reused across ticks to keep the per-frame path off
	// the heap.
	intents []track.Intent
	seen    map[string]bool
}

// NewTracker creates a Tracker with the given tuning.
func NewTracker(config Config) *Tracker {
	if config.CommitFrames < 1 {
		config.CommitFrames = 1
	}
	if config.ReleaseFrames < 1 {
		config.ReleaseFrames = 1
	}
	return &Tracker{
		config:  config,
		hands:   make(map[string]*handFSM),
		intents: make([]track.Intent, 0, 8),
		seen:    make(map[string]bool, 4),
	}
}

// SetConfig applies new tuning. In-flight counters keep their values;
// the new thresholds apply from the next tick. Frames values below 1
// are clamped as in NewTracker.
func (t *Tracker) SetConfig(config Config) {
	if config.CommitFrames < 1 {
		config.CommitFrames = 1
	}
	if config.ReleaseFrames < 1 {
		config.ReleaseFrames = 1
	}
	t.config = config
}

// StateOf reports the FSM state for a hand id. Hands never seen, or
// already torn down, report IDLE.
func (t *Tracker) StateOf(handID string) State {
	if h, ok := t.hands[handID]; ok {
		return h.state
	}
	return StateIdle
}

// ProcessBatch advances every hand's FSM by one tick and returns the
// committed intent transitions, if any. The returned slice is reused on
// the next call; callers must not retain it across ticks.
func (t *Tracker) ProcessBatch(batch track.FrameBatch) []track.Intent {
	t.intents = t.intents[:0]
	for k := range t.seen {
		delete(t.seen, k)
	}

	for i := range batch.Hands {
		frame := &batch.Hands[i]
		t.seen[frame.HandID] = true

		h, ok := t.hands[frame.HandID]
		if !ok {
			h = &handFSM{state: StateIdle}
			t.hands[frame.HandID] = h
		}
		t.step(h, frame, batch.Tick)
	}

	// Tear down state for hands that left the frame set. A hand that
	// vanishes mid-pinch still owes the fabric a release.
	for id, h := range t.hands {
		if t.seen[id] {
			continue
		}
		if h.state == StateCommitted || h.state == StateReleasing {
			t.emit(id, track.IntentRelease, batch.Tick)
		}
		delete(t.hands, id)
	}

	return t.intents
}

// step advances one hand by one frame.
func (t *Tracker) step(h *handFSM, frame *track.HandFrame, tick uint64) {
	pinching := frame.Label == track.LabelPinch && frame.Confidence >= t.config.ConfHigh
	holding := frame.Label == track.LabelPinch && frame.Confidence >= t.config.ConfLow

	switch h.state {
	case StateIdle:
		if pinching {
			h.state = StateCandidate
			h.counter = 1
			t.maybeCommit(h, frame.HandID, tick)
		}

	case StateCandidate:
		if pinching {
			h.counter++
			t.maybeCommit(h, frame.HandID, tick)
		} else {
			// Dwell decays at twice the accrual rate, so a burst of noise
			// drains faster than it built up.
			h.counter -= 2
			if h.counter <= 0 {
				h.state = StateIdle
				h.counter = 0
			}
		}

	case StateCommitted:
		if holding {
			t.emit(frame.HandID, track.IntentDrag, tick)
		} else {
			h.state = StateReleasing
			h.counter = 1
			if !t.maybeRelease(h, frame.HandID, tick) {
				t.emit(frame.HandID, track.IntentDrag, tick)
			}
		}

	case StateReleasing:
		if pinching {
			// Chatter inside the release window: the pinch never really
			// ended, so return to COMMITTED without a second pinch-start.
			h.state = StateCommitted
			h.counter = 0
			t.emit(frame.HandID, track.IntentDrag, tick)
		} else {
			h.counter++
			if t.maybeRelease(h, frame.HandID, tick) {
				return
			}
			// Pointer is still held while the release debounces.
			t.emit(frame.HandID, track.IntentDrag, tick)
		}
	}
}

// maybeCommit promotes CANDIDATE to COMMITTED once the dwell counter
// reaches the commit threshold, emitting pinch-start exactly once.
func (t *Tracker) maybeCommit(h *handFSM, handID string, tick uint64) {
	if h.counter >= t.config.CommitFrames {
		h.state = StateCommitted
		h.counter = 0
		t.emit(handID, track.IntentPinchStart, tick)
	}
}

// maybeRelease settles RELEASING to IDLE once the debounce window
// elapses, emitting release exactly once.
func (t *Tracker) maybeRelease(h *handFSM, handID string, tick uint64) bool {
	if h.counter >= t.config.ReleaseFrames {
		h.state = StateIdle
		h.counter = 0
		t.emit(handID, track.IntentRelease, tick)
		return true
	}
	return false
}

func (t *Tracker) emit(handID string, kind track.IntentKind, tick uint64) {
	t.intents = append(t.intents, track.Intent{HandID: handID, Kind: kind, Tick: tick})
}
