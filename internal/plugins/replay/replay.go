// Package replay feeds a recorded session's frame batches back onto the
// bus. It is a diagnostics tool: with the sensor adapter left out of
// the boot, a replay drives the whole pipeline from stored data so a
// mis-dispatch can be reproduced without a camera in the loop.
package replay

import (
	"fmt"
	"log"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/store"
)

// Replay replays one recorded session.
type Replay struct {
	store     *store.Store
	sessionID string
	bus       *bus.Bus
}

// New returns a replay of the given session.
func New(st *store.Store, sessionID string) *Replay {
	return &Replay{store: st, sessionID: sessionID}
}

// Name implements kernel.Plugin.
func (r *Replay) Name() string { return "replay" }

// Init implements kernel.Plugin.
func (r *Replay) Init(ctx *kernel.Context) error {
	if _, err := r.store.Sessions().Get(r.sessionID); err != nil {
		return fmt.Errorf("replay: session %s: %w", r.sessionID, err)
	}
	r.bus = ctx.Bus
	return nil
}

// Start implements kernel.Plugin. It replays the whole session
// synchronously: every stored batch is published in tick order before
// Start returns, so by the time the supervisor announces boot the
// pipeline has already reproduced the run.
func (r *Replay) Start() error {
	batches, err := r.store.Traces().Frames(r.sessionID)
	if err != nil {
		return fmt.Errorf("replay: read session %s: %w", r.sessionID, err)
	}
	for _, batch := range batches {
		r.bus.Publish(bus.FrameProcessed, batch)
	}
	log.Printf("replay: session %s, %d batches", r.sessionID, len(batches))
	return nil
}

// Stop implements kernel.Plugin.
func (r *Replay) Stop() error { return nil }

// Destroy implements kernel.Plugin.
func (r *Replay) Destroy() error {
	r.bus = nil
	return nil
}
