// Package trace records a session's bus traffic to the SQLite store:
// frame batches, committed intents and dispatched cascades. Recorded
// sessions feed the replay tool.
package trace

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/pal"
	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/store"
	"github.com/ayusman/sparsh/internal/track"
)

// Trace is the session recorder plugin.
type Trace struct {
	store   *store.Store
	plugins []string

	bus       *bus.Bus
	pal       *pal.PAL
	sessionID string

	unsubFrames   bus.UnsubscribeFunc
	unsubIntents  bus.UnsubscribeFunc
	unsubDispatch bus.UnsubscribeFunc
}

// New returns the recorder. The plugin list is recorded with each
// session so a replay knows what was running.
func New(st *store.Store, plugins []string) *Trace {
	return &Trace{store: st, plugins: plugins}
}

// SessionID returns the id of the running recording, or "" when
// stopped.
func (p *Trace) SessionID() string { return p.sessionID }

// Name implements kernel.Plugin.
func (p *Trace) Name() string { return "trace" }

// Init implements kernel.Plugin.
func (p *Trace) Init(ctx *kernel.Context) error {
	p.bus = ctx.Bus
	p.pal = ctx.PAL
	ctx.Bus.Subscribe(bus.BootComplete, p.onBoot)
	return nil
}

// Start implements kernel.Plugin. Each start opens a fresh session,
// stamped with the current sensor tick from the host clock.
func (p *Trace) Start() error {
	clock, err := pal.As[pal.TickSource](p.pal, pal.KeyClock)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	p.sessionID = uuid.NewString()
	if err := p.store.Sessions().Begin(p.sessionID, p.plugins, clock()); err != nil {
		return fmt.Errorf("trace: begin session: %w", err)
	}
	p.unsubFrames = p.bus.Subscribe(bus.FrameProcessed, p.onFrames)
	p.unsubIntents = p.bus.Subscribe(bus.GestureIntent, p.onIntent)
	p.unsubDispatch = p.bus.Subscribe(bus.PointerDispatched, p.onDispatch)
	return nil
}

// Stop implements kernel.Plugin.
func (p *Trace) Stop() error {
	for _, unsub := range []bus.UnsubscribeFunc{p.unsubFrames, p.unsubIntents, p.unsubDispatch} {
		if unsub != nil {
			unsub()
		}
	}
	p.unsubFrames, p.unsubIntents, p.unsubDispatch = nil, nil, nil

	if p.sessionID == "" {
		return nil
	}
	err := p.store.Sessions().End(p.sessionID)
	p.sessionID = ""
	if err != nil {
		return fmt.Errorf("trace: end session: %w", err)
	}
	return nil
}

// Destroy implements kernel.Plugin.
func (p *Trace) Destroy() error {
	p.bus = nil
	p.pal = nil
	return nil
}

func (p *Trace) onBoot(any) {
	log.Printf("trace: recording session %s", p.sessionID)
}

func (p *Trace) onFrames(payload any) {
	batch, ok := payload.(track.FrameBatch)
	if !ok {
		return
	}
	if err := p.store.Traces().AddFrames(p.sessionID, batch); err != nil {
		log.Printf("trace: record frames: %v", err)
	}
}

func (p *Trace) onIntent(payload any) {
	intent, ok := payload.(track.Intent)
	if !ok {
		return
	}
	if err := p.store.Traces().AddIntent(p.sessionID, intent); err != nil {
		log.Printf("trace: record intent: %v", err)
	}
}

func (p *Trace) onDispatch(payload any) {
	rec, ok := payload.(pointer.DispatchRecord)
	if !ok {
		return
	}
	if err := p.store.Traces().AddDispatch(p.sessionID, rec); err != nil {
		log.Printf("trace: record dispatch: %v", err)
	}
}
