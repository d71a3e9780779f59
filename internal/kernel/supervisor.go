package kernel

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/pal"
)

// BootInfo is the BOOT_COMPLETE payload: the registered plugin names in
// boot order.
type BootInfo struct {
	Plugins []string
}

type entry struct {
	plugin Plugin
	state  State
	ctx    *Context
}

// Supervisor sequences plugin lifecycles strictly: no two plugins boot
// concurrently, so capability registration never races. Each Supervisor
// constructs and owns exactly one Bus and one PAL.
type Supervisor struct {
	bus     *bus.Bus
	pal     *pal.PAL
	entries []*entry
	booted  bool

	bootAnnounced bool
}

// NewSupervisor creates a Supervisor with a fresh, isolated bus and PAL.
func NewSupervisor() *Supervisor {
	b := bus.New()
	return &Supervisor{
		bus: b,
		pal: pal.New(b),
	}
}

// Bus returns the supervisor-owned event bus, for bootstrap wiring of
// host-boundary adapters. Plugins receive it through their Context.
func (s *Supervisor) Bus() *bus.Bus { return s.bus }

// PAL returns the supervisor-owned platform abstraction layer, for
// bootstrap capability seeding.
func (s *Supervisor) PAL() *pal.PAL { return s.pal }

// Register adds a plugin in registered state. Registration is rejected
// after InitAll has run and for duplicate names.
func (s *Supervisor) Register(p Plugin) error {
	if s.booted {
		return fmt.Errorf("kernel: cannot register %q after boot", p.Name())
	}
	for _, e := range s.entries {
		if e.plugin.Name() == p.Name() {
			return fmt.Errorf("kernel: plugin %q already registered", p.Name())
		}
	}
	s.entries = append(s.entries, &entry{plugin: p, state: StateRegistered})
	return nil
}

// InitAll initializes every registered plugin in registration order,
// handing each its own Context. The first failure aborts the remaining
// sequence and returns a BootError; already-initialized plugins are left
// as-is for the caller to destroy.
func (s *Supervisor) InitAll() error {
	s.booted = true
	for _, e := range s.entries {
		if e.state != StateRegistered {
			continue
		}
		e.ctx = &Context{Bus: s.bus, PAL: s.pal}
		if err := s.runPhase(e.plugin, "init", func() error { return e.plugin.Init(e.ctx) }); err != nil {
			return err
		}
		e.state = StateInitialized
	}
	return nil
}

// StartAll starts every initialized (or stopped, on restart) plugin in
// order. On success it publishes BOOT_COMPLETE exactly once per
// supervisor lifetime. The first failure aborts the boot sequence with a
// BootError.
func (s *Supervisor) StartAll() error {
	startedAny := false
	for _, e := range s.entries {
		if e.state != StateInitialized && e.state != StateStopped {
			continue
		}
		if err := s.runPhase(e.plugin, "start", e.plugin.Start); err != nil {
			return err
		}
		e.state = StateStarted
		startedAny = true
	}
	if startedAny && !s.bootAnnounced {
		s.bootAnnounced = true
		names := make([]string, 0, len(s.entries))
		for _, e := range s.entries {
			names = append(names, e.plugin.Name())
		}
		s.bus.Publish(bus.BootComplete, BootInfo{Plugins: names})
	}
	return nil
}

// StopAll stops every started plugin in reverse registration order,
// terminating their subscriptions deterministically. All plugins are
// attempted; errors are joined.
func (s *Supervisor) StopAll() error {
	var errs []error
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.state != StateStarted {
			continue
		}
		if err := e.plugin.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("kernel: stop %q: %w", e.plugin.Name(), err))
		}
		e.state = StateStopped
	}
	return errors.Join(errs...)
}

// DestroyAll stops anything still running, destroys every plugin in
// reverse order, then tears down the PAL. After DestroyAll the
// supervisor is spent.
func (s *Supervisor) DestroyAll() error {
	var errs []error
	if err := s.StopAll(); err != nil {
		errs = append(errs, err)
	}
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.state == StateDestroyed || e.state == StateRegistered {
			e.state = StateDestroyed
			continue
		}
		if err := e.plugin.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("kernel: destroy %q: %w", e.plugin.Name(), err))
		}
		e.state = StateDestroyed
	}
	s.pal.Destroy()
	return errors.Join(errs...)
}

// StateOf reports the lifecycle state of a registered plugin.
func (s *Supervisor) StateOf(name string) (State, bool) {
	for _, e := range s.entries {
		if e.plugin.Name() == name {
			return e.state, true
		}
	}
	return 0, false
}

// runPhase executes one lifecycle phase, converting both returned errors
// and panics into a BootError with the failing plugin's name and stack.
func (s *Supervisor) runPhase(p Plugin, phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &BootError{
				Plugin: p.Name(),
				Phase:  phase,
				Err:    fmt.Errorf("panic: %v", r),
				Stack:  debug.Stack(),
			}
		}
	}()
	if ferr := fn(); ferr != nil {
		return &BootError{
			Plugin: p.Name(),
			Phase:  phase,
			Err:    ferr,
			Stack:  debug.Stack(),
		}
	}
	return nil
}
