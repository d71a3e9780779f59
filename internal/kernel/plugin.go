// Package kernel owns plugin registration and the boot/lifecycle state
// machine. A Supervisor composes one event bus and one PAL into a
// per-plugin Context; neither is ever a package-level singleton, so two
// supervisors in the same process never observe each other's events.
package kernel

import (
	"fmt"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/pal"
)

// Plugin is the tagged capability contract every plugin implements. All
// four lifecycle methods are mandatory; duck typing is deliberately not
// supported so the conformance gate's registered-or-deferred check is a
// compile-time-checkable invariant.
//
// Lifecycle: registered → initialized → started → stopped → destroyed,
// monotonic except the stopped → started restart edge. A plugin that
// subscribes in Init or Start must keep the returned unsubscribe funcs
// in fields and call them in Stop or Destroy, so restart re-subscribes
// with a stable listener identity.
type Plugin interface {
	Name() string
	Init(ctx *Context) error
	Start() error
	Stop() error
	Destroy() error
}

// Context is the capability bundle handed to exactly one plugin at Init.
// It is immutable by convention: the Supervisor exclusively owns its
// construction and a plugin never builds its own.
type Context struct {
	Bus *bus.Bus
	PAL *pal.PAL
}

// State is a plugin's position in the lifecycle.
type State int

const (
	StateRegistered State = iota
	StateInitialized
	StateStarted
	StateStopped
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BootError is the structured fatal diagnostic raised when a plugin
// fails during init or start. It carries everything a collaborator needs
// to surface the failure: the plugin's name, the boot phase, the
// original error, and the stack at the point of failure. Presentation is
// someone else's concern; completeness is ours.
type BootError struct {
	Plugin string
	Phase  string
	Err    error
	Stack  []byte
}

func (e *BootError) Error() string {
	return fmt.Sprintf("kernel: plugin %q failed during %s: %v", e.Plugin, e.Phase, e.Err)
}

func (e *BootError) Unwrap() error { return e.Err }
