package component

import (
	"context"
	"time"
)

// State tracks where a component sits in its lifecycle. A component moves
// forward through Created, Initialized, Started and Stopped; Failed can be
// entered from any of them when a lifecycle call returns an error.
type State int

const (
	StateCreated State = iota // constructed, Initialize not yet called
	StateInitialized          // resources allocated, not yet running
	StateStarted              // running and processing data
	StateStopped              // shut down cleanly
	StateFailed               // a lifecycle operation returned an error
)

var stateNames = map[State]string{
	StateCreated:     "created",
	StateInitialized: "initialized",
	StateStarted:     "started",
	StateStopped:     "stopped",
	StateFailed:      "failed",
}

func (cs State) String() string {
	if name, ok := stateNames[cs]; ok {
		return name
	}
	return "unknown"
}

// LifecycleComponent is implemented by components the runner can manage:
// Initialize allocates resources without doing any I/O, Start begins
// processing under the given context, and Stop shuts down within the
// timeout. Implementations must not hold on to the Start context; the
// caller owns cancellation so it can control shutdown ordering across
// the bridge and its sinks.
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

// IsLifecycleComponent reports whether comp supports lifecycle management.
func IsLifecycleComponent(comp Discoverable) bool {
	_, ok := comp.(LifecycleComponent)
	return ok
}

// AsLifecycleComponent casts comp to LifecycleComponent if it implements it.
func AsLifecycleComponent(comp Discoverable) (LifecycleComponent, bool) {
	lc, ok := comp.(LifecycleComponent)
	return lc, ok
}
