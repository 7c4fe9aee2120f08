package session

import "go.uber.org/atomic"

// State is the lifecycle state of a session.
type State int32

const (
	// Uninitialized sessions have not started acquiring resources.
	Uninitialized State = iota
	// Starting sessions are acquiring the capture context and streams.
	Starting
	// Running sessions are pumping frames.
	Running
	// Erroring sessions failed to start or stopped pumping after a capture failure. They never go
	// back to Running.
	Erroring
	// Stopping sessions are tearing down.
	Stopping
	// Terminated sessions have released everything and their worker has exited.
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Erroring:
		return "erroring"
	case Stopping:
		return "stopping"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type atomicState struct {
	v atomic.Int32
}

func (a *atomicState) Load() State {
	return State(a.v.Load())
}

// advance moves to next unless the current state is already at or past it. Stopping and
// Terminated always win over Running and Erroring.
func (a *atomicState) advance(next State) bool {
	for {
		cur := a.v.Load()
		if State(cur) >= next {
			return false
		}
		if a.v.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}
