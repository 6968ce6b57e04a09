package mainthread

import (
	"sync/atomic"
)

// State represents the lifecycle state of a [Loop].
//
// State Machine:
//
//	StateNew (0) → StateRunning (1)       [Run()]
//	StateNew (0) → StateStopping (2)      [Shutdown() before Run()]
//	StateRunning (1) → StateStopping (2)  [stop signal executed on the loop]
//	StateStopping (2) → StateStopped (3)  [final drain complete]
//	StateStopped (3) → (terminal)
//
// Transition Rules:
//   - Use tryTransition (CAS) for contended transitions (New→Running, Running→Stopping).
//   - Use store only for the irreversible terminal state (Stopped).
type State uint32

const (
	// StateNew indicates the loop has been created but not started.
	// Submitted work is buffered until Run drains it.
	StateNew State = iota
	// StateRunning indicates the loop is draining its queue.
	StateRunning
	// StateStopping indicates stop has been observed on the loop goroutine;
	// work already accepted still runs, new submissions are rejected.
	StateStopping
	// StateStopped indicates the loop has fully stopped. Terminal.
	StateStopped
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// loopState is a lock-free state machine over [State] values.
//
// Loads are a single atomic read so hot paths (submission checks) stay
// lock-free; transitions into contended states go through CAS.
type loopState struct {
	v atomic.Uint32
}

// Load returns the current state atomically.
func (s *loopState) Load() State {
	return State(s.v.Load())
}

// Store atomically stores a new state. No transition validation.
func (s *loopState) Store(state State) {
	s.v.Store(uint32(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
func (s *loopState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// CanAcceptWork returns true if the loop can accept new submissions.
func (s *loopState) CanAcceptWork() bool {
	state := s.Load()
	return state == StateNew || state == StateRunning
}
