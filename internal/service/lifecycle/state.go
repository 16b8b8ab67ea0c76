// Package lifecycle tracks the per-request transcription state machine.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
)

// State is a stage of one request's handling.
type State int

const (
	// StateReceived - request accepted, nothing validated yet.
	StateReceived State = iota
	// StateValidated - inputs checked, no filesystem work done.
	StateValidated
	// StateStaged - audio written to a transient file.
	StateStaged
	// StateInferred - engine returned successfully.
	StateInferred
	// StateResponded - success payload written. Terminal.
	StateResponded
	// StateFailed - terminal failure; reachable from any non-terminal
	// state. Staged-file cleanup still runs after this.
	StateFailed
)

// String returns the wire/log representation of the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateValidated:
		return "VALIDATED"
	case StateStaged:
		return "STAGED"
	case StateInferred:
		return "INFERRED"
	case StateResponded:
		return "RESPONDED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true for RESPONDED and FAILED.
func (s State) IsTerminal() bool {
	return s == StateResponded || s == StateFailed
}

// Errors for invalid transitions.
var (
	ErrTerminal      = errors.New("request is in a terminal state")
	ErrOutOfSequence = errors.New("transition out of sequence")
)

// Lifecycle is the state machine for a single request. Thread-safe.
//
// Transitions:
//
//	RECEIVED → VALIDATED → STAGED → INFERRED → RESPONDED
//	    │          │          │         │
//	    └──────────┴──────────┴─────────┴──→ FAILED
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// New creates a lifecycle in RECEIVED state.
func New() *Lifecycle {
	return &Lifecycle{state: StateReceived}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// advance moves to next if the current state equals from.
func (l *Lifecycle) advance(from, next State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, l.state)
	}
	if l.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrOutOfSequence, l.state, next)
	}
	l.state = next
	return nil
}

// Validated marks input validation complete.
func (l *Lifecycle) Validated() error {
	return l.advance(StateReceived, StateValidated)
}

// Staged marks the audio written to its transient file.
func (l *Lifecycle) Staged() error {
	return l.advance(StateValidated, StateStaged)
}

// Inferred marks a successful engine return.
func (l *Lifecycle) Inferred() error {
	return l.advance(StateStaged, StateInferred)
}

// Responded marks the success payload written. Terminal.
func (l *Lifecycle) Responded() error {
	return l.advance(StateInferred, StateResponded)
}

// Fail moves to FAILED from any non-terminal state. Returns false if the
// request was already terminal.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.IsTerminal() {
		return false
	}
	l.state = StateFailed
	return true
}
