package lifecycle

import (
	"errors"
	"testing"
)

func TestLifecycle_HappyPath(t *testing.T) {
	lc := New()

	if lc.State() != StateReceived {
		t.Fatalf("expected RECEIVED, got %s", lc.State())
	}

	steps := []struct {
		advance func() error
		want    State
	}{
		{lc.Validated, StateValidated},
		{lc.Staged, StateStaged},
		{lc.Inferred, StateInferred},
		{lc.Responded, StateResponded},
	}

	for _, step := range steps {
		if err := step.advance(); err != nil {
			t.Fatalf("transition to %s failed: %v", step.want, err)
		}
		if lc.State() != step.want {
			t.Fatalf("expected %s, got %s", step.want, lc.State())
		}
	}

	if !lc.State().IsTerminal() {
		t.Error("RESPONDED should be terminal")
	}
}

func TestLifecycle_OutOfSequence(t *testing.T) {
	lc := New()

	if err := lc.Staged(); !errors.Is(err, ErrOutOfSequence) {
		t.Errorf("expected ErrOutOfSequence staging before validation, got %v", err)
	}
	if err := lc.Inferred(); !errors.Is(err, ErrOutOfSequence) {
		t.Errorf("expected ErrOutOfSequence inferring before staging, got %v", err)
	}
	if lc.State() != StateReceived {
		t.Errorf("failed transitions must not change state, got %s", lc.State())
	}
}

func TestLifecycle_FailFromAnyNonTerminalState(t *testing.T) {
	advance := map[string]func(*Lifecycle){
		"received":  func(lc *Lifecycle) {},
		"validated": func(lc *Lifecycle) { lc.Validated() },
		"staged":    func(lc *Lifecycle) { lc.Validated(); lc.Staged() },
		"inferred":  func(lc *Lifecycle) { lc.Validated(); lc.Staged(); lc.Inferred() },
	}

	for name, setup := range advance {
		t.Run(name, func(t *testing.T) {
			lc := New()
			setup(lc)

			if !lc.Fail() {
				t.Error("Fail should succeed from a non-terminal state")
			}
			if lc.State() != StateFailed {
				t.Errorf("expected FAILED, got %s", lc.State())
			}
		})
	}
}

func TestLifecycle_TerminalIsSticky(t *testing.T) {
	lc := New()
	lc.Fail()

	if lc.Fail() {
		t.Error("Fail on a terminal state should report false")
	}
	if err := lc.Validated(); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
	if lc.State() != StateFailed {
		t.Errorf("terminal state must not change, got %s", lc.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateReceived, "RECEIVED"},
		{StateValidated, "VALIDATED"},
		{StateStaged, "STAGED"},
		{StateInferred, "INFERRED"},
		{StateResponded, "RESPONDED"},
		{StateFailed, "FAILED"},
		{State(42), "UNKNOWN(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}
