package runner

import (
	"fmt"

	"github.com/umputun/livecheck/pkg/catalog"
)

// State is the per-case observation state.
type State string

// case states. Settled, TimedOut and Aborted are terminal.
const (
	StateIdle                State = "idle"
	StateCleared             State = "cleared"
	StateInputInjected       State = "input-injected"
	StateAwaitingConvergence State = "awaiting-convergence"
	StateSettled             State = "settled"
	StateTimedOut            State = "timed-out"
	StateAborted             State = "aborted"
)

// transitions lists allowed next states. AwaitingConvergence -> InputInjected is the
// incremental case, where the remainder is typed after the partial output appeared.
var transitions = map[State][]State{
	StateIdle:                {StateCleared, StateAborted},
	StateCleared:             {StateInputInjected, StateAborted},
	StateInputInjected:       {StateAwaitingConvergence, StateAborted},
	StateAwaitingConvergence: {StateSettled, StateTimedOut, StateInputInjected, StateAborted},
}

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateTimedOut || s == StateAborted
}

// CanTransition reports whether next is reachable from s in one step.
func (s State) CanTransition(next State) bool {
	for _, st := range transitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Observer receives case transitions and verdicts. calls are made from the runner goroutine,
// implementations must not block.
type Observer interface {
	OnTransition(suite string, c catalog.Case, from, to State)
	OnVerdict(v Verdict)
}

// machine tracks one attempt of one case and publishes transitions.
// an invalid transition is recorded and ignored, the attempt reports it as an error.
type machine struct {
	suite     string
	tc        catalog.Case
	state     State
	observers []Observer
	err       error
}

func newMachine(suite string, tc catalog.Case, observers []Observer) *machine {
	return &machine{suite: suite, tc: tc, state: StateIdle, observers: observers}
}

func (m *machine) to(next State) {
	if m.err != nil {
		return
	}
	if !m.state.CanTransition(next) {
		m.err = fmt.Errorf("invalid state transition %s -> %s", m.state, next)
		return
	}
	prev := m.state
	m.state = next
	for _, o := range m.observers {
		o.OnTransition(m.suite, m.tc, prev, next)
	}
}
