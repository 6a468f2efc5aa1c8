package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livecheck/pkg/catalog"
)

func TestState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StateCleared, true},
		{StateIdle, StateInputInjected, false},
		{StateCleared, StateInputInjected, true},
		{StateInputInjected, StateAwaitingConvergence, true},
		{StateAwaitingConvergence, StateSettled, true},
		{StateAwaitingConvergence, StateTimedOut, true},
		{StateAwaitingConvergence, StateInputInjected, true},
		{StateAwaitingConvergence, StateCleared, false},
		{StateSettled, StateIdle, false},
		{StateTimedOut, StateSettled, false},
		{StateAborted, StateCleared, false},
		{StateCleared, StateAborted, true},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	for _, s := range []State{StateSettled, StateTimedOut, StateAborted} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateIdle, StateCleared, StateInputInjected, StateAwaitingConvergence} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestMachine_invalidTransition(t *testing.T) {
	rec := &recorder{}
	m := newMachine("s", catalog.Case{ID: "X"}, []Observer{rec})

	m.to(StateCleared)
	m.to(StateSettled) // not allowed from cleared
	m.to(StateInputInjected)

	require.EqualError(t, m.err, "invalid state transition cleared -> settled")
	assert.Equal(t, StateCleared, m.state, "transitions after an invalid one are ignored")
	assert.Equal(t, []string{"s/X: idle->cleared"}, rec.transitions)
}
