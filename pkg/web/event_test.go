package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/runner"
)

func TestNewOutputEvent(t *testing.T) {
	before := time.Now()
	e := NewOutputEvent(progress.PhaseCase, "test message")
	after := time.Now()

	assert.Equal(t, EventTypeOutput, e.Type)
	assert.Equal(t, progress.PhaseCase, e.Phase)
	assert.Equal(t, "test message", e.Text)
	assert.False(t, e.Timestamp.Before(before))
	assert.False(t, e.Timestamp.After(after))
}

func TestNewTransitionEvent(t *testing.T) {
	e := NewTransitionEvent("transliteration", "Pos_Fun_001", runner.StateIdle, runner.StateCleared)

	assert.Equal(t, EventTypeTransition, e.Type)
	assert.Equal(t, "transliteration", e.Suite)
	assert.Equal(t, "Pos_Fun_001", e.CaseID)
	assert.Equal(t, runner.StateIdle, e.From)
	assert.Equal(t, runner.StateCleared, e.To)
	assert.Equal(t, "Pos_Fun_001: idle -> cleared", e.Text)
}

func TestNewVerdictEvent(t *testing.T) {
	t.Run("pass", func(t *testing.T) {
		e := NewVerdictEvent(runner.Verdict{Suite: "s", CaseID: "Pos_Fun_001", Outcome: runner.OutcomePass})
		assert.Equal(t, EventTypeVerdict, e.Type)
		assert.Equal(t, progress.PhasePass, e.Phase)
		assert.Equal(t, "Pos_Fun_001 pass", e.Text)
		require.NotNil(t, e.Verdict)
		assert.Equal(t, "s", e.Verdict.Suite)
	})

	t.Run("fail", func(t *testing.T) {
		e := NewVerdictEvent(runner.Verdict{CaseID: "Neg_Fun_002", Outcome: runner.OutcomeTimeout})
		assert.Equal(t, progress.PhaseFail, e.Phase)
		assert.Equal(t, "Neg_Fun_002 timeout", e.Text)
	})
}

func TestNewReportEvent(t *testing.T) {
	rep := runner.Report{RunID: "run-1", Suites: []runner.SuiteResult{{Passed: 3, Failed: 1}, {Passed: 2}}}
	e := NewReportEvent(rep)

	assert.Equal(t, EventTypeReport, e.Type)
	assert.Equal(t, progress.PhaseSummary, e.Phase)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, 5, e.Passed)
	assert.Equal(t, 1, e.Failed)
	assert.Equal(t, "5 passed, 1 failed", e.Text)
}

func TestEvent_JSON(t *testing.T) {
	t.Run("output event", func(t *testing.T) {
		data, err := NewOutputEvent(progress.PhaseCase, "hello").JSON()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "output", decoded["type"])
		assert.Equal(t, "case", decoded["phase"])
		assert.Equal(t, "hello", decoded["text"])
		_, hasVerdict := decoded["verdict"]
		assert.False(t, hasVerdict, "verdict should be omitted when nil")
		_, hasFrom := decoded["from"]
		assert.False(t, hasFrom, "from should be omitted when empty")
	})

	t.Run("verdict event carries the verdict", func(t *testing.T) {
		v := runner.Verdict{CaseID: "Pos_Fun_001", Outcome: runner.OutcomeMismatch, Diff: "-a\n+b"}
		data, err := NewVerdictEvent(v).JSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"case_id":"Pos_Fun_001"`)
		assert.Contains(t, string(data), `"outcome":"mismatch"`)
	})
}

func TestEvent_ToSSEMessage(t *testing.T) {
	t.Run("typeless message with json payload", func(t *testing.T) {
		msg := NewOutputEvent(progress.PhaseCase, "test message").ToSSEMessage()

		// no SSE event type set, onmessage only catches typeless events
		assert.Empty(t, msg.Type.String())

		data, err := msg.MarshalText()
		require.NoError(t, err)
		assert.Contains(t, string(data), "test message")
		assert.Contains(t, string(data), `"type":"output"`)
	})

	t.Run("transition event", func(t *testing.T) {
		msg := NewTransitionEvent("s", "X", runner.StateCleared, runner.StateInputInjected).ToSSEMessage()

		data, err := msg.MarshalText()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"type":"transition"`)
		assert.Contains(t, string(data), `"to":"input-injected"`)
	})
}
