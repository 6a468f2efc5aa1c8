package web

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livecheck/pkg/progress"
	"github.com/umputun/livecheck/pkg/runner"
)

func TestNewBuffer(t *testing.T) {
	t.Run("uses default size when zero", func(t *testing.T) {
		b := NewBuffer(0)
		assert.Equal(t, DefaultBufferSize, b.maxSize)
	})

	t.Run("uses default size when negative", func(t *testing.T) {
		b := NewBuffer(-1)
		assert.Equal(t, DefaultBufferSize, b.maxSize)
	})

	t.Run("uses specified size", func(t *testing.T) {
		b := NewBuffer(100)
		assert.Equal(t, 100, b.maxSize)
	})
}

func TestBuffer_Add(t *testing.T) {
	t.Run("adds events", func(t *testing.T) {
		b := NewBuffer(10)
		b.Add(NewOutputEvent(progress.PhaseCase, "first"))
		b.Add(NewOutputEvent(progress.PhaseCase, "second"))
		assert.Equal(t, 2, b.Count())
	})

	t.Run("overwrites oldest when full", func(t *testing.T) {
		b := NewBuffer(3)
		for _, s := range []string{"first", "second", "third", "fourth"} {
			b.Add(NewOutputEvent(progress.PhaseCase, s))
		}

		events := b.All()
		require.Len(t, events, 3)
		assert.Equal(t, "second", events[0].Text)
		assert.Equal(t, "third", events[1].Text)
		assert.Equal(t, "fourth", events[2].Text)
	})
}

func TestBuffer_All(t *testing.T) {
	t.Run("returns nil for empty buffer", func(t *testing.T) {
		assert.Nil(t, NewBuffer(10).All())
	})

	t.Run("returns events in order after wrap", func(t *testing.T) {
		b := NewBuffer(3)
		for i := range 5 {
			b.Add(NewOutputEvent(progress.PhaseCase, string(rune('A'+i))))
		}

		events := b.All()
		require.Len(t, events, 3)
		assert.Equal(t, "C", events[0].Text)
		assert.Equal(t, "D", events[1].Text)
		assert.Equal(t, "E", events[2].Text)
	})
}

func TestBuffer_ByType(t *testing.T) {
	t.Run("returns nil for missing type", func(t *testing.T) {
		assert.Nil(t, NewBuffer(10).ByType(EventTypeVerdict))
	})

	t.Run("filters by type", func(t *testing.T) {
		b := NewBuffer(10)
		b.Add(NewOutputEvent(progress.PhaseCase, "out1"))
		b.Add(NewVerdictEvent(runner.Verdict{CaseID: "Pos_Fun_001", Outcome: runner.OutcomePass}))
		b.Add(NewWarnEvent(progress.PhaseCase, "slow"))
		b.Add(NewVerdictEvent(runner.Verdict{CaseID: "Pos_Fun_002", Outcome: runner.OutcomeMismatch}))

		verdicts := b.ByType(EventTypeVerdict)
		require.Len(t, verdicts, 2)
		assert.Equal(t, "Pos_Fun_001", verdicts[0].CaseID)
		assert.Equal(t, "Pos_Fun_002", verdicts[1].CaseID)

		warns := b.ByType(EventTypeWarn)
		require.Len(t, warns, 1)
		assert.Equal(t, "slow", warns[0].Text)
	})

	t.Run("handles type after wrap", func(t *testing.T) {
		b := NewBuffer(4)
		b.Add(NewOutputEvent(progress.PhaseCase, "out1"))
		b.Add(NewWarnEvent(progress.PhaseCase, "warn1"))
		b.Add(NewOutputEvent(progress.PhaseCase, "out2"))
		b.Add(NewWarnEvent(progress.PhaseCase, "warn2"))
		b.Add(NewOutputEvent(progress.PhaseCase, "out3")) // overwrites out1

		outs := b.ByType(EventTypeOutput)
		require.Len(t, outs, 2)
		assert.Equal(t, "out2", outs[0].Text)
		assert.Equal(t, "out3", outs[1].Text)
	})

	t.Run("index cleaned when last event of a type is overwritten", func(t *testing.T) {
		b := NewBuffer(2)
		b.Add(NewOutputEvent(progress.PhaseCase, "out1"))
		b.Add(NewWarnEvent(progress.PhaseCase, "warn1"))
		b.Add(NewErrorEvent(progress.PhaseCase, "err1"))

		assert.Empty(t, b.ByType(EventTypeOutput))
		_, ok := b.typeIndex[EventTypeOutput]
		assert.False(t, ok)
	})
}

func TestBuffer_Count(t *testing.T) {
	b := NewBuffer(3)
	assert.Equal(t, 0, b.Count())
	for range 10 {
		b.Add(NewOutputEvent(progress.PhaseCase, "event"))
	}
	assert.Equal(t, 3, b.Count())
}

func TestBuffer_Clear(t *testing.T) {
	b := NewBuffer(10)
	b.Add(NewOutputEvent(progress.PhaseCase, "one"))
	b.Add(NewOutputEvent(progress.PhaseCase, "two"))

	b.Clear()

	assert.Equal(t, 0, b.Count())
	assert.Nil(t, b.All())
	assert.Nil(t, b.ByType(EventTypeOutput))
}

func TestBuffer_Concurrency(t *testing.T) {
	b := NewBuffer(100)
	var wg sync.WaitGroup

	for range 10 {
		wg.Go(func() {
			for range 100 {
				b.Add(NewOutputEvent(progress.PhaseCase, "event"))
			}
		})
	}
	for range 5 {
		wg.Go(func() {
			for range 50 {
				_ = b.All()
				_ = b.ByType(EventTypeOutput)
				_ = b.Count()
			}
		})
	}
	wg.Wait()

	count := b.Count()
	assert.Positive(t, count)
	assert.LessOrEqual(t, count, 100)
}
