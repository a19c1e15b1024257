package notifier

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MoveSentinel/internal/model"
)

// countingSeq yields events forever and records how many were pulled.
func countingSeq(pulled *int) iter.Seq2[model.ChangeEvent, error] {
	return func(yield func(model.ChangeEvent, error) bool) {
		for {
			*pulled++
			if !yield(model.ChangeEvent{Magnitude: float64(*pulled)}, nil) {
				return
			}
		}
	}
}

func TestFirstN_StopsPulling(t *testing.T) {
	var pulled int
	events, err := FirstN(countingSeq(&pulled), 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, 3, pulled)
	assert.Equal(t, 3.0, events[2].Magnitude)
}

func TestFirstN_NonPositive(t *testing.T) {
	var pulled int
	events, err := FirstN(countingSeq(&pulled), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, pulled)
}

func TestFirstN_ShortSequence(t *testing.T) {
	seq := func(yield func(model.ChangeEvent, error) bool) {
		yield(model.ChangeEvent{Magnitude: 7}, nil)
	}
	events, err := FirstN(seq, 5)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFirstN_Error(t *testing.T) {
	boom := errors.New("boom")
	seq := func(yield func(model.ChangeEvent, error) bool) {
		if !yield(model.ChangeEvent{Magnitude: 4}, nil) {
			return
		}
		yield(model.ChangeEvent{}, boom)
	}
	events, err := FirstN(seq, 5)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, events, 1)
}
