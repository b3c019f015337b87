package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptSuspendsWithoutResumeValue(t *testing.T) {
	state := State{}
	_, err := Interrupt(context.Background(), state, "birthdate", "When were you born?")
	require.Error(t, err)

	interrupt, ok := GetInterruptError(err)
	require.True(t, ok)
	assert.Equal(t, "birthdate", interrupt.Key)
	assert.Equal(t, "When were you born?", interrupt.Value)
	assert.True(t, IsInterruptError(err))
}

func TestInterruptReturnsResumeValue(t *testing.T) {
	state := State{StateKeyResume: "1990-01-01"}
	value, err := Interrupt(context.Background(), state, "birthdate", "When were you born?")
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", value)

	// Re-execution of the same site yields the same value.
	again, err := Interrupt(context.Background(), state, "birthdate", "When were you born?")
	require.NoError(t, err)
	assert.Equal(t, "1990-01-01", again)
}

func TestSequentialInterruptsSuspendAgain(t *testing.T) {
	state := State{StateKeyResume: "not-a-date"}

	// The first site consumes the resume value.
	value, err := Interrupt(context.Background(), state, "birthdate", "When were you born?")
	require.NoError(t, err)
	assert.Equal(t, "not-a-date", value)

	// A later site in the same node suspends with a fresh prompt.
	_, err = Interrupt(context.Background(), state, "birthdate_retry", "That is not a date, try again?")
	require.Error(t, err)
	interrupt, ok := GetInterruptError(err)
	require.True(t, ok)
	assert.Equal(t, "That is not a date, try again?", interrupt.Value)
}

func TestResumeValueHelpers(t *testing.T) {
	state := State{StateKeyResume: "yes"}
	assert.True(t, HasResumeValue(state))

	value, ok := ResumeValue[string](state)
	require.True(t, ok)
	assert.Equal(t, "yes", value)
	assert.False(t, HasResumeValue(state))

	state[StateKeyResume] = 42
	_, ok = ResumeValue[string](state)
	assert.False(t, ok, "type mismatch leaves the value in place")

	ClearResumeValues(state)
	assert.False(t, HasResumeValue(state))
}
