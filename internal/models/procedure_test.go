package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ProcedureState
		allowed  bool
	}{
		{ProcedureScheduled, ProcedureInProgress, true},
		{ProcedureScheduled, ProcedureCompleted, true},
		{ProcedureScheduled, ProcedureCancelled, true},
		{ProcedureScheduled, ProcedureDeferred, true},
		{ProcedureScheduled, ProcedureScheduled, true},

		{ProcedureInProgress, ProcedureCompleted, true},
		{ProcedureInProgress, ProcedureCancelled, true},
		{ProcedureInProgress, ProcedureDeferred, true},
		{ProcedureInProgress, ProcedureInProgress, false},

		{ProcedureDeferred, ProcedureScheduled, true},
		{ProcedureDeferred, ProcedureInProgress, true},
		{ProcedureDeferred, ProcedureCancelled, true},
		{ProcedureDeferred, ProcedureDeferred, true},

		{ProcedureCompleted, ProcedureScheduled, false},
		{ProcedureCompleted, ProcedureInProgress, false},
		{ProcedureCompleted, ProcedureCancelled, false},
		{ProcedureCompleted, ProcedureDeferred, false},

		{ProcedureCancelled, ProcedureScheduled, false},
		{ProcedureCancelled, ProcedureInProgress, false},
		{ProcedureCancelled, ProcedureCompleted, false},
		{ProcedureCancelled, ProcedureDeferred, false},
		{ProcedureCancelled, ProcedureCancelled, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to),
			"transition %s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, ProcedureCompleted.IsTerminal())
	assert.True(t, ProcedureCancelled.IsTerminal())
	assert.False(t, ProcedureScheduled.IsTerminal())
	assert.False(t, ProcedureInProgress.IsTerminal())
	assert.False(t, ProcedureDeferred.IsTerminal())
}

func TestIsActiveBooking(t *testing.T) {
	for state, active := range map[ProcedureState]bool{
		ProcedureScheduled:  true,
		ProcedureInProgress: true,
		ProcedureCompleted:  false,
		ProcedureCancelled:  false,
		ProcedureDeferred:   false,
	} {
		p := Procedure{State: state}
		assert.Equal(t, active, p.IsActiveBooking(), "state %s", state)
	}
}
