package checkout_test

import (
	"testing"

	"github.com/Kariqs/artcorner-api/checkout"
	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to checkout.State
		allowed  bool
	}{
		{checkout.StateIdle, checkout.StateReady, true},
		{checkout.StateIdle, checkout.StateReconciling, true},
		{checkout.StateIdle, checkout.StateDirectSubmitting, false},
		{checkout.StateIdle, checkout.StateDone, false},
		{checkout.StateReady, checkout.StateDirectSubmitting, true},
		{checkout.StateReady, checkout.StateRedirecting, true},
		{checkout.StateReady, checkout.StateDone, false},
		{checkout.StateDirectSubmitting, checkout.StateDone, true},
		{checkout.StateDirectSubmitting, checkout.StateReady, true},
		{checkout.StateDirectSubmitting, checkout.StateRedirecting, false},
		{checkout.StateRedirecting, checkout.StateReconciling, true},
		{checkout.StateRedirecting, checkout.StateReady, true},
		{checkout.StateRedirecting, checkout.StateDone, false},
		{checkout.StateReconciling, checkout.StateDone, true},
		{checkout.StateReconciling, checkout.StateReady, true},
		{checkout.StateDone, checkout.StateIdle, true},
		{checkout.StateDone, checkout.StateReady, false},
		{checkout.StateDone, checkout.StateReconciling, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOnlyDoneIsTerminal(t *testing.T) {
	for _, s := range []checkout.State{
		checkout.StateIdle, checkout.StateReady, checkout.StateDirectSubmitting,
		checkout.StateRedirecting, checkout.StateReconciling,
	} {
		assert.False(t, s.IsTerminal(), s.String())
	}
	assert.True(t, checkout.StateDone.IsTerminal())
}
