package checkout

import "fmt"

// State is the position of a checkout attempt.
type State string

const (
	StateIdle             State = "IDLE"
	StateReady            State = "READY"
	StateDirectSubmitting State = "DIRECT_SUBMITTING"
	StateRedirecting      State = "REDIRECTING"
	StateReconciling      State = "RECONCILING"
	StateDone             State = "DONE"
)

// A fresh Orchestrator starts in StateIdle even when the buyer is returning from the
// payment page, so reconciliation and cancellation are reachable from Idle.
var transitions = map[State][]State{
	StateIdle:             {StateReady, StateReconciling},
	StateReady:            {StateReady, StateDirectSubmitting, StateRedirecting, StateReconciling},
	StateDirectSubmitting: {StateDone, StateReady},
	StateRedirecting:      {StateReconciling, StateReady},
	StateReconciling:      {StateDone, StateReady},
	StateDone:             {StateIdle},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has produced an order.
func (s State) IsTerminal() bool {
	return s == StateDone
}

func (s State) String() string {
	return string(s)
}

type transitionError struct {
	from, to State
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("checkout cannot move from %s to %s", e.from, e.to)
}

func (e *transitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the message shown to the buyer after a checkout step.
type Notice struct {
	Level   Level
	Message string
}

func info(msg string) Notice    { return Notice{Level: LevelInfo, Message: msg} }
func success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }
func warning(msg string) Notice { return Notice{Level: LevelWarning, Message: msg} }
func failure(msg string) Notice { return Notice{Level: LevelError, Message: msg} }
