package checkout

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition is returned when a flow is driven out of order.
var ErrInvalidStateTransition = errors.New("checkout: invalid state transition")

type State string

const (
	StateIdle                  State = "idle"
	StateOrderRequested        State = "order_requested"
	StateOrderCreated          State = "order_created"
	StateCheckoutOpened        State = "checkout_opened"
	StateVerificationRequested State = "verification_requested"
	StateVerified              State = "verified"
	StateFailed                State = "failed"
)

// next lists the single forward step from each non-terminal state.
// Failed is reachable from every non-terminal state.
var next = map[State]State{
	StateIdle:                  StateOrderRequested,
	StateOrderRequested:        StateOrderCreated,
	StateOrderCreated:          StateCheckoutOpened,
	StateCheckoutOpened:        StateVerificationRequested,
	StateVerificationRequested: StateVerified,
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateVerified || s == StateFailed
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[from] == to
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, from, to)
}
