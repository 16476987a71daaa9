package checkout

import (
	"sync"
	"time"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
)

// Flow is one run of the payment flow, from Idle to a terminal state.
// It is owned by a single caller; the mutex only guards readers such as metrics or a UI.
type Flow struct {
	mu sync.RWMutex

	ID            string
	Amount        int64
	Order         order.Order
	Confirmation  payment.Confirmation
	Verification  payment.Verification
	FailureReason string
	StartedAt     time.Time
	UpdatedAt     time.Time

	state   State
	history []State
}

// NewFlow starts a flow in Idle for the given amount in paise.
func NewFlow(id string, amount int64) *Flow {
	now := time.Now().UTC()
	return &Flow{
		ID:        id,
		Amount:    amount,
		StartedAt: now,
		UpdatedAt: now,
		state:     StateIdle,
		history:   []State{StateIdle},
	}
}

func (f *Flow) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// History returns every state the flow has visited, in order.
func (f *Flow) History() []State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]State, len(f.history))
	copy(out, f.history)
	return out
}

// Advance moves the flow to the given state if the step is legal.
func (f *Flow) Advance(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, to) {
		return transitionError(f.state, to)
	}
	f.set(to)
	return nil
}

// OrderCreated records the gateway order and moves OrderRequested → OrderCreated.
func (f *Flow) OrderCreated(o order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateOrderCreated) {
		return transitionError(f.state, StateOrderCreated)
	}
	f.Order = o
	f.set(StateOrderCreated)
	return nil
}

// Confirmed records the widget confirmation and moves CheckoutOpened → VerificationRequested.
// A confirmation for any other order than the one created in this flow is rejected.
func (f *Flow) Confirmed(c payment.Confirmation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateVerificationRequested) {
		return transitionError(f.state, StateVerificationRequested)
	}
	if c.OrderID != f.Order.ID {
		return payment.ErrOrderMismatch
	}
	f.Confirmation = c
	f.set(StateVerificationRequested)
	return nil
}

// Verified records the server verdict and moves to Verified.
func (f *Flow) Verified(v payment.Verification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateVerified) {
		return transitionError(f.state, StateVerified)
	}
	f.Verification = v
	f.set(StateVerified)
	return nil
}

// Fail moves the flow to Failed with a reason. Failing a terminal flow is a no-op.
func (f *Flow) Fail(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !CanTransition(f.state, StateFailed) {
		return
	}
	f.FailureReason = reason
	f.set(StateFailed)
}

func (f *Flow) set(s State) {
	f.state = s
	f.history = append(f.history, s)
	f.UpdatedAt = time.Now().UTC()
}
