package checkout

import (
	"testing"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlow_HappyPath(t *testing.T) {
	f := NewFlow("flow-1", 999900)
	assert.Equal(t, StateIdle, f.State())

	require.NoError(t, f.Advance(StateOrderRequested))
	require.NoError(t, f.OrderCreated(order.Order{ID: "order_1", Amount: 999900, Currency: "INR"}))
	require.NoError(t, f.Advance(StateCheckoutOpened))
	require.NoError(t, f.Confirmed(payment.Confirmation{PaymentID: "pay_1", OrderID: "order_1", Signature: "sig"}))
	require.NoError(t, f.Verified(payment.Verification{Status: payment.StatusSuccess}))

	assert.Equal(t, []State{
		StateIdle, StateOrderRequested, StateOrderCreated,
		StateCheckoutOpened, StateVerificationRequested, StateVerified,
	}, f.History())
}

func TestFlow_RejectsSkippingSteps(t *testing.T) {
	f := NewFlow("flow-1", 100)

	err := f.Advance(StateCheckoutOpened)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	err = f.OrderCreated(order.Order{ID: "order_1"})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StateIdle, f.State())
}

func TestFlow_RejectsForeignConfirmation(t *testing.T) {
	f := NewFlow("flow-1", 100)
	require.NoError(t, f.Advance(StateOrderRequested))
	require.NoError(t, f.OrderCreated(order.Order{ID: "order_1"}))
	require.NoError(t, f.Advance(StateCheckoutOpened))

	err := f.Confirmed(payment.Confirmation{PaymentID: "pay_1", OrderID: "order_other", Signature: "sig"})
	assert.ErrorIs(t, err, payment.ErrOrderMismatch)
	assert.Equal(t, StateCheckoutOpened, f.State())
}

func TestFlow_FailIsTerminal(t *testing.T) {
	f := NewFlow("flow-1", 100)
	require.NoError(t, f.Advance(StateOrderRequested))

	f.Fail("order creation failed")
	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, "order creation failed", f.FailureReason)

	f.Fail("again")
	assert.Equal(t, "order creation failed", f.FailureReason)
	assert.ErrorIs(t, f.Advance(StateOrderCreated), ErrInvalidStateTransition)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateIdle, StateOrderRequested))
	assert.True(t, CanTransition(StateIdle, StateFailed))
	assert.True(t, CanTransition(StateCheckoutOpened, StateFailed))
	assert.False(t, CanTransition(StateVerified, StateFailed))
	assert.False(t, CanTransition(StateOrderCreated, StateVerified))
}
