package checkout

import (
	"context"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
)

// OrderAPI creates an order on the site API. Amount is in paise.
type OrderAPI interface {
	CreateOrder(ctx context.Context, amount int64) (order.Order, error)
}

// VerifyAPI asks the site API for a verdict on a confirmation.
type VerifyAPI interface {
	VerifyPayment(ctx context.Context, c payment.Confirmation) (payment.Verification, error)
}

// CheckoutOptions is what the checkout widget is opened with.
type CheckoutOptions struct {
	Key         string
	OrderID     string
	Amount      int64
	Currency    string
	Name        string
	Description string
}

// Widget is the third-party checkout UI. Open blocks until the user completes
// the checkout, or returns an error when it is dismissed or ctx ends.
type Widget interface {
	Open(ctx context.Context, opts CheckoutOptions) (payment.Confirmation, error)
}
