package payment

import (
	"context"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/provider"
)

// Gateway is an outbound port for the payment provider.
// Both calls return the provider's answer verbatim so it can be relayed.
// Configured reports whether the credentials needed to call it are present.
type Gateway interface {
	Configured() bool
	CreateOrder(ctx context.Context, req order.Request) (provider.Response, error)
	FetchPayment(ctx context.Context, paymentID string) (provider.Response, error)
}

// SignatureVerifier checks that a confirmation was signed by the gateway.
type SignatureVerifier func(orderID, paymentID, signature string) bool
