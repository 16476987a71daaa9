package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	appcheckout "github.com/aimatrix/site/internal/application/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completion = `{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_1","razorpay_signature":"sig"}`

func TestTerminalWidget_ReopenAfterAbandonedOpenGetsNextLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pr.Close()
	w := newTerminalWidget(pr, io.Discard)
	opts := appcheckout.CheckoutOptions{OrderID: "order_1"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Open(ctx, opts)
	require.ErrorIs(t, err, context.Canceled)

	go func() { _, _ = pw.Write([]byte(completion + "\n")) }()
	c, err := w.Open(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, "pay_1", c.PaymentID)
	assert.Equal(t, "order_1", c.OrderID)
}

func TestTerminalWidget_ClosedInputDismisses(t *testing.T) {
	w := newTerminalWidget(strings.NewReader(""), io.Discard)
	opts := appcheckout.CheckoutOptions{OrderID: "order_1"}

	_, err := w.Open(context.Background(), opts)
	assert.ErrorIs(t, err, errCheckoutDismissed)

	_, err = w.Open(context.Background(), opts)
	assert.ErrorIs(t, err, errCheckoutDismissed)
}
