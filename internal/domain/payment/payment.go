package payment

import "errors"

var ErrOrderMismatch = errors.New("payment: confirmation does not reference the order of this flow")

// Status is the verification verdict returned to the site client.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Confirmation is the checkout widget's completion payload, forwarded verbatim for verification.
type Confirmation struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// Complete reports whether all three fields the gateway signs are present.
func (c Confirmation) Complete() bool {
	return c.PaymentID != "" && c.OrderID != "" && c.Signature != ""
}

// Verification is the server's verdict for one confirmation.
type Verification struct {
	Status    Status `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Succeeded is the sole success criterion of the payment flow.
func (v Verification) Succeeded() bool { return v.Status == StatusSuccess }

// Payment is the subset of the gateway's payment entity used for verification.
type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
}

// Settled reports whether the gateway considers the money secured.
func (p Payment) Settled() bool {
	return p.Status == "authorized" || p.Status == "captured"
}
