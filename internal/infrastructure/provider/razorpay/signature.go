package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/aimatrix/site/internal/domain/payment"
)

// Sign computes the checkout signature the gateway attaches to a confirmation:
// hex(HMAC-SHA256(secret, order_id + "|" + payment_id)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature reports whether c was signed with secret.
func ValidSignature(secret string, c payment.Confirmation) bool {
	if secret == "" || !c.Complete() {
		return false
	}
	want := Sign(secret, c.OrderID, c.PaymentID)
	return hmac.Equal([]byte(want), []byte(c.Signature))
}
