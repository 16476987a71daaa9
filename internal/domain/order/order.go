package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Currency is the only currency the site charges in.
const Currency = "INR"

// MinorUnitsPerRupee converts rupees to paise.
const MinorUnitsPerRupee = 100

var (
	ErrInvalidAmount = errors.New("order: amount must be greater than zero")
	ErrMalformed     = errors.New("order: provider response has no id")
)

// Status is the gateway's order status. A fresh order is "created".
type Status string

const StatusCreated Status = "created"

// Request is what the site asks the gateway to create. Amount is in paise.
type Request struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

// ToMinorUnits converts a rupee amount to paise, rounding to the nearest paisa.
func ToMinorUnits(rupees float64) (int64, error) {
	paise := int64(math.Round(rupees * MinorUnitsPerRupee))
	if paise <= 0 {
		return 0, ErrInvalidAmount
	}
	return paise, nil
}

// Order is the gateway's view of a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   Status `json:"status,omitempty"`
}

// Parse reads an order object returned by the gateway.
func Parse(body []byte) (Order, error) {
	var o Order
	if err := json.Unmarshal(body, &o); err != nil {
		return Order{}, fmt.Errorf("order: decode: %w", err)
	}
	if o.ID == "" {
		return Order{}, ErrMalformed
	}
	if o.Currency == "" {
		o.Currency = Currency
	}
	return o, nil
}
