package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "rzp_test_1", user)
		assert.Equal(t, "s3cret", pass)

		var req order.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(999900), req.Amount)
		assert.Equal(t, "INR", req.Currency)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":999900,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	g := NewGateway(httpcall.New(srv.Client(), nil), srv.URL, "rzp_test_1", "s3cret")
	resp, err := g.CreateOrder(context.Background(), order.Request{Amount: 999900, Currency: "INR"})

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.JSONEq(t, `{"id":"order_1","amount":999900,"currency":"INR","status":"created"}`, string(resp.Body))
}

func TestGateway_FetchPaymentRelaysErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/pay_1", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR"}}`))
	}))
	defer srv.Close()

	g := NewGateway(httpcall.New(srv.Client(), nil), srv.URL, "rzp_test_1", "s3cret")
	resp, err := g.FetchPayment(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Contains(t, string(resp.Body), "BAD_REQUEST_ERROR")
}

func TestGateway_NotConfigured(t *testing.T) {
	g := NewGateway(httpcall.New(nil, nil), "http://unused", "", "")
	_, err := g.CreateOrder(context.Background(), order.Request{Amount: 1})
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestValidSignature(t *testing.T) {
	c := payment.Confirmation{OrderID: "order_1", PaymentID: "pay_1"}
	c.Signature = Sign("s3cret", c.OrderID, c.PaymentID)

	assert.True(t, ValidSignature("s3cret", c))
	assert.False(t, ValidSignature("other", c))

	c.Signature = "deadbeef"
	assert.False(t, ValidSignature("s3cret", c))
	assert.False(t, ValidSignature("", c))
}
