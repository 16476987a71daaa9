package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
)

const (
	ordersPath   = "/v1/orders"
	paymentsPath = "/v1/payments/"
)

// Gateway talks to the Razorpay REST API with key id / secret basic auth.
type Gateway struct {
	caller    *httpcall.Caller
	baseURL   string
	keyID     string
	keySecret string
}

func NewGateway(caller *httpcall.Caller, baseURL, keyID, keySecret string) *Gateway {
	return &Gateway{caller: caller, baseURL: baseURL, keyID: keyID, keySecret: keySecret}
}

// Configured reports whether both the key id and the key secret are set.
func (g *Gateway) Configured() bool {
	return g.keyID != "" && g.keySecret != ""
}

// CreateOrder asks the gateway for a new order. The gateway's answer is returned verbatim,
// whatever its status, so handlers can relay it.
func (g *Gateway) CreateOrder(ctx context.Context, req order.Request) (provider.Response, error) {
	if !g.Configured() {
		return provider.Response{}, provider.ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return provider.Response{}, fmt.Errorf("razorpay: encode order: %w", err)
	}
	return g.caller.Do(ctx, httpcall.Request{
		Provider:  provider.Payment,
		Method:    http.MethodPost,
		URL:       g.baseURL + ordersPath,
		Body:      body,
		BasicAuth: &httpcall.BasicAuth{User: g.keyID, Password: g.keySecret},
	})
}

// FetchPayment reads one payment entity. The answer is returned verbatim.
func (g *Gateway) FetchPayment(ctx context.Context, paymentID string) (provider.Response, error) {
	if !g.Configured() {
		return provider.Response{}, provider.ErrNotConfigured
	}
	return g.caller.Do(ctx, httpcall.Request{
		Provider:  provider.Payment,
		Method:    http.MethodGet,
		URL:       g.baseURL + paymentsPath + url.PathEscape(paymentID),
		BasicAuth: &httpcall.BasicAuth{User: g.keyID, Password: g.keySecret},
	})
}

// Secret exposes the key secret to the signature verifier.
func (g *Gateway) Secret() string { return g.keySecret }
