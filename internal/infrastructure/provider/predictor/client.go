package predictor

import (
	"context"
	"net/http"

	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
)

const predictPath = "/predict"

// Client forwards prediction requests to the upstream model service.
type Client struct {
	caller  *httpcall.Caller
	baseURL string
}

func NewClient(caller *httpcall.Caller, baseURL string) *Client {
	return &Client{caller: caller, baseURL: baseURL}
}

// Predict posts body unchanged and returns the upstream answer unchanged.
func (c *Client) Predict(ctx context.Context, body []byte) (provider.Response, error) {
	if c.baseURL == "" {
		return provider.Response{}, provider.ErrNotConfigured
	}
	return c.caller.Do(ctx, httpcall.Request{
		Provider: provider.Prediction,
		Method:   http.MethodPost,
		URL:      c.baseURL + predictPath,
		Header:   http.Header{"Content-Type": []string{"application/json"}},
		Body:     body,
	})
}
