// Package siteapi is the site client's adapter for the site's own HTTP API
// and for the auth backend it shares a host with.
package siteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aimatrix/site/internal/domain/contact"
	"github.com/aimatrix/site/internal/domain/order"
	"github.com/aimatrix/site/internal/domain/payment"
	"github.com/aimatrix/site/internal/domain/provider"
	"github.com/aimatrix/site/internal/domain/session"
	"github.com/aimatrix/site/internal/infrastructure/provider/httpcall"
)

const (
	pathHealth        = "/"
	pathContact       = "/api/contact"
	pathCreateOrder   = "/api/create-order"
	pathVerifyPayment = "/api/verify-payment"
	pathLogin         = "/api/login"
	pathRegister      = "/api/register"
)

type Client struct {
	caller  *httpcall.Caller
	baseURL string
	authURL string
}

// NewClient builds a client for baseURL. An empty authURL means the auth
// routes live on baseURL too.
func NewClient(caller *httpcall.Caller, baseURL, authURL string) *Client {
	if authURL == "" {
		authURL = baseURL
	}
	return &Client{caller: caller, baseURL: baseURL, authURL: authURL}
}

// Health fetches the API root. Any answer is returned for the caller to judge.
func (c *Client) Health(ctx context.Context) (provider.Response, error) {
	return c.caller.Do(ctx, httpcall.Request{
		Provider: provider.Site,
		Method:   http.MethodGet,
		URL:      c.baseURL + pathHealth,
	})
}

// SubmitContact posts the contact form. A rejection carries the server's
// error message as Detail.
func (c *Client) SubmitContact(ctx context.Context, s contact.Submission) error {
	_, err := c.post(ctx, provider.Site, c.baseURL+pathContact, s)
	return err
}

type createOrderBody struct {
	Amount int64 `json:"amount"`
}

// CreateOrder asks the API for an order of amount paise.
func (c *Client) CreateOrder(ctx context.Context, amount int64) (order.Order, error) {
	resp, err := c.post(ctx, provider.Site, c.baseURL+pathCreateOrder, createOrderBody{Amount: amount})
	if err != nil {
		return order.Order{}, err
	}
	return order.Parse(resp.Body)
}

// VerifyPayment forwards the checkout confirmation unchanged.
func (c *Client) VerifyPayment(ctx context.Context, conf payment.Confirmation) (payment.Verification, error) {
	resp, err := c.post(ctx, provider.Site, c.baseURL+pathVerifyPayment, conf)
	if err != nil {
		return payment.Verification{}, err
	}
	var v payment.Verification
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return payment.Verification{}, fmt.Errorf("siteapi: decode verification: %w", err)
	}
	return v, nil
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *session.User `json:"user"`
}

// Login authenticates against the auth backend and returns its user object.
func (c *Client) Login(ctx context.Context, email, password string) (session.User, error) {
	resp, err := c.post(ctx, provider.Auth, c.authURL+pathLogin, loginBody{Email: email, Password: password})
	if err != nil {
		return session.User{}, err
	}
	var lr loginResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return session.User{}, fmt.Errorf("siteapi: decode login: %w", err)
	}
	if lr.User == nil {
		return session.User{}, session.ErrInvalidUser
	}
	return *lr.User, nil
}

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	_, err := c.post(ctx, provider.Auth, c.authURL+pathRegister, registerBody{Name: name, Email: email, Password: password})
	return err
}

func (c *Client) post(ctx context.Context, name provider.Name, url string, v any) (provider.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return provider.Response{}, fmt.Errorf("siteapi: encode: %w", err)
	}
	resp, err := c.caller.Do(ctx, httpcall.Request{
		Provider: name,
		Method:   http.MethodPost,
		URL:      url,
		Header:   http.Header{"Content-Type": []string{"application/json"}},
		Body:     body,
	})
	if err != nil {
		return provider.Response{}, err
	}
	if !resp.OK() {
		pe := provider.NewProviderError(name, resp)
		pe.Detail = errorMessage(resp.Body)
		return provider.Response{}, pe
	}
	return resp, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// errorMessage prefers the API's {"error": "..."} text and falls back to the raw body.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return string(body)
}
