package provider

import (
	"errors"
	"fmt"
)

// Name identifies a downstream provider in errors, logs and metric labels.
type Name string

const (
	Mail       Name = "sendgrid"
	Payment    Name = "razorpay"
	Prediction Name = "predictor"
	Auth       Name = "auth"
	Site       Name = "site_api"
)

// ErrNotConfigured means a required provider setting (key, URL, recipient) is absent.
var ErrNotConfigured = errors.New("provider: not configured")

// Response is what a provider answered, relayed without interpretation.
type Response struct {
	Status      int
	Body        []byte
	ContentType string
}

// OK reports whether the provider answered with a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ProviderError is a non-success answer from a provider. Detail holds the raw body.
type ProviderError struct {
	Provider Name
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Provider, e.Status)
}

// NewProviderError builds a ProviderError from a non-2xx response.
func NewProviderError(name Name, resp Response) *ProviderError {
	return &ProviderError{Provider: name, Status: resp.Status, Detail: string(resp.Body)}
}

// NetworkError is a transport failure: the provider never produced a response.
type NetworkError struct {
	Provider Name
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: unreachable: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// AsProviderError extracts a ProviderError from err, if any.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
