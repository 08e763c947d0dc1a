// Package gateway defines the contract shared by all payment gateway
// variants: the Transaction capability set, the processor identity and
// per-flow state they embed, the error taxonomy, and the HTTP client
// collaborator the core issues requests through.
package gateway

import (
	"context"
	"net/http"
)

// Fields is the normalized caller input for initializing a transaction.
// Each gateway maps these onto its own wire names (callback_url vs
// redirect_url, email vs customer.email).
type Fields struct {
	Amount      float64
	Email       string
	Name        string
	Phone       string
	Currency    string
	Reference   string
	RedirectURL string
	Metadata    map[string]any
}

// WebhookRequest is the inbound notification handed to Webhook for
// signature verification: the request method, the raw (unmodified) body,
// and the request headers.
type WebhookRequest struct {
	Method string
	Body   []byte
	Header http.Header
}

// Transaction is the gateway-agnostic capability set for one logical
// payment flow. Implementations are not safe for concurrent use; callers
// needing parallel flows construct separate instances.
//
// Initialize, Verify and Webhook return a non-nil error only for
// validation, configuration and signature failures. Transport and upstream
// failures return nil and are reported through Status, StatusCode and
// Message so callers can branch on business outcomes without error
// handling.
type Transaction interface {
	Initialize(ctx context.Context, fields Fields) error
	Verify(ctx context.Context, reference string) error
	Webhook(ctx context.Context, req WebhookRequest) error

	// Checkout returns the hosted payment page URL for the caller's web
	// framework to redirect to. Fails before a successful Initialize.
	Checkout() (string, error)

	Name() string
	Amount() float64
	Email() string
	Reference() string
	SetReference(string)
	CheckoutURL() string
	Status() bool
	StatusCode() int
	Message() string
	Response() any
	RawResponse() []byte
}
