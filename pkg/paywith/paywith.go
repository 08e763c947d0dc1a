// Package paywith is a unifying client for online payment gateways. A
// caller codes against the gateway-agnostic Transaction contract and
// switches providers by changing a configuration string:
//
//	pay, err := paywith.New(paywith.Paystack, os.Getenv("PAYSTACK_SECRET_KEY"))
//	if err != nil { ... }
//	tx, err := pay.Transaction()
//	if err != nil { ... }
//	if err := tx.Initialize(ctx, paywith.Fields{Amount: 1000, Email: "u@x.com"}); err != nil { ... }
//	if tx.Status() {
//	    url, _ := tx.Checkout() // redirect the payer here
//	}
package paywith

import (
	"strings"

	"github.com/paywith/paywith/pkg/paywith/flutterwave"
	"github.com/paywith/paywith/pkg/paywith/gateway"
	"github.com/paywith/paywith/pkg/paywith/paystack"
	stripegw "github.com/paywith/paywith/pkg/paywith/stripe"
)

// Supported gateway names.
const (
	Paystack    = "paystack"
	Flutterwave = "flutterwave"
	Stripe      = "stripe"
	Monnify     = "monnify" // reserved
	Paylink     = "paylink" // reserved
)

// Aliases so callers only import this package for everyday use.
type (
	Transaction    = gateway.Transaction
	Fields         = gateway.Fields
	WebhookRequest = gateway.WebhookRequest
	Error          = gateway.Error
	ErrorCode      = gateway.ErrorCode
)

// CodeOf extracts the machine-readable code from a paywith error.
func CodeOf(err error) ErrorCode { return gateway.CodeOf(err) }

var supported = map[string]bool{
	Paystack:    true,
	Flutterwave: true,
	Stripe:      true,
	Monnify:     true,
	Paylink:     true,
}

// Paywith selects a gateway by name and constructs Transaction values bound
// to it. The zero value is not usable; construct with New.
type Paywith struct {
	gateway    string
	secretKey  string
	httpClient gateway.HTTPClient
}

// Option configures the factory.
type Option func(*Paywith)

// WithHTTPClient injects a transport collaborator into every transaction
// the factory creates. Stripe manages its own transport and ignores this.
func WithHTTPClient(c gateway.HTTPClient) Option {
	return func(p *Paywith) {
		p.httpClient = c
	}
}

// New validates the gateway name and returns a factory. The secret key may
// be empty here and supplied later through SetSecretKey; Transaction fails
// until one is present.
func New(gatewayName, secretKey string, opts ...Option) (*Paywith, error) {
	name := strings.ToLower(gatewayName)
	if !supported[name] {
		return nil, gateway.NewError(gateway.ErrCodeUnsupportedGateway, "gateway not supported: "+gatewayName)
	}
	p := &Paywith{gateway: name, secretKey: secretKey}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Gateway returns the selected gateway name.
func (p *Paywith) Gateway() string {
	return p.gateway
}

// SetSecretKey injects or replaces the merchant secret key.
func (p *Paywith) SetSecretKey(secretKey string) error {
	if secretKey == "" {
		return gateway.NewError(gateway.ErrCodeSecretKeyRequired, "secret key required")
	}
	p.secretKey = secretKey
	return nil
}

// Transaction constructs a fresh Transaction for one logical payment flow.
// Instances are not shared between concurrent flows; call this once per
// payment.
func (p *Paywith) Transaction() (Transaction, error) {
	if p.secretKey == "" {
		return nil, gateway.NewError(gateway.ErrCodeSecretKeyRequired, "secret key required")
	}

	switch p.gateway {
	case Paystack:
		if p.httpClient != nil {
			return paystack.New(p.secretKey, paystack.WithHTTPClient(p.httpClient)), nil
		}
		return paystack.New(p.secretKey), nil
	case Flutterwave:
		if p.httpClient != nil {
			return flutterwave.New(p.secretKey, flutterwave.WithHTTPClient(p.httpClient)), nil
		}
		return flutterwave.New(p.secretKey), nil
	case Stripe:
		return stripegw.New(p.secretKey), nil
	default:
		// monnify and paylink are reserved names without implementations yet
		return nil, gateway.NewError(gateway.ErrCodeGatewayNotImplemented, "gateway not implemented: "+p.gateway)
	}
}
