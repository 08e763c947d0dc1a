package gateway

import (
	"crypto/rand"
	"encoding/hex"
)

// State is the mutable record of one logical payment flow. A gateway
// transaction embeds it alongside Processor; it is mutated in place across
// initialize, verify, and webhook handling and has no persistence of its
// own.
type State struct {
	amount      float64
	email       string
	payerName   string
	payerPhone  string
	currency    string
	reference   string
	redirectURL string
	checkoutURL string
	metadata    map[string]any
	requestBody []byte
}

// Amount returns the transaction amount in the gateway's expected unit.
func (s *State) Amount() float64 { return s.amount }

// SetAmount records the transaction amount.
func (s *State) SetAmount(amount float64) { s.amount = amount }

// Email returns the payer email.
func (s *State) Email() string { return s.email }

// SetEmail records the payer email.
func (s *State) SetEmail(email string) { s.email = email }

// PayerName returns the optional payer name.
func (s *State) PayerName() string { return s.payerName }

// SetPayerName records the optional payer name.
func (s *State) SetPayerName(name string) { s.payerName = name }

// PayerPhone returns the optional payer phone number.
func (s *State) PayerPhone() string { return s.payerPhone }

// SetPayerPhone records the optional payer phone number.
func (s *State) SetPayerPhone(phone string) { s.payerPhone = phone }

// Currency returns the transaction currency code.
func (s *State) Currency() string { return s.currency }

// SetCurrency records the transaction currency code.
func (s *State) SetCurrency(currency string) { s.currency = currency }

// Reference returns the opaque correlation id for this payment.
func (s *State) Reference() string { return s.reference }

// SetReference records the correlation id. A gateway-echoed reference is
// authoritative and overwrites a locally generated one.
func (s *State) SetReference(reference string) { s.reference = reference }

// RedirectURL returns the post-payment return target.
func (s *State) RedirectURL() string { return s.redirectURL }

// SetRedirectURL records the post-payment return target.
func (s *State) SetRedirectURL(u string) { s.redirectURL = u }

// CheckoutURL returns the hosted payment page URL. Empty until a successful
// initialize.
func (s *State) CheckoutURL() string { return s.checkoutURL }

// SetCheckoutURL records the hosted payment page URL.
func (s *State) SetCheckoutURL(u string) { s.checkoutURL = u }

// Metadata returns the caller-supplied passthrough mapping.
func (s *State) Metadata() map[string]any { return s.metadata }

// SetMetadata records the caller-supplied passthrough mapping.
func (s *State) SetMetadata(m map[string]any) { s.metadata = m }

// RequestBody returns the exact payload sent on the last request, retained
// for diagnostics.
func (s *State) RequestBody() []byte { return s.requestBody }

// SetRequestBody records the payload sent on the last request.
func (s *State) SetRequestBody(b []byte) { s.requestBody = b }

// Checkout returns the URL the payer's browser should be redirected to. It
// fails when called before a successful initialize; redirecting is left to
// the calling web framework.
func (s *State) Checkout() (string, error) {
	if s.checkoutURL == "" {
		return "", NewError(ErrCodeCheckoutUnavailable, "checkout url not set: initialize the transaction first")
	}
	return s.checkoutURL, nil
}

// NewReference generates a client-side correlation id: 7 cryptographically
// random bytes, hex encoded (14 characters).
func NewReference() string {
	b := make([]byte, 7)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic("gateway: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}
