// Package stripe implements the gateway.Transaction contract on top of
// Stripe Checkout: initialize creates a hosted Checkout Session, verify
// retrieves it, and webhook handling validates Stripe-Signature events via
// stripe-go. Unlike the raw-HTTP gateways, this variant rides stripe-go's
// own transport.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v72"
	stripeclient "github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

const (
	signatureHeader  = "Stripe-Signature"
	sessionCompleted = "checkout.session.completed"
	defaultCurrency  = "USD"
)

var supportedCurrencies = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"CAD": true,
	"AUD": true,
}

// Transaction is one Stripe Checkout payment flow.
type Transaction struct {
	gateway.Processor
	gateway.State

	api           *stripeclient.API
	webhookSecret string
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithAPI overrides the stripe-go client, primarily for tests.
func WithAPI(api *stripeclient.API) Option {
	return func(t *Transaction) {
		t.api = api
	}
}

// New builds a Stripe transaction bound to one secret key.
func New(secretKey string, opts ...Option) *Transaction {
	t := &Transaction{
		Processor: gateway.NewProcessor("stripe", "Stripe", "https://api.stripe.com", secretKey),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.api == nil {
		t.api = stripeclient.New(secretKey, nil)
	}
	return t
}

// SetWebhookSecret configures the endpoint signing secret ("whsec_...")
// used to validate Stripe-Signature headers. Webhook verification fails
// until it is set.
func (t *Transaction) SetWebhookSecret(secret string) {
	t.webhookSecret = secret
}

// Initialize creates a Checkout Session for the resolved amount and payer.
// The session ID becomes the authoritative reference and the session URL
// the checkout URL. Stripe requires a redirect target, so RedirectURL is
// mandatory here.
func (t *Transaction) Initialize(ctx context.Context, fields gateway.Fields) error {
	if err := t.resolveFields(fields); err != nil {
		return err
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		SuccessURL:         stripeapi.String(t.RedirectURL()),
		CancelURL:          stripeapi.String(t.RedirectURL()),
		CustomerEmail:      stripeapi.String(t.Email()),
		ClientReferenceID:  stripeapi.String(t.Reference()),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Quantity: stripeapi.Int64(1),
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripeapi.String(stripeCurrency(t.Currency())),
					UnitAmount: stripeapi.Int64(toMinorUnits(t.Amount())),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String("Payment " + t.Reference()),
					},
				},
			},
		},
	}
	params.Context = ctx
	for k, v := range t.Metadata() {
		if s, ok := v.(string); ok {
			params.AddMetadata(k, s)
		}
	}
	t.SetRequestBody(nil)

	session, err := t.api.CheckoutSessions.New(params)
	if err != nil {
		t.failFromStripe(err)
		return nil
	}

	t.SetReference(session.ID)
	t.SetCheckoutURL(session.URL)
	t.SetResponse(session, nil)
	t.Succeed(http.StatusOK, "Checkout session created")
	return nil
}

// Verify retrieves the Checkout Session named by reference (a session ID)
// and succeeds when its payment status is "paid". Amount and email are
// overwritten from the session.
func (t *Transaction) Verify(ctx context.Context, reference string) error {
	if reference == "" {
		reference = t.Reference()
	}
	if reference == "" {
		return gateway.NewError(gateway.ErrCodeReferenceRequired, "reference required")
	}

	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	session, err := t.api.CheckoutSessions.Get(reference, params)
	if err != nil {
		t.failFromStripe(err)
		return nil
	}
	t.applySession(session)

	if session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid {
		t.Succeed(http.StatusOK, "Payment complete")
	} else {
		t.Fail(http.StatusOK, "payment status "+string(session.PaymentStatus))
	}
	return nil
}

// Webhook validates the Stripe-Signature header against the endpoint
// signing secret and dispatches on checkout.session.completed. Stripe signs
// with a timestamped HMAC-SHA256 scheme handled by stripe-go.
func (t *Transaction) Webhook(ctx context.Context, req gateway.WebhookRequest) error {
	if req.Method != http.MethodPost {
		t.Fail(http.StatusBadRequest, "webhook must be delivered by POST")
		return gateway.NewError(gateway.ErrCodeInvalidMethod, "webhook must be delivered by POST")
	}

	if t.webhookSecret == "" {
		t.Fail(http.StatusUnauthorized, "webhook secret not configured")
		return gateway.NewError(gateway.ErrCodeWebhookSecretRequired, "webhook secret not configured: call SetWebhookSecret first")
	}

	signature := req.Header.Get(signatureHeader)
	if signature == "" {
		t.Fail(http.StatusUnauthorized, "missing webhook signature")
		return gateway.NewError(gateway.ErrCodeMissingSignature, "missing "+signatureHeader+" header")
	}

	event, err := webhook.ConstructEvent(req.Body, signature, t.webhookSecret)
	if err != nil {
		t.Fail(http.StatusUnauthorized, "webhook signature mismatch")
		return gateway.WrapError(gateway.ErrCodeInvalidSignature, "webhook signature mismatch", err)
	}

	if event.Type != sessionCompleted {
		t.Fail(http.StatusOK, "ignoring event "+event.Type)
		return nil
	}

	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		t.Fail(http.StatusBadRequest, "unreadable webhook payload")
		return gateway.WrapError(gateway.ErrCodeInvalidPayload, "unreadable webhook payload", err)
	}
	t.applySession(&session)

	if session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid {
		t.Succeed(http.StatusOK, "Payment complete")
	} else {
		t.Fail(http.StatusOK, "payment status "+string(session.PaymentStatus))
	}
	return nil
}

func (t *Transaction) resolveFields(fields gateway.Fields) error {
	if fields.Amount > 0 {
		t.SetAmount(fields.Amount)
	}
	if t.Amount() <= 0 {
		return gateway.NewError(gateway.ErrCodeAmountRequired, "amount required")
	}

	if fields.Email != "" {
		t.SetEmail(fields.Email)
	}
	if t.Email() == "" {
		return gateway.NewError(gateway.ErrCodeEmailRequired, "email required")
	}
	if !gateway.IsValidEmail(t.Email()) {
		return gateway.NewError(gateway.ErrCodeInvalidEmail, "invalid email: "+t.Email())
	}

	currency := fields.Currency
	if currency == "" {
		currency = t.Currency()
	}
	if currency == "" {
		currency = defaultCurrency
	}
	if !supportedCurrencies[currency] {
		return gateway.NewError(gateway.ErrCodeUnsupportedCurrency, "unsupported currency: "+currency)
	}
	t.SetCurrency(currency)

	if fields.RedirectURL != "" {
		t.SetRedirectURL(fields.RedirectURL)
	}
	if t.RedirectURL() == "" {
		return gateway.NewError(gateway.ErrCodeInvalidURL, "redirect url required for stripe checkout")
	}
	if !gateway.IsValidURL(t.RedirectURL()) {
		return gateway.NewError(gateway.ErrCodeInvalidURL, "invalid redirect url: "+t.RedirectURL())
	}

	if fields.Metadata != nil {
		t.SetMetadata(fields.Metadata)
	}
	if fields.Reference != "" {
		t.SetReference(fields.Reference)
	}
	if t.Reference() == "" {
		t.SetReference(gateway.NewReference())
	}
	return nil
}

func (t *Transaction) applySession(session *stripeapi.CheckoutSession) {
	t.SetResponse(session, nil)
	t.SetAmount(float64(session.AmountTotal) / 100)
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		t.SetEmail(session.CustomerDetails.Email)
	} else if session.CustomerEmail != "" {
		t.SetEmail(session.CustomerEmail)
	}
	if session.ID != "" {
		t.SetReference(session.ID)
	}
}

// failFromStripe folds a stripe-go error into the status triple, keeping
// the API's HTTP status when one is available.
func (t *Transaction) failFromStripe(err error) {
	var sErr *stripeapi.Error
	if errors.As(err, &sErr) {
		msg := sErr.Msg
		if msg == "" {
			msg = err.Error()
		}
		t.Fail(sErr.HTTPStatusCode, msg)
		return
	}
	t.Fail(0, err.Error())
}

func stripeCurrency(code string) string {
	// Stripe wants lowercase ISO codes; the rest of the library speaks
	// uppercase.
	return strings.ToLower(code)
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
