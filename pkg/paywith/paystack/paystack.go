// Package paystack implements the gateway.Transaction contract against the
// Paystack API: hosted checkout initialization, transaction verification,
// and HMAC-SHA512 signed webhook events.
package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

const (
	baseURL         = "https://api.paystack.co"
	signatureHeader = "X-Paystack-Signature"
	chargeSuccess   = "charge.success"
	defaultCurrency = "NGN"
)

var supportedCurrencies = map[string]bool{
	"NGN": true,
	"USD": true,
	"GHS": true,
	"ZAR": true,
	"KES": true,
}

// Transaction is one Paystack payment flow.
type Transaction struct {
	gateway.Processor
	gateway.State

	client gateway.HTTPClient
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithHTTPClient overrides the transport collaborator, primarily for tests.
func WithHTTPClient(c gateway.HTTPClient) Option {
	return func(t *Transaction) {
		t.client = c
	}
}

// New builds a Paystack transaction bound to one secret key. The key is not
// validated against the network until the first request.
func New(secretKey string, opts ...Option) *Transaction {
	t := &Transaction{
		Processor: gateway.NewProcessor("paystack", "Paystack", baseURL, secretKey),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = gateway.NewClient()
	}
	return t
}

// envelope is the outer response shape shared by all Paystack endpoints.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Amount      float64        `json:"amount"`
	Email       string         `json:"email"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type transactionData struct {
	Status          string  `json:"status"`
	Amount          float64 `json:"amount"`
	Reference       string  `json:"reference"`
	GatewayResponse string  `json:"gateway_response"`
	Customer        struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Initialize normalizes fields, POSTs to /transaction/initialize and, on a
// truthy envelope status, stores the checkout URL and the gateway's
// authoritative reference.
func (t *Transaction) Initialize(ctx context.Context, fields gateway.Fields) error {
	if err := t.resolveFields(fields); err != nil {
		return err
	}

	body := initializeRequest{
		Amount:      t.Amount(),
		Email:       t.Email(),
		Currency:    t.Currency(),
		Reference:   t.Reference(),
		CallbackURL: t.RedirectURL(),
		Metadata:    t.Metadata(),
	}
	encoded, _ := json.Marshal(body)
	t.SetRequestBody(encoded)

	res, err := t.client.Post(ctx, t.BaseURL()+"/transaction/initialize", body, t.Headers())
	if err != nil {
		t.Fail(0, err.Error())
		return nil
	}

	env, perr := parseEnvelope(res.Body)
	if perr != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	t.SetResponse(env, res.Body)

	if !env.Status {
		t.Fail(res.StatusCode, env.Message)
		return nil
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	if data.Reference != "" {
		t.SetReference(data.Reference)
	}
	t.SetCheckoutURL(data.AuthorizationURL)
	t.Succeed(res.StatusCode, env.Message)
	return nil
}

// Verify GETs /transaction/verify/{reference} and succeeds when the nested
// transaction status is "success". On success the local amount, email and
// reference are overwritten from the authoritative gateway response;
// matching them against expectations stays the caller's responsibility.
func (t *Transaction) Verify(ctx context.Context, reference string) error {
	if reference == "" {
		reference = t.Reference()
	}
	if reference == "" {
		return gateway.NewError(gateway.ErrCodeReferenceRequired, "reference required")
	}

	res, err := t.client.Get(ctx, fmt.Sprintf("%s/transaction/verify/%s", t.BaseURL(), reference), t.Headers())
	if err != nil {
		t.Fail(0, err.Error())
		return nil
	}

	env, perr := parseEnvelope(res.Body)
	if perr != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	t.SetResponse(env, res.Body)

	if !env.Status {
		t.Fail(res.StatusCode, env.Message)
		return nil
	}

	var data transactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	t.applyTransactionData(data)

	message := data.GatewayResponse
	if message == "" {
		message = env.Message
	}
	if data.Status == "success" {
		t.Succeed(res.StatusCode, message)
	} else {
		t.Fail(res.StatusCode, message)
	}
	return nil
}

// Webhook authenticates an inbound event: the request must be a POST whose
// raw body HMAC-SHA512, keyed with the secret key, matches the
// X-Paystack-Signature header (constant-time compare). Only a verified
// charge.success event with a successful nested status flips Status to
// true. Signature failures return a typed error whose code maps to 401 so
// the HTTP surface can answer definitively.
func (t *Transaction) Webhook(ctx context.Context, req gateway.WebhookRequest) error {
	if req.Method != http.MethodPost {
		t.Fail(http.StatusBadRequest, "webhook must be delivered by POST")
		return gateway.NewError(gateway.ErrCodeInvalidMethod, "webhook must be delivered by POST")
	}

	signature := req.Header.Get(signatureHeader)
	if signature == "" {
		t.Fail(http.StatusUnauthorized, "missing webhook signature")
		return gateway.NewError(gateway.ErrCodeMissingSignature, "missing "+signatureHeader+" header")
	}

	mac := hmac.New(sha512.New, []byte(t.SecretKey()))
	mac.Write(req.Body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		t.Fail(http.StatusUnauthorized, "webhook signature mismatch")
		return gateway.NewError(gateway.ErrCodeInvalidSignature, "webhook signature mismatch")
	}

	var event struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(req.Body, &event); err != nil {
		t.Fail(http.StatusBadRequest, "unreadable webhook payload")
		return gateway.WrapError(gateway.ErrCodeInvalidPayload, "unreadable webhook payload", err)
	}
	t.SetResponse(event, req.Body)

	if event.Event != chargeSuccess {
		t.Fail(http.StatusOK, "ignoring event "+event.Event)
		return nil
	}

	var data transactionData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fail(http.StatusBadRequest, "unreadable webhook payload")
		return gateway.WrapError(gateway.ErrCodeInvalidPayload, "unreadable webhook payload", err)
	}
	t.applyTransactionData(data)

	message := data.GatewayResponse
	if message == "" {
		message = event.Event
	}
	if data.Status == "success" {
		t.Succeed(http.StatusOK, message)
	} else {
		t.Fail(http.StatusOK, message)
	}
	return nil
}

// resolveFields reconciles caller input with prior state and validates it,
// failing fast before any network dispatch.
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
		if !gateway.IsValidURL(fields.RedirectURL) {
			return gateway.NewError(gateway.ErrCodeInvalidURL, "invalid callback url: "+fields.RedirectURL)
		}
		t.SetRedirectURL(fields.RedirectURL)
	}

	if fields.Name != "" {
		t.SetPayerName(fields.Name)
	}
	if fields.Phone != "" {
		t.SetPayerPhone(fields.Phone)
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

func (t *Transaction) applyTransactionData(data transactionData) {
	t.SetAmount(data.Amount)
	if data.Customer.Email != "" {
		t.SetEmail(data.Customer.Email)
	}
	if data.Reference != "" {
		t.SetReference(data.Reference)
	}
}

func parseEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
