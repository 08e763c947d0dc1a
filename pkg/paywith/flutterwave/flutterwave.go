// Package flutterwave implements the gateway.Transaction contract against
// the Flutterwave v3 API: hosted payment links, transaction verification,
// and verif-hash authenticated webhook events.
package flutterwave

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

const (
	baseURL         = "https://api.flutterwave.com"
	hashHeader      = "verif-hash"
	chargeCompleted = "charge.completed"
	defaultCurrency = "NGN"
	defaultPayment  = "card"
)

var supportedCurrencies = map[string]bool{
	"NGN": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
	"GHS": true,
	"KES": true,
	"ZAR": true,
	"UGX": true,
	"TZS": true,
}

// Transaction is one Flutterwave payment flow.
type Transaction struct {
	gateway.Processor
	gateway.State

	client      gateway.HTTPClient
	webhookHash string
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithHTTPClient overrides the transport collaborator, primarily for tests.
func WithHTTPClient(c gateway.HTTPClient) Option {
	return func(t *Transaction) {
		t.client = c
	}
}

// New builds a Flutterwave transaction bound to one secret key.
func New(secretKey string, opts ...Option) *Transaction {
	t := &Transaction{
		Processor: gateway.NewProcessor("flutterwave", "Flutterwave", baseURL, secretKey),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = gateway.NewClient()
	}
	return t
}

// SetWebhookHash configures the shared secret Flutterwave echoes in the
// verif-hash header of every webhook delivery. Webhook verification fails
// until it is set.
func (t *Transaction) SetWebhookHash(hash string) {
	t.webhookHash = hash
}

// envelope is the outer response shape shared by all Flutterwave endpoints.
// Status is a string here ("success"/"error"), unlike Paystack's boolean.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type customer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phonenumber,omitempty"`
}

type initializeRequest struct {
	TxRef          string         `json:"tx_ref"`
	Amount         float64        `json:"amount"`
	Currency       string         `json:"currency"`
	RedirectURL    string         `json:"redirect_url,omitempty"`
	PaymentOptions string         `json:"payment_options"`
	Meta           map[string]any `json:"meta,omitempty"`
	Customer       customer       `json:"customer"`
}

type initializeData struct {
	Link string `json:"link"`
}

type transactionData struct {
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	TxRef             string  `json:"tx_ref"`
	TxRefCamel        string  `json:"txRef"`
	ProcessorResponse string  `json:"processor_response"`
	Customer          struct {
		Email string `json:"email"`
	} `json:"customer"`
}

func (d transactionData) reference() string {
	if d.TxRef != "" {
		return d.TxRef
	}
	return d.TxRefCamel
}

// Initialize normalizes fields, POSTs to /v3/payments and, when the
// envelope status is "success", stores the hosted payment link. Flutterwave
// does not echo the tx_ref back on initialize, so the local reference
// stands.
func (t *Transaction) Initialize(ctx context.Context, fields gateway.Fields) error {
	if err := t.resolveFields(fields); err != nil {
		return err
	}

	body := initializeRequest{
		TxRef:          t.Reference(),
		Amount:         t.Amount(),
		Currency:       t.Currency(),
		RedirectURL:    t.RedirectURL(),
		PaymentOptions: defaultPayment,
		Meta:           t.Metadata(),
		Customer: customer{
			Email: t.Email(),
			Name:  t.PayerName(),
			Phone: t.PayerPhone(),
		},
	}
	encoded, _ := json.Marshal(body)
	t.SetRequestBody(encoded)

	res, err := t.client.Post(ctx, t.BaseURL()+"/v3/payments", body, t.Headers())
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

	if env.Status != "success" {
		t.Fail(res.StatusCode, env.Message)
		return nil
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	t.SetCheckoutURL(data.Link)
	t.Succeed(res.StatusCode, env.Message)
	return nil
}

// Verify GETs /v3/transactions/{reference}/verify and succeeds when the
// nested transaction status is "successful". Local amount, email and
// reference are overwritten from the authoritative gateway response.
func (t *Transaction) Verify(ctx context.Context, reference string) error {
	if reference == "" {
		reference = t.Reference()
	}
	if reference == "" {
		return gateway.NewError(gateway.ErrCodeReferenceRequired, "reference required")
	}

	res, err := t.client.Get(ctx, fmt.Sprintf("%s/v3/transactions/%s/verify", t.BaseURL(), reference), t.Headers())
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

	if env.Status != "success" {
		t.Fail(res.StatusCode, env.Message)
		return nil
	}

	var data transactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fail(res.StatusCode, "unreadable response from gateway")
		return nil
	}
	t.applyTransactionData(data)

	message := data.ProcessorResponse
	if message == "" {
		message = env.Message
	}
	if data.Status == "successful" {
		t.Succeed(res.StatusCode, message)
	} else {
		t.Fail(res.StatusCode, message)
	}
	return nil
}

// Webhook authenticates an inbound event: the request must be a POST whose
// verif-hash header matches the configured webhook hash exactly. Only a
// verified charge.completed event with a "successful" nested status flips
// Status to true.
func (t *Transaction) Webhook(ctx context.Context, req gateway.WebhookRequest) error {
	if req.Method != http.MethodPost {
		t.Fail(http.StatusBadRequest, "webhook must be delivered by POST")
		return gateway.NewError(gateway.ErrCodeInvalidMethod, "webhook must be delivered by POST")
	}

	if t.webhookHash == "" {
		t.Fail(http.StatusUnauthorized, "webhook hash not configured")
		return gateway.NewError(gateway.ErrCodeWebhookSecretRequired, "webhook hash not configured: call SetWebhookHash first")
	}

	received := req.Header.Get(hashHeader)
	if received == "" {
		t.Fail(http.StatusUnauthorized, "missing webhook hash")
		return gateway.NewError(gateway.ErrCodeMissingSignature, "missing "+hashHeader+" header")
	}
	if !hmac.Equal([]byte(received), []byte(t.webhookHash)) {
		t.Fail(http.StatusUnauthorized, "webhook hash mismatch")
		return gateway.NewError(gateway.ErrCodeInvalidSignature, "webhook hash mismatch")
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

	if event.Event != "" && event.Event != chargeCompleted {
		t.Fail(http.StatusOK, "ignoring event "+event.Event)
		return nil
	}

	var data transactionData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fail(http.StatusBadRequest, "unreadable webhook payload")
		return gateway.WrapError(gateway.ErrCodeInvalidPayload, "unreadable webhook payload", err)
	}
	t.applyTransactionData(data)

	message := data.ProcessorResponse
	if message == "" {
		message = chargeCompleted
	}
	if data.Status == "successful" {
		t.Succeed(http.StatusOK, message)
	} else {
		t.Fail(http.StatusOK, message)
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
		if !gateway.IsValidURL(fields.RedirectURL) {
			return gateway.NewError(gateway.ErrCodeInvalidURL, "invalid redirect url: "+fields.RedirectURL)
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
	if ref := data.reference(); ref != "" {
		t.SetReference(ref)
	}
}

func parseEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
