package flutterwave

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

type mockClient struct {
	res      *gateway.Result
	err      error
	lastURL  string
	lastBody any
}

func (m *mockClient) Post(_ context.Context, url string, body any, _ map[string]string) (*gateway.Result, error) {
	m.lastURL = url
	m.lastBody = body
	return m.res, m.err
}

func (m *mockClient) Get(_ context.Context, url string, _ map[string]string) (*gateway.Result, error) {
	m.lastURL = url
	return m.res, m.err
}

func TestInitializeSuccess(t *testing.T) {
	mock := &mockClient{res: &gateway.Result{
		StatusCode: 200,
		Body:       []byte(`{"status":"success","message":"Hosted Link","data":{"link":"https://api.flutterwave.com/v3/hosted/pay/f524c119"}}`),
	}}
	tx := New("FLWSECK_TEST", WithHTTPClient(mock))

	err := tx.Initialize(context.Background(), gateway.Fields{
		Amount:      1000,
		Email:       "afuwape@example.com",
		RedirectURL: "http://localhost:3000/verify",
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !tx.Status() {
		t.Fatalf("Status() = false, message %q", tx.Message())
	}
	if tx.CheckoutURL() != "https://api.flutterwave.com/v3/hosted/pay/f524c119" {
		t.Errorf("CheckoutURL() = %q", tx.CheckoutURL())
	}
	if tx.Message() != "Flutterwave: Hosted Link" {
		t.Errorf("Message() = %q", tx.Message())
	}
	if mock.lastURL != "https://api.flutterwave.com/v3/payments" {
		t.Errorf("posted to %q", mock.lastURL)
	}

	body := mock.lastBody.(initializeRequest)
	if body.TxRef != tx.Reference() || len(body.TxRef) != 14 {
		t.Errorf("tx_ref = %q, want the generated 14-char reference", body.TxRef)
	}
	if body.PaymentOptions != "card" {
		t.Errorf("payment_options = %q", body.PaymentOptions)
	}
	if body.Customer.Email != "afuwape@example.com" {
		t.Errorf("customer.email = %q", body.Customer.Email)
	}
}

func TestInitializeUpstreamError(t *testing.T) {
	mock := &mockClient{res: &gateway.Result{
		StatusCode: 200,
		Body:       []byte(`{"status":"error","message":"Invalid currency"}`),
	}}
	tx := New("FLWSECK_TEST", WithHTTPClient(mock))

	if err := tx.Initialize(context.Background(), gateway.Fields{Amount: 10, Email: "a@b.com"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if tx.Status() {
		t.Error("Status() = true for an error envelope")
	}
	if !strings.Contains(tx.Message(), "Invalid currency") {
		t.Errorf("Message() = %q", tx.Message())
	}
}

func TestVerifySuccessful(t *testing.T) {
	mock := &mockClient{res: &gateway.Result{
		StatusCode: 200,
		Body:       []byte(`{"status":"success","message":"Transaction fetched successfully","data":{"status":"successful","amount":500,"tx_ref":"TXN1","processor_response":"Approved","customer":{"email":"u@x.com"}}}`),
	}}
	tx := New("FLWSECK_TEST", WithHTTPClient(mock))

	if err := tx.Verify(context.Background(), "TXN1"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !tx.Status() {
		t.Fatalf("Status() = false, message %q", tx.Message())
	}
	if tx.Amount() != 500 {
		t.Errorf("Amount() = %v, want 500", tx.Amount())
	}
	if tx.Reference() != "TXN1" {
		t.Errorf("Reference() = %q", tx.Reference())
	}
	if mock.lastURL != "https://api.flutterwave.com/v3/transactions/TXN1/verify" {
		t.Errorf("requested %q", mock.lastURL)
	}
}

func TestVerifyFailedCharge(t *testing.T) {
	mock := &mockClient{res: &gateway.Result{
		StatusCode: 200,
		Body:       []byte(`{"status":"success","message":"Transaction fetched successfully","data":{"status":"failed","amount":500,"tx_ref":"TXN2","processor_response":"Declined by issuer","customer":{"email":"u@x.com"}}}`),
	}}
	tx := New("FLWSECK_TEST", WithHTTPClient(mock))

	if err := tx.Verify(context.Background(), "TXN2"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if tx.Status() {
		t.Error("Status() = true for a failed charge")
	}
	if !strings.Contains(tx.Message(), "Declined by issuer") {
		t.Errorf("Message() = %q", tx.Message())
	}
}

func TestWebhookVerified(t *testing.T) {
	body := []byte(`{"event":"charge.completed","data":{"status":"successful","amount":1000,"txRef":"TXN3","customer":{"email":"u@x.com"}}}`)
	header := http.Header{}
	header.Set("verif-hash", "RAVE-SK-HASH")

	tx := New("FLWSECK_TEST")
	tx.SetWebhookHash("RAVE-SK-HASH")

	if err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: body, Header: header}); err != nil {
		t.Fatalf("Webhook() error = %v", err)
	}
	if !tx.Status() {
		t.Fatalf("Status() = false, message %q", tx.Message())
	}
	if tx.Reference() != "TXN3" || tx.Amount() != 1000 || tx.Email() != "u@x.com" {
		t.Errorf("extracted ref=%q amount=%v email=%q", tx.Reference(), tx.Amount(), tx.Email())
	}
}

func TestWebhookHashMismatch(t *testing.T) {
	header := http.Header{}
	header.Set("verif-hash", "guessed-hash")

	tx := New("FLWSECK_TEST")
	tx.SetWebhookHash("RAVE-SK-HASH")

	err := tx.Webhook(context.Background(), gateway.WebhookRequest{
		Method: http.MethodPost,
		Body:   []byte(`{"data":{"status":"successful","amount":1000}}`),
		Header: header,
	})
	if gateway.CodeOf(err) != gateway.ErrCodeInvalidSignature {
		t.Fatalf("error code = %v, want %v", gateway.CodeOf(err), gateway.ErrCodeInvalidSignature)
	}
	if tx.Status() {
		t.Error("Status() = true despite hash mismatch")
	}
	if tx.StatusCode() != http.StatusUnauthorized {
		t.Errorf("StatusCode() = %d, want 401", tx.StatusCode())
	}
}

func TestWebhookHashNotConfigured(t *testing.T) {
	header := http.Header{}
	header.Set("verif-hash", "RAVE-SK-HASH")

	tx := New("FLWSECK_TEST")
	err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: []byte(`{}`), Header: header})
	if gateway.CodeOf(err) != gateway.ErrCodeWebhookSecretRequired {
		t.Errorf("error code = %v, want %v", gateway.CodeOf(err), gateway.ErrCodeWebhookSecretRequired)
	}
}

func TestWebhookFailedCharge(t *testing.T) {
	body := []byte(`{"event":"charge.completed","data":{"status":"failed","amount":1000,"txRef":"TXN4","customer":{"email":"u@x.com"}}}`)
	header := http.Header{}
	header.Set("verif-hash", "RAVE-SK-HASH")

	tx := New("FLWSECK_TEST")
	tx.SetWebhookHash("RAVE-SK-HASH")

	if err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: body, Header: header}); err != nil {
		t.Fatalf("Webhook() error = %v", err)
	}
	if tx.Status() {
		t.Error("Status() = true for a failed charge event")
	}
}
