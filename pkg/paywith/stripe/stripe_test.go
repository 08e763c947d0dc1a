package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

func TestInitializeValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields gateway.Fields
		code   gateway.ErrorCode
	}{
		{"zero amount", gateway.Fields{Email: "a@b.com", RedirectURL: "https://x.com/r"}, gateway.ErrCodeAmountRequired},
		{"missing email", gateway.Fields{Amount: 10, RedirectURL: "https://x.com/r"}, gateway.ErrCodeEmailRequired},
		{"invalid email", gateway.Fields{Amount: 10, Email: "nope", RedirectURL: "https://x.com/r"}, gateway.ErrCodeInvalidEmail},
		{"unsupported currency", gateway.Fields{Amount: 10, Email: "a@b.com", Currency: "NGN", RedirectURL: "https://x.com/r"}, gateway.ErrCodeUnsupportedCurrency},
		{"missing redirect", gateway.Fields{Amount: 10, Email: "a@b.com"}, gateway.ErrCodeInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := New("sk_test_x")
			err := tx.Initialize(context.Background(), tt.fields)
			if gateway.CodeOf(err) != tt.code {
				t.Errorf("error code = %v, want %v", gateway.CodeOf(err), tt.code)
			}
		})
	}
}

// signPayload reproduces Stripe's v1 signature scheme:
// HMAC-SHA256 over "<timestamp>.<payload>" with the endpoint secret.
func signPayload(secret string, body []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

const completedEvent = `{
	"id": "evt_1",
	"object": "event",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"id": "cs_test_123",
			"object": "checkout.session",
			"amount_total": 2500,
			"currency": "usd",
			"payment_status": "paid",
			"customer_details": {"email": "u@x.com"}
		}
	}
}`

func TestWebhookSessionCompleted(t *testing.T) {
	body := []byte(completedEvent)
	header := http.Header{}
	header.Set("Stripe-Signature", signPayload("whsec_test", body, time.Now()))

	tx := New("sk_test_x")
	tx.SetWebhookSecret("whsec_test")

	if err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: body, Header: header}); err != nil {
		t.Fatalf("Webhook() error = %v", err)
	}
	if !tx.Status() {
		t.Fatalf("Status() = false, message %q", tx.Message())
	}
	if tx.Reference() != "cs_test_123" {
		t.Errorf("Reference() = %q", tx.Reference())
	}
	if tx.Amount() != 25 {
		t.Errorf("Amount() = %v, want 25 (major units)", tx.Amount())
	}
	if tx.Email() != "u@x.com" {
		t.Errorf("Email() = %q", tx.Email())
	}
}

func TestWebhookTamperedBody(t *testing.T) {
	body := []byte(completedEvent)
	header := http.Header{}
	header.Set("Stripe-Signature", signPayload("whsec_test", body, time.Now()))

	tampered := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_evil","object":"checkout.session","amount_total":1,"payment_status":"paid"}}}`)

	tx := New("sk_test_x")
	tx.SetWebhookSecret("whsec_test")

	err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: tampered, Header: header})
	if gateway.CodeOf(err) != gateway.ErrCodeInvalidSignature {
		t.Fatalf("error code = %v, want %v", gateway.CodeOf(err), gateway.ErrCodeInvalidSignature)
	}
	if tx.Status() {
		t.Error("Status() = true for a tampered webhook")
	}
	if tx.StatusCode() != http.StatusUnauthorized {
		t.Errorf("StatusCode() = %d, want 401", tx.StatusCode())
	}
}

func TestWebhookSecretRequired(t *testing.T) {
	tx := New("sk_test_x")
	err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: []byte(`{}`), Header: http.Header{}})
	if gateway.CodeOf(err) != gateway.ErrCodeWebhookSecretRequired {
		t.Errorf("error code = %v, want %v", gateway.CodeOf(err), gateway.ErrCodeWebhookSecretRequired)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	body := []byte(`{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{}}}`)
	header := http.Header{}
	header.Set("Stripe-Signature", signPayload("whsec_test", body, time.Now()))

	tx := New("sk_test_x")
	tx.SetWebhookSecret("whsec_test")

	if err := tx.Webhook(context.Background(), gateway.WebhookRequest{Method: http.MethodPost, Body: body, Header: header}); err != nil {
		t.Fatalf("Webhook() error = %v", err)
	}
	if tx.Status() {
		t.Error("Status() = true for an unrelated event type")
	}
}

func TestStripeCurrency(t *testing.T) {
	tests := []struct{ in, want string }{
		{"USD", "usd"},
		{"eur", "eur"},
		{"Gbp", "gbp"},
	}
	for _, tt := range tests {
		if got := stripeCurrency(tt.in); got != tt.want {
			t.Errorf("stripeCurrency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		major float64
		want  int64
	}{
		{10.50, 1050},
		{0.01, 1},
		{100, 10000},
		{19.99, 1999},
	}
	for _, tt := range tests {
		if got := toMinorUnits(tt.major); got != tt.want {
			t.Errorf("toMinorUnits(%v) = %d, want %d", tt.major, got, tt.want)
		}
	}
}
