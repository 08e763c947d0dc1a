package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("metrics collector should not be nil")
	}

	// Verify all metrics are initialized
	if m.InitializationsTotal == nil {
		t.Error("InitializationsTotal should be initialized")
	}
	if m.VerificationsTotal == nil {
		t.Error("VerificationsTotal should be initialized")
	}
	if m.PaymentAmountTotal == nil {
		t.Error("PaymentAmountTotal should be initialized")
	}
	if m.GatewayDuration == nil {
		t.Error("GatewayDuration should be initialized")
	}
	if m.WebhooksTotal == nil {
		t.Error("WebhooksTotal should be initialized")
	}
	if m.RateLimitHitsTotal == nil {
		t.Error("RateLimitHitsTotal should be initialized")
	}
	if m.StoreOpDuration == nil {
		t.Error("StoreOpDuration should be initialized")
	}
}

func TestObserveInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveInitialization("paystack", true, 200*time.Millisecond)
	m.ObserveInitialization("paystack", false, 100*time.Millisecond)

	success := promtest.ToFloat64(m.InitializationsTotal.WithLabelValues("paystack", "success"))
	if success != 1 {
		t.Errorf("expected 1 successful initialization, got %.0f", success)
	}
	failure := promtest.ToFloat64(m.InitializationsTotal.WithLabelValues("paystack", "failure"))
	if failure != 1 {
		t.Errorf("expected 1 failed initialization, got %.0f", failure)
	}
}

func TestObserveVerification(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveVerification("flutterwave", true, 150*time.Millisecond, 500, "NGN")
	m.ObserveVerification("flutterwave", false, 150*time.Millisecond, 0, "NGN")

	success := promtest.ToFloat64(m.VerificationsTotal.WithLabelValues("flutterwave", "success"))
	if success != 1 {
		t.Errorf("expected 1 successful verification, got %.0f", success)
	}

	amount := promtest.ToFloat64(m.PaymentAmountTotal.WithLabelValues("flutterwave", "NGN"))
	if amount != 500 {
		t.Errorf("expected verified amount 500, got %.0f", amount)
	}
}

func TestObserveVerificationFailureDoesNotCountAmount(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveVerification("stripe", false, time.Millisecond, 100, "USD")

	amount := promtest.ToFloat64(m.PaymentAmountTotal.WithLabelValues("stripe", "USD"))
	if amount != 0 {
		t.Errorf("failed verification must not add to amount, got %.0f", amount)
	}
}

func TestObserveWebhook(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveWebhook("paystack", "accepted", time.Millisecond)
	m.ObserveWebhook("paystack", "rejected_signature", time.Millisecond)

	accepted := promtest.ToFloat64(m.WebhooksTotal.WithLabelValues("paystack", "accepted"))
	if accepted != 1 {
		t.Errorf("expected 1 accepted webhook, got %.0f", accepted)
	}
	rejected := promtest.ToFloat64(m.WebhooksTotal.WithLabelValues("paystack", "rejected_signature"))
	if rejected != 1 {
		t.Errorf("expected 1 rejected webhook, got %.0f", rejected)
	}
}

func TestObserveRateLimit(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveRateLimit("per_ip")
	m.ObserveRateLimit("per_ip")

	hits := promtest.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("per_ip"))
	if hits != 2 {
		t.Errorf("expected 2 rate limit hits, got %.0f", hits)
	}
}
