package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the payment server.
type Metrics struct {
	// Payment lifecycle metrics
	InitializationsTotal *prometheus.CounterVec
	VerificationsTotal   *prometheus.CounterVec
	PaymentAmountTotal   *prometheus.CounterVec
	GatewayDuration      *prometheus.HistogramVec

	// Webhook metrics
	WebhooksTotal   *prometheus.CounterVec
	WebhookDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHitsTotal *prometheus.CounterVec

	// Storage metrics
	StoreOpDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		InitializationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paywith_initializations_total",
				Help: "Total number of payment initialization attempts",
			},
			[]string{"gateway", "status"},
		),
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paywith_verifications_total",
				Help: "Total number of payment verification attempts",
			},
			[]string{"gateway", "status"},
		),
		PaymentAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paywith_payment_amount_total",
				Help: "Total verified payment amount in gateway-native units",
			},
			[]string{"gateway", "currency"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paywith_gateway_duration_seconds",
				Help:    "Time taken for gateway round trips (supports p50, p95, p99 percentiles)",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"gateway", "operation"},
		),

		WebhooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paywith_webhooks_total",
				Help: "Total number of webhook deliveries received",
			},
			[]string{"gateway", "outcome"},
		),
		WebhookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paywith_webhook_duration_seconds",
				Help:    "Time taken to process an incoming webhook",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"gateway"},
		),

		RateLimitHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paywith_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"limit_type"},
		),

		StoreOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paywith_store_op_duration_seconds",
				Help:    "Payment record store operation duration",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation", "driver"},
		),
	}
}

// ObserveInitialization records a payment initialization attempt and its outcome.
func (m *Metrics) ObserveInitialization(gateway string, success bool, duration time.Duration) {
	m.InitializationsTotal.WithLabelValues(gateway, statusLabel(success)).Inc()
	m.GatewayDuration.WithLabelValues(gateway, "initialize").Observe(duration.Seconds())
}

// ObserveVerification records a verification attempt. Verified amounts feed
// the per-currency payment volume counter.
func (m *Metrics) ObserveVerification(gateway string, success bool, duration time.Duration, amount float64, currency string) {
	m.VerificationsTotal.WithLabelValues(gateway, statusLabel(success)).Inc()
	m.GatewayDuration.WithLabelValues(gateway, "verify").Observe(duration.Seconds())
	if success && amount > 0 {
		m.PaymentAmountTotal.WithLabelValues(gateway, currency).Add(amount)
	}
}

// ObserveWebhook records an incoming webhook delivery. Outcome is one of
// "accepted", "rejected_signature", "rejected_payload", "ignored".
func (m *Metrics) ObserveWebhook(gateway, outcome string, duration time.Duration) {
	m.WebhooksTotal.WithLabelValues(gateway, outcome).Inc()
	m.WebhookDuration.WithLabelValues(gateway).Observe(duration.Seconds())
}

// ObserveRateLimit records a rate limit hit.
func (m *Metrics) ObserveRateLimit(limitType string) {
	m.RateLimitHitsTotal.WithLabelValues(limitType).Inc()
}

// ObserveStoreOp records a payment record store operation.
func (m *Metrics) ObserveStoreOp(operation, driver string, duration time.Duration) {
	m.StoreOpDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
