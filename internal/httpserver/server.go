// Package httpserver exposes the payment gateway client over HTTP: payment
// initialization, verification, webhook intake, and operational endpoints.
package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/paywith/paywith/internal/config"
	"github.com/paywith/paywith/internal/logger"
	"github.com/paywith/paywith/internal/metrics"
	"github.com/paywith/paywith/internal/ratelimit"
	"github.com/paywith/paywith/internal/refstore"
	"github.com/paywith/paywith/pkg/paywith"
	"github.com/paywith/paywith/pkg/paywith/flutterwave"
	"github.com/paywith/paywith/pkg/paywith/gateway"
	stripegw "github.com/paywith/paywith/pkg/paywith/stripe"
)

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg        *config.Config
	store      refstore.Store
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	httpClient gateway.HTTPClient // optional transport override for gateways
}

// Option configures the server.
type Option func(*handlers)

// WithGatewayHTTPClient overrides the transport used for gateway calls.
func WithGatewayHTTPClient(c gateway.HTTPClient) Option {
	return func(h *handlers) {
		h.httpClient = c
	}
}

// New builds the HTTP server with configured router.
func New(cfg *config.Config, store refstore.Store, metricsCollector *metrics.Metrics, appLogger zerolog.Logger, opts ...Option) *Server {
	router := chi.NewRouter()

	h := handlers{
		cfg:     cfg,
		store:   store,
		metrics: metricsCollector,
		logger:  appLogger,
	}
	for _, opt := range opts {
		opt(&h)
	}

	s := &Server{
		handlers: h,
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	s.configureRouter(router)

	return s
}

// configureRouter attaches middleware and routes.
func (s *Server) configureRouter(router chi.Router) {
	cfg := s.cfg

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Location"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	// Security headers middleware (applied first for all responses)
	router.Use(securityHeadersMiddleware)

	// Structured logging middleware (before RequestID for context propagation)
	router.Use(logger.Middleware(s.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Use(ratelimit.IPLimiter(ratelimit.Config{
		Enabled: cfg.RateLimit.Enabled,
		Limit:   cfg.RateLimit.Limit,
		Window:  cfg.RateLimit.Window.Duration,
		Metrics: s.metrics,
	}))

	prefix := cfg.Server.RoutePrefix

	// Lightweight endpoints with a short timeout
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get(prefix+"/healthz", s.handlers.health)
		r.With(metricsAuth(cfg.Server.MetricsAPIKey)).Handle(prefix+"/metrics", promhttp.Handler())
	})

	// Payment endpoints with a timeout that covers a gateway round trip
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Post(prefix+"/payments", s.handlers.createPayment)
		r.Get(prefix+"/payments", s.handlers.listPayments)
		r.Get(prefix+"/payments/{reference}", s.handlers.getPayment)
		r.Get(prefix+"/payments/{reference}/verify", s.handlers.verifyPayment)

		// Webhook URLs stay stable; gateways are configured with these paths
		r.Post(prefix+"/webhooks/{gateway}", s.handlers.handleWebhook)
	})
}

// transactionFor builds a fully configured Transaction for a gateway name,
// including webhook verification secrets.
func (h *handlers) transactionFor(name string) (paywith.Transaction, error) {
	name = strings.ToLower(name)

	var opts []paywith.Option
	if h.httpClient != nil {
		opts = append(opts, paywith.WithHTTPClient(h.httpClient))
	}

	p, err := paywith.New(name, h.cfg.GatewaySecretKey(name), opts...)
	if err != nil {
		return nil, err
	}
	tx, err := p.Transaction()
	if err != nil {
		return nil, err
	}

	switch t := tx.(type) {
	case *flutterwave.Transaction:
		t.SetWebhookHash(h.cfg.Gateways.Flutterwave.WebhookHash)
	case *stripegw.Transaction:
		t.SetWebhookSecret(h.cfg.Gateways.Stripe.WebhookSecret)
	}

	return tx, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
