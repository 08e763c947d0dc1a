package httpserver

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paywith/paywith/internal/logger"
	"github.com/paywith/paywith/internal/refstore"
	"github.com/paywith/paywith/pkg/paywith"
	"github.com/paywith/paywith/pkg/paywith/gateway"
	"github.com/paywith/paywith/pkg/responders"
)

// maxWebhookBody caps webhook payload size. Gateway events are small; a
// larger body is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// handleWebhook processes an incoming gateway webhook delivery. Signature
// rejection returns 401 so the gateway retries only transient failures;
// malformed payloads return 400.
func (h *handlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	gatewayName := chi.URLParam(r, "gateway")
	start := time.Now()

	tx, err := h.transactionFor(gatewayName)
	if err != nil {
		responders.Error(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error().Err(err).Msg("webhook.read_body_failed")
		responders.Error(w, gateway.WrapError(gateway.ErrCodeInvalidPayload, "read body", err))
		return
	}

	err = tx.Webhook(r.Context(), paywith.WebhookRequest{
		Method: r.Method,
		Body:   body,
		Header: r.Header,
	})
	if err != nil {
		outcome := "rejected_payload"
		code := gateway.CodeOf(err)
		if code == gateway.ErrCodeInvalidSignature || code == gateway.ErrCodeMissingSignature {
			outcome = "rejected_signature"
		}
		if h.metrics != nil {
			h.metrics.ObserveWebhook(tx.Name(), outcome, time.Since(start))
		}
		log.Warn().
			Str("gateway", tx.Name()).
			Str("code", string(code)).
			Msg("webhook.rejected")
		responders.Error(w, err)
		return
	}

	if !tx.Status() {
		// Verified delivery for an event we do not act on
		if h.metrics != nil {
			h.metrics.ObserveWebhook(tx.Name(), "ignored", time.Since(start))
		}
		log.Info().
			Str("gateway", tx.Name()).
			Msg("webhook.ignored")
		responders.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if err := h.recordWebhookPayment(r, tx); err != nil {
		log.Error().Err(err).Str("reference", tx.Reference()).Msg("webhook.record_failed")
	}

	if h.metrics != nil {
		h.metrics.ObserveWebhook(tx.Name(), "accepted", time.Since(start))
	}
	log.Info().
		Str("gateway", tx.Name()).
		Str("reference", tx.Reference()).
		Str("email", logger.RedactEmail(tx.Email())).
		Msg("webhook.accepted")

	responders.JSON(w, http.StatusOK, map[string]any{
		"received":  true,
		"reference": tx.Reference(),
	})
}

// recordWebhookPayment marks the referenced record paid, creating it when
// the webhook arrives for a payment initialized elsewhere.
func (h *handlers) recordWebhookPayment(r *http.Request, tx paywith.Transaction) error {
	err := h.store.UpdateStatus(r.Context(), tx.Reference(), refstore.StatusPaid, tx.Message())
	if !errors.Is(err, refstore.ErrNotFound) {
		return err
	}

	return h.store.Save(r.Context(), refstore.Record{
		Gateway:   tx.Name(),
		Reference: tx.Reference(),
		Amount:    tx.Amount(),
		Email:     tx.Email(),
		Status:    refstore.StatusPaid,
		Message:   tx.Message(),
	})
}
