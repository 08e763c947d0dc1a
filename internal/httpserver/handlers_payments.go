package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paywith/paywith/internal/logger"
	"github.com/paywith/paywith/internal/refstore"
	"github.com/paywith/paywith/pkg/paywith"
	"github.com/paywith/paywith/pkg/paywith/gateway"
	"github.com/paywith/paywith/pkg/responders"
)

// createPaymentRequest is the JSON body for POST /payments.
type createPaymentRequest struct {
	Gateway     string         `json:"gateway,omitempty"`
	Amount      float64        `json:"amount"`
	Email       string         `json:"email"`
	Name        string         `json:"name,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	RedirectURL string         `json:"redirect_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// paymentResponse is the JSON shape for payment state.
type paymentResponse struct {
	Gateway     string  `json:"gateway"`
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	Email       string  `json:"email,omitempty"`
	Currency    string  `json:"currency,omitempty"`
	CheckoutURL string  `json:"checkout_url,omitempty"`
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
}

// createPayment initializes a payment with the requested gateway and
// persists the resulting record.
func (h *handlers) createPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createPaymentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		responders.Error(w, gateway.WrapError(gateway.ErrCodeInvalidPayload, "invalid request body", err))
		return
	}

	gatewayName := req.Gateway
	if gatewayName == "" {
		gatewayName = h.cfg.Gateways.Default
	}

	tx, err := h.transactionFor(gatewayName)
	if err != nil {
		responders.Error(w, err)
		return
	}

	start := time.Now()
	err = tx.Initialize(r.Context(), paywith.Fields{
		Amount:      req.Amount,
		Email:       req.Email,
		Name:        req.Name,
		Phone:       req.Phone,
		Currency:    req.Currency,
		Reference:   req.Reference,
		RedirectURL: req.RedirectURL,
		Metadata:    req.Metadata,
	})
	if h.metrics != nil {
		h.metrics.ObserveInitialization(tx.Name(), err == nil && tx.Status(), time.Since(start))
	}
	if err != nil {
		log.Warn().
			Str("gateway", tx.Name()).
			Str("code", string(gateway.CodeOf(err))).
			Msg("payment.initialize.rejected")
		responders.Error(w, err)
		return
	}

	checkoutURL, _ := tx.Checkout()
	status := refstore.StatusPending
	if !tx.Status() {
		status = refstore.StatusFailed
	}

	rec := refstore.Record{
		Gateway:     tx.Name(),
		Reference:   tx.Reference(),
		Amount:      tx.Amount(),
		Email:       tx.Email(),
		Currency:    req.Currency,
		CheckoutURL: checkoutURL,
		Status:      status,
		Message:     tx.Message(),
	}
	if err := h.store.Save(r.Context(), rec); err != nil {
		log.Error().Err(err).Str("reference", rec.Reference).Msg("payment.record.save_failed")
	}

	if !tx.Status() {
		log.Warn().
			Str("gateway", tx.Name()).
			Int("upstream_status", tx.StatusCode()).
			Msg("payment.initialize.failed")
		responders.JSON(w, http.StatusBadGateway, paymentResponse{
			Gateway:   tx.Name(),
			Reference: tx.Reference(),
			Amount:    tx.Amount(),
			Status:    refstore.StatusFailed,
			Message:   tx.Message(),
		})
		return
	}

	log.Info().
		Str("gateway", tx.Name()).
		Str("reference", tx.Reference()).
		Str("email", logger.RedactEmail(tx.Email())).
		Msg("payment.initialized")

	responders.JSON(w, http.StatusCreated, paymentResponse{
		Gateway:     tx.Name(),
		Reference:   tx.Reference(),
		Amount:      tx.Amount(),
		Email:       tx.Email(),
		Currency:    req.Currency,
		CheckoutURL: checkoutURL,
		Status:      refstore.StatusPending,
		Message:     tx.Message(),
	})
}

// verifyPayment re-checks a payment's state with its gateway and updates
// the stored record.
func (h *handlers) verifyPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	reference := chi.URLParam(r, "reference")

	gatewayName := r.URL.Query().Get("gateway")
	var stored refstore.Record
	if rec, err := h.store.Get(r.Context(), reference); err == nil {
		stored = rec
		if gatewayName == "" {
			gatewayName = rec.Gateway
		}
	}
	if gatewayName == "" {
		gatewayName = h.cfg.Gateways.Default
	}

	tx, err := h.transactionFor(gatewayName)
	if err != nil {
		responders.Error(w, err)
		return
	}

	start := time.Now()
	err = tx.Verify(r.Context(), reference)
	if h.metrics != nil {
		h.metrics.ObserveVerification(tx.Name(), err == nil && tx.Status(), time.Since(start), tx.Amount(), stored.Currency)
	}
	if err != nil {
		responders.Error(w, err)
		return
	}

	status := refstore.StatusUnknown
	if tx.Status() {
		status = refstore.StatusPaid
	} else if tx.StatusCode() == http.StatusOK {
		// The gateway answered but the charge is not successful
		status = refstore.StatusFailed
	}

	if updateErr := h.store.UpdateStatus(r.Context(), reference, status, tx.Message()); updateErr != nil && !errors.Is(updateErr, refstore.ErrNotFound) {
		log.Error().Err(updateErr).Str("reference", reference).Msg("payment.record.update_failed")
	}

	log.Info().
		Str("gateway", tx.Name()).
		Str("reference", reference).
		Bool("paid", tx.Status()).
		Msg("payment.verified")

	responders.JSON(w, http.StatusOK, paymentResponse{
		Gateway:   tx.Name(),
		Reference: tx.Reference(),
		Amount:    tx.Amount(),
		Email:     tx.Email(),
		Currency:  stored.Currency,
		Status:    status,
		Message:   tx.Message(),
	})
}

// getPayment returns the stored record for a reference.
func (h *handlers) getPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	rec, err := h.store.Get(r.Context(), reference)
	if errors.Is(err, refstore.ErrNotFound) {
		responders.JSON(w, http.StatusNotFound, errorBody{
			Error:   "not_found",
			Message: "no payment with reference " + reference,
		})
		return
	}
	if err != nil {
		responders.Error(w, err)
		return
	}

	responders.JSON(w, http.StatusOK, recordResponse(rec))
}

// listPayments returns stored records, newest first.
func (h *handlers) listPayments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := h.store.List(r.Context(), limit)
	if err != nil {
		responders.Error(w, err)
		return
	}

	out := make([]paymentResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recordResponse(rec))
	}
	responders.JSON(w, http.StatusOK, map[string]any{
		"payments": out,
		"count":    len(out),
	})
}

// health reports liveness.
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	responders.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"gateway": h.cfg.Gateways.Default,
		"storage": h.store.Driver(),
	})
}

func recordResponse(rec refstore.Record) paymentResponse {
	return paymentResponse{
		Gateway:     rec.Gateway,
		Reference:   rec.Reference,
		Amount:      rec.Amount,
		Email:       rec.Email,
		Currency:    rec.Currency,
		CheckoutURL: rec.CheckoutURL,
		Status:      rec.Status,
		Message:     rec.Message,
	}
}

// errorBody mirrors the responders error shape for handler-local errors.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
