package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is a machine-readable identifier for a failure class, used by
// callers to branch without string matching on messages.
type ErrorCode string

// Validation errors (caller-supplied field missing or malformed).
const (
	ErrCodeAmountRequired      ErrorCode = "amount_required"
	ErrCodeEmailRequired       ErrorCode = "email_required"
	ErrCodeInvalidEmail        ErrorCode = "invalid_email"
	ErrCodeInvalidURL          ErrorCode = "invalid_url"
	ErrCodeUnsupportedCurrency ErrorCode = "unsupported_currency"
	ErrCodeReferenceRequired   ErrorCode = "reference_required"
	ErrCodeCheckoutUnavailable ErrorCode = "checkout_unavailable"
)

// Configuration errors (merchant-side setup problems, raised before any
// network call).
const (
	ErrCodeSecretKeyRequired     ErrorCode = "secret_key_required"
	ErrCodeWebhookSecretRequired ErrorCode = "webhook_secret_required"
	ErrCodeUnsupportedGateway    ErrorCode = "unsupported_gateway"
	ErrCodeGatewayNotImplemented ErrorCode = "gateway_not_implemented"
)

// Webhook errors. Signature failures must still produce a definitive HTTP
// response so the gateway's retry loop observes a terminal outcome.
const (
	ErrCodeInvalidMethod    ErrorCode = "invalid_method"
	ErrCodeMissingSignature ErrorCode = "missing_signature"
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"
	ErrCodeInvalidPayload   ErrorCode = "invalid_payload"
)

// Transport and upstream errors. These are normally folded into the
// transaction's (status, statusCode, message) triple rather than returned.
const (
	ErrCodeTransport ErrorCode = "transport_error"
	ErrCodeUpstream  ErrorCode = "upstream_error"
)

// HTTPStatus maps an error code to the response code the webhook glue (or
// any HTTP surface) should answer with.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeMissingSignature, ErrCodeInvalidSignature, ErrCodeWebhookSecretRequired:
		return http.StatusUnauthorized
	case ErrCodeSecretKeyRequired, ErrCodeGatewayNotImplemented:
		return http.StatusInternalServerError
	case ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// Error is the typed failure returned by gateway operations for validation,
// configuration, and signature problems. Transport and upstream failures are
// not returned as errors; they set the transaction's status triple instead.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error with a message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds an Error carrying an underlying cause.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a gateway
// error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
