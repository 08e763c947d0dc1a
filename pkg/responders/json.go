package responders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paywith/paywith/pkg/paywith/gateway"
)

// JSON writes an application/json response with status code and payload.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

// errorBody is the JSON shape for error responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error writes a JSON error response. Gateway errors map their code to an
// HTTP status; anything else becomes a generic 500.
func Error(w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		JSON(w, gwErr.Code.HTTPStatus(), errorBody{
			Error:   string(gwErr.Code),
			Message: gwErr.Message,
		})
		return
	}
	JSON(w, http.StatusInternalServerError, errorBody{
		Error:   "internal_error",
		Message: "internal server error",
	})
}
