package httpserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/paywith/paywith/pkg/responders"
)

// metricsAuth protects the /metrics endpoint with a bearer token.
// With no key configured the endpoint stays open, which suits local
// development and trusted networks.
func metricsAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			expected := "Bearer " + apiKey
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
				responders.JSON(w, http.StatusUnauthorized, errorBody{
					Error:   "unauthorised",
					Message: "invalid or missing metrics API key",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
