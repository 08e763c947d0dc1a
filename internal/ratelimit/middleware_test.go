package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}
	if cfg.Limit != 120 {
		t.Errorf("Expected limit 120, got %d", cfg.Limit)
	}
	if cfg.Window != 1*time.Minute {
		t.Errorf("Expected 1m window, got %v", cfg.Window)
	}
}

func TestIPLimiter_Disabled(t *testing.T) {
	cfg := Config{Enabled: false}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Should allow unlimited requests when disabled
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestIPLimiter_EnforcesLimit(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Limit:   5,
		Window:  1 * time.Second,
	}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// First 5 requests should succeed
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i, w.Code)
		}
	}

	// 6th request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after limit exceeded, got %d", w.Code)
	}

	// Check Retry-After header
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header to be set")
	}

	// Response body should be structured JSON
	var body rateLimitResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "rate_limit_exceeded" {
		t.Errorf("error field = %q", body.Error)
	}
	if body.RetryAfterSeconds != 1 {
		t.Errorf("retry_after_seconds = %d, want 1", body.RetryAfterSeconds)
	}
}

func TestIPLimiter_SeparatesClients(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Limit:   2,
		Window:  1 * time.Second,
	}
	limiter := IPLimiter(cfg)

	handler := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust the first client's budget
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
	}

	// A different client is unaffected
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("second client: expected 200, got %d", w.Code)
	}
}
