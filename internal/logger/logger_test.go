package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRedactSecret(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "empty", key: "", want: ""},
		{name: "short key fully hidden", key: "sk_abc", want: "[redacted]"},
		{name: "long key keeps prefix", key: "sk_test_51Hxxxxxxxxxxxx", want: "sk_test***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RedactSecret(tt.key); got != tt.want {
				t.Errorf("RedactSecret(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactSecretNeverLeaksTail(t *testing.T) {
	key := "sk_live_secrettail12345"
	got := RedactSecret(key)
	if strings.Contains(got, "secrettail") {
		t.Fatalf("RedactSecret leaked key material: %q", got)
	}
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"customer@example.com", "cu***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "[redacted]"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.email); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestFromContextFallsBackToNop(t *testing.T) {
	l := FromContext(context.Background())
	// Nop logger must be safe to use
	l.Info().Msg("ignored")

	ctx := WithContext(context.Background(), zerolog.New(nil))
	if got := FromContext(ctx); got.GetLevel() == zerolog.Disabled {
		t.Fatal("expected stored logger, got disabled fallback")
	}
}
