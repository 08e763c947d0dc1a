package gateway

import (
	"net/mail"
	"net/url"
	"strings"
)

// IsValidEmail reports whether s parses as an addr-spec. Display names
// ("A <a@b.com>") are rejected; gateways want the bare address.
func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// IsValidURL reports whether s is an absolute http(s) URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
