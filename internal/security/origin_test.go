package security

import (
	"net/http/httptest"
	"testing"

	"github.com/webfolio/contact-gateway/config"
)

func newVerifier(relaxed bool) *OriginVerifier {
	return NewOriginVerifier(config.SecurityConfig{
		TrustedOrigins: []string{"https://example.com"},
		RelaxedOrigin:  relaxed,
	})
}

func TestOriginVerifierStrict(t *testing.T) {
	v := newVerifier(false)

	tests := []struct {
		name    string
		origin  string
		referer string
		want    bool
	}{
		{"allowed origin", "https://example.com", "", true},
		{"allowed origin with trailing slash", "https://example.com/", "", true},
		{"disallowed origin", "https://evil.example", "", false},
		{"missing headers rejected", "", "", false},
		{"origin derived from referer", "", "https://example.com/contact", true},
		{"referer from unknown site", "", "https://evil.example/page", false},
		{"localhost rejected in strict mode", "http://localhost:3000", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/contact", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}
			if got := v.Verify(r); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOriginVerifierRelaxed(t *testing.T) {
	v := newVerifier(true)

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"missing headers accepted", "", true},
		{"localhost accepted", "http://localhost:3000", true},
		{"loopback accepted", "http://127.0.0.1:8080", true},
		{"localhost subdomain accepted", "http://app.localhost", true},
		{"unknown origin still rejected", "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/contact", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := v.Verify(r); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
