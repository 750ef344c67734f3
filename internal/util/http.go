package util

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the sentinel identity used when no address can be derived.
const UnknownClient = "unknown"

// ExtractClientIP extracts a best-effort client identity from proxy headers.
// Checks X-Forwarded-For, X-Real-IP and CF-Connecting-IP in that order, then
// falls back to RemoteAddr. The result is not authenticated; it is a
// correlation handle for rate limiting, not a security principal.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// May contain multiple IPs; take the first
		ips := strings.Split(xff, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	if r.RemoteAddr != "" {
		// RemoteAddr might include port, extract just the IP
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return ip
	}

	return UnknownClient
}

// MaskIP masks the last octet of an IPv4 address for GDPR compliance
// Example: "1.2.3.4" -> "1.2.3.x"
// For IPv6 or other formats, returns the original string unchanged
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}

	if strings.Count(ip, ":") == 0 && strings.Count(ip, ".") == 3 {
		parts := strings.Split(ip, ".")
		if len(parts) == 4 {
			parts[3] = "x"
			return strings.Join(parts, ".")
		}
	}

	return ip
}
