package security

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/webfolio/contact-gateway/config"
)

// OriginVerifier checks a request's declared origin against an exact-match
// allow-list. Configuration is injected explicitly; the verifier never reads
// ambient environment state.
type OriginVerifier struct {
	allowed map[string]struct{}
	relaxed bool
}

func NewOriginVerifier(cfg config.SecurityConfig) *OriginVerifier {
	allowed := make(map[string]struct{}, len(cfg.TrustedOrigins))
	for _, origin := range cfg.TrustedOrigins {
		allowed[strings.TrimSuffix(origin, "/")] = struct{}{}
	}
	return &OriginVerifier{
		allowed: allowed,
		relaxed: cfg.RelaxedOrigin,
	}
}

// Verify reports whether the request's origin is acceptable. The verdict is
// a plain boolean; there is no error path. The Origin header wins; when it
// is absent the origin is derived from Referer. In relaxed mode missing
// headers are accepted and localhost-like origins pass regardless of the
// allow-list. Relaxed mode is a development convenience, not a security
// boundary (config.Validate refuses it in production).
func (v *OriginVerifier) Verify(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if origin == "" {
		if referer := r.Header.Get("Referer"); referer != "" {
			if u, err := url.Parse(referer); err == nil && u.Scheme != "" && u.Host != "" {
				origin = u.Scheme + "://" + u.Host
			}
		}
	}

	if origin == "" {
		return v.relaxed
	}

	if v.relaxed && isLocalhostOrigin(origin) {
		return true
	}

	_, ok := v.allowed[strings.TrimSuffix(origin, "/")]
	return ok
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := u.Hostname()
	return host == "localhost" ||
		host == "127.0.0.1" ||
		host == "::1" ||
		strings.HasSuffix(host, ".localhost")
}
