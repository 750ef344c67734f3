package config

import (
	"fmt"
	"net/url"
)

// ValidateTrustedOrigins validates that all trusted origins are well-formed URLs
func ValidateTrustedOrigins(trustedOrigins []string) error {
	for _, origin := range trustedOrigins {
		// Parse as URL to validate format (scheme://host[:port])
		u, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("invalid trusted origin %q: %w", origin, err)
		}

		if u.Scheme == "" {
			return fmt.Errorf("trusted origin %q must include scheme (https:// or http://)", origin)
		}

		if u.Host == "" {
			return fmt.Errorf("trusted origin %q must include host", origin)
		}
	}

	return nil
}
