// Package mail delivers assembled contact notifications. Providers are
// interchangeable; the service tries the configured primary and falls back
// to a secondary provider when one is configured.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotConfigured = errors.New("mail credentials are not configured")

// Mailer sends a single multi-part message. Implementations make one
// best-effort attempt; retry policy lives with the caller (the browser
// resubmits, gated by the rate limiter).
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Service wraps a primary provider with an optional fallback.
type Service struct {
	logger   *slog.Logger
	primary  Mailer
	fallback Mailer
}

func NewService(logger *slog.Logger, primary, fallback Mailer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
	}
}

// Send tries the primary provider, then the fallback. The original primary
// error is returned when both fail, so the caller logs the root cause.
func (s *Service) Send(ctx context.Context, to, subject, text, html string) error {
	if s.primary == nil {
		return ErrNotConfigured
	}

	err := s.primary.Send(ctx, to, subject, text, html)
	if err == nil {
		return nil
	}

	s.logger.Warn("primary email provider failed", "to", to, "subject", subject, "error", err)

	if s.fallback != nil {
		fallbackErr := s.fallback.Send(ctx, to, subject, text, html)
		if fallbackErr == nil {
			s.logger.Info("fallback email provider succeeded", "to", to)
			return nil
		}
		s.logger.Error("fallback email provider also failed", "to", to, "error", fallbackErr)
	}

	return fmt.Errorf("email delivery failed: %w", err)
}
