package security

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/webfolio/contact-gateway/events"
)

// Severity classifies security events for log routing.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string {
	return string(s)
}

// Event is an immutable security occurrence. It is written once by the
// emitting stage and consumed only by sinks; nothing in the request path
// reads it back.
type Event struct {
	Type      string         `json:"type"`
	IP        string         `json:"ip"`
	UserAgent string         `json:"user_agent,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}

// sensitiveKeys are redacted from event details outside debug mode.
var sensitiveKeys = []string{
	"token", "session", "password", "secret", "auth", "cookie", "key", "csrf",
}

// EventLogger records security events: severity-routed slog output plus a
// copy on the event bus for additional sinks. It is purely a side-effecting
// sink and never alters caller control flow; logging failures are swallowed.
type EventLogger struct {
	logger *slog.Logger
	bus    *events.Bus
	debug  bool
}

// NewEventLogger creates an event logger. bus may be nil, in which case
// events only go to the structured log. In debug mode details are logged
// verbatim; otherwise sensitive values are redacted.
func NewEventLogger(logger *slog.Logger, bus *events.Bus, debug bool) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{logger: logger, bus: bus, debug: debug}
}

// Log stamps, redacts and dispatches a security event.
func (l *EventLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	details := event.Details
	if !l.debug {
		details = RedactSensitive(details)
	}

	attrs := []any{
		"type", event.Type,
		"ip", event.IP,
		"severity", event.Severity.String(),
	}
	if event.UserAgent != "" {
		attrs = append(attrs, "user_agent", event.UserAgent)
	}
	if len(details) > 0 {
		attrs = append(attrs, "details", details)
	}

	switch event.Severity {
	case SeverityCritical, SeverityHigh:
		l.logger.Error("security event", attrs...)
	case SeverityMedium:
		l.logger.Warn("security event", attrs...)
	default:
		l.logger.Info("security event", attrs...)
	}

	if l.bus == nil {
		return
	}

	redacted := event
	redacted.Details = details
	payload, err := json.Marshal(redacted)
	if err != nil {
		return
	}
	_ = l.bus.Publish(ctx, events.Event{
		Type:    events.SecurityTopicPrefix + event.Type,
		Payload: payload,
	})
}

// RedactSensitive returns a copy of details with values under sensitive
// keys replaced by a length-preserving marker. Non-string values under
// sensitive keys are replaced wholesale.
func RedactSensitive(details map[string]any) map[string]any {
	if len(details) == 0 {
		return details
	}

	out := make(map[string]any, len(details))
	for key, value := range details {
		if !isSensitiveKey(key) {
			out[key] = value
			continue
		}
		if s, ok := value.(string); ok {
			out[key] = fmt.Sprintf("[REDACTED:%d chars]", len(s))
		} else {
			out[key] = "[REDACTED]"
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
