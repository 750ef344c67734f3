// Package metrics exposes Prometheus collectors for the security pipeline.
// Collectors are fed from the event bus, so instrumenting a new stage means
// publishing an event, not threading a counter through it.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/webfolio/contact-gateway/events"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	SecurityEvents *prometheus.CounterVec
	EmailsSent     prometheus.Counter
	EmailsFailed   prometheus.Counter
}

// New constructs and registers the collectors. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	securityEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contact_gateway",
		Subsystem: "security",
		Name:      "events_total",
		Help:      "Total number of security events partitioned by type.",
	}, []string{"type"})

	emailsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "contact_gateway",
		Subsystem: "email",
		Name:      "sent_total",
		Help:      "Total number of contact notifications delivered.",
	})

	emailsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "contact_gateway",
		Subsystem: "email",
		Name:      "failed_total",
		Help:      "Total number of contact notifications that failed to deliver.",
	})

	for _, collector := range []prometheus.Collector{securityEvents, emailsSent, emailsFailed} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, fmt.Errorf("register collector: %w", err)
			}
		}
	}

	return &Metrics{
		SecurityEvents: securityEvents,
		EmailsSent:     emailsSent,
		EmailsFailed:   emailsFailed,
	}, nil
}

// WireBus subscribes the collectors to the event bus.
func (m *Metrics) WireBus(bus *events.Bus) error {
	securityTopics := []string{
		events.EventRateLimitExceeded,
		events.EventStorageFailure,
		events.EventClientBlocked,
		events.EventOriginRejected,
		events.EventCSRFViolation,
		events.EventSpamDetected,
	}

	for _, topic := range securityTopics {
		label := strings.TrimPrefix(topic, events.SecurityTopicPrefix)
		if err := bus.Subscribe(topic, func(ctx context.Context, event events.Event) error {
			m.SecurityEvents.WithLabelValues(label).Inc()
			return nil
		}); err != nil {
			return err
		}
	}

	if err := bus.Subscribe(events.EventEmailSent, func(ctx context.Context, event events.Event) error {
		m.EmailsSent.Inc()
		return nil
	}); err != nil {
		return err
	}

	return bus.Subscribe(events.EventEmailFailed, func(ctx context.Context, event events.Event) error {
		m.EmailsFailed.Inc()
		return nil
	})
}
