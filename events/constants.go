package events

// SecurityTopicPrefix namespaces security event topics on the bus.
const SecurityTopicPrefix = "security."

// Event topics published on the bus. Sinks subscribe per topic.
const (
	EventRateLimitExceeded = SecurityTopicPrefix + "rate_limit_exceeded"
	EventStorageFailure    = SecurityTopicPrefix + "rate_limit_storage_failure"
	EventClientBlocked     = SecurityTopicPrefix + "client_blocked"
	EventOriginRejected    = SecurityTopicPrefix + "origin_rejected"
	EventCSRFViolation     = SecurityTopicPrefix + "csrf_violation"
	EventSpamDetected      = SecurityTopicPrefix + "spam_detected"
	EventEmailSent         = "email.sent"
	EventEmailFailed       = "email.failed"
)
