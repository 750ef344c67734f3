package ratelimit

import "time"

// Result is the outcome of a rate limit check. It is always populated;
// the limiter never signals a decision through an error.
type Result struct {
	// Allowed indicates whether the request should be admitted
	Allowed bool
	// Remaining is the number of requests left in the current window
	Remaining int
	// ResetTime is when the current window (or active block) ends
	ResetTime time.Time
	// Block carries the violation record when the client has one
	Block *BlockInfo
}

// RetryAfter returns the number of seconds a rejected caller should wait.
func (r Result) RetryAfter(now time.Time) int {
	seconds := int(r.ResetTime.Sub(now).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// BlockInfo is the per-client violation record. Escalation level is a
// monotonic step function of cumulative violations; the record survives
// individual block expiries and is only dropped after the cooldown has
// passed with no new violations.
type BlockInfo struct {
	Violations      int       `json:"violations"`
	LastViolation   time.Time `json:"last_violation"`
	BlockUntil      time.Time `json:"block_until"`
	EscalationLevel int       `json:"escalation_level"`
}

// Active reports whether the client is currently inside a block window.
func (b *BlockInfo) Active(now time.Time) bool {
	return b != nil && now.Before(b.BlockUntil)
}

// escalationStep maps cumulative violations to a level and block duration.
type escalationStep struct {
	minViolations int
	level         int
	duration      time.Duration
}

// Highest step first; EscalationFor walks until a step matches.
var escalationSteps = []escalationStep{
	{11, 6, 24 * time.Hour},
	{8, 5, 2 * time.Hour},
	{5, 4, 1 * time.Hour},
	{3, 3, 30 * time.Minute},
	{2, 2, 10 * time.Minute},
	{1, 1, 5 * time.Minute},
}

// EscalationFor returns the escalation level and block duration for a
// cumulative violation count.
func EscalationFor(violations int) (int, time.Duration) {
	for _, step := range escalationSteps {
		if violations >= step.minViolations {
			return step.level, step.duration
		}
	}
	return 1, 5 * time.Minute
}
