// Package ratelimit implements the contact endpoint's two-tier admission
// gate: a fixed window counter per client identity, escalating into
// progressively longer blocks on repeated violations. The two tiers keep a
// single short burst from being punished as harshly as sustained abuse.
package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/webfolio/contact-gateway/internal/security"
	"github.com/webfolio/contact-gateway/internal/storage"
)

// Limiter checks per-identity request budgets against a KeyValueStore.
type Limiter struct {
	store     storage.KeyValueStore
	logger    *slog.Logger
	secEvents *security.EventLogger

	// prefix namespaces limiter keys in shared storage
	prefix string

	// cooldown is how long violation history outlives the last violation
	cooldown time.Duration
}

// Options configures a Limiter.
type Options struct {
	Prefix   string
	Cooldown time.Duration
}

func New(store storage.KeyValueStore, logger *slog.Logger, secEvents *security.EventLogger, opts Options) *Limiter {
	if opts.Prefix == "" {
		opts.Prefix = "ratelimit:"
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:     store,
		logger:    logger,
		secEvents: secEvents,
		prefix:    opts.Prefix,
		cooldown:  opts.Cooldown,
	}
}

// Check runs the admission decision for one request. It never returns an
// error: storage failures fail open (the request is admitted) with a
// high-severity security event, matching the rest of the pipeline's
// "never throw from the gate" contract.
func (l *Limiter) Check(ctx context.Context, identity string, window time.Duration, max int) Result {
	now := time.Now()

	// An active block rejects unconditionally, regardless of window state.
	// Requests made while blocked do not count as new violations; blocks
	// would otherwise extend themselves indefinitely.
	block, err := l.loadBlock(ctx, identity)
	if err != nil {
		return l.failOpen(ctx, identity, window, max, err)
	}
	if block.Active(now) {
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetTime: block.BlockUntil,
			Block:     block,
		}
	}

	// An already-exceeded window is not incremented further; the counter
	// only grows while the client is under budget.
	current, err := l.peekWindow(ctx, identity)
	if err != nil {
		return l.failOpen(ctx, identity, window, max, err)
	}

	if current < max {
		count, resetTime, err := l.countRequest(ctx, identity, window)
		if err != nil {
			return l.failOpen(ctx, identity, window, max, err)
		}
		if count <= max {
			return Result{
				Allowed:   true,
				Remaining: max - count,
				ResetTime: resetTime,
				Block:     block,
			}
		}
	}

	// Window exceeded: transition the progressive block automaton.
	resetTime := now.Add(window)
	if ttl, err := l.store.TTL(ctx, l.windowKey(identity)); err == nil && ttl != nil && *ttl > 0 {
		resetTime = now.Add(*ttl)
	}

	block = l.recordViolation(ctx, identity, block, now)

	reset := resetTime
	if block != nil && block.BlockUntil.After(reset) {
		reset = block.BlockUntil
	}

	return Result{
		Allowed:   false,
		Remaining: 0,
		ResetTime: reset,
		Block:     block,
	}
}

// ViolationRecord returns the current block info for an identity without
// mutating any state. Used by the health and admin surfaces.
func (l *Limiter) ViolationRecord(ctx context.Context, identity string) (*BlockInfo, error) {
	return l.loadBlock(ctx, identity)
}

func (l *Limiter) windowKey(identity string) string {
	return l.prefix + "window:" + identity
}

func (l *Limiter) blockKey(identity string) string {
	return l.prefix + "block:" + identity
}

// peekWindow reads the window counter without touching it. A missing or
// unreadable counter reads as zero.
func (l *Limiter) peekWindow(ctx context.Context, identity string) (int, error) {
	raw, found, err := l.store.Get(ctx, l.windowKey(identity))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) countRequest(ctx context.Context, identity string, window time.Duration) (int, time.Time, error) {
	key := l.windowKey(identity)

	count, err := l.store.Incr(ctx, key, &window)
	if err != nil {
		return 0, time.Time{}, err
	}

	resetTime := time.Now().Add(window)
	if ttl, err := l.store.TTL(ctx, key); err == nil && ttl != nil && *ttl > 0 {
		resetTime = time.Now().Add(*ttl)
	}

	return count, resetTime, nil
}

func (l *Limiter) loadBlock(ctx context.Context, identity string) (*BlockInfo, error) {
	raw, found, err := l.store.Get(ctx, l.blockKey(identity))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var block BlockInfo
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		// A corrupt record is dropped rather than trusted
		l.logger.Warn("dropping unreadable block record", "identity", identity, "error", err)
		_ = l.store.Delete(ctx, l.blockKey(identity))
		return nil, nil
	}
	return &block, nil
}

func (l *Limiter) recordViolation(ctx context.Context, identity string, block *BlockInfo, now time.Time) *BlockInfo {
	if block == nil {
		block = &BlockInfo{}
	}

	block.Violations++
	block.LastViolation = now

	level, duration := EscalationFor(block.Violations)
	block.EscalationLevel = level
	block.BlockUntil = now.Add(duration)

	// The record must outlive both the cooldown and the block itself
	ttl := l.cooldown
	if duration > ttl {
		ttl = duration
	}

	raw, err := json.Marshal(block)
	if err == nil {
		if err := l.store.Set(ctx, l.blockKey(identity), string(raw), &ttl); err != nil {
			l.logger.Error("failed to persist block record", "identity", identity, "error", err)
		}
	}

	if l.secEvents != nil {
		l.secEvents.Log(ctx, security.Event{
			Type:     "rate_limit_exceeded",
			IP:       identity,
			Severity: security.SeverityMedium,
			Details: map[string]any{
				"violations":       block.Violations,
				"escalation_level": block.EscalationLevel,
				"blocked_until":    block.BlockUntil.UTC().Format(time.RFC3339),
			},
		})
	}

	return block
}

func (l *Limiter) failOpen(ctx context.Context, identity string, window time.Duration, max int, err error) Result {
	l.logger.Error("rate limit storage unavailable, failing open", "identity", identity, "error", err)

	if l.secEvents != nil {
		l.secEvents.Log(ctx, security.Event{
			Type:     "rate_limit_storage_failure",
			IP:       identity,
			Severity: security.SeverityHigh,
			Details:  map[string]any{"error": err.Error()},
		})
	}

	return Result{
		Allowed:   true,
		Remaining: max,
		ResetTime: time.Now().Add(window),
	}
}
