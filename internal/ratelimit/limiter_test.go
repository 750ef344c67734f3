package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/webfolio/contact-gateway/internal/storage"
)

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	store := storage.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })
	return New(store, nil, nil, Options{})
}

func TestEscalationTable(t *testing.T) {
	tests := []struct {
		violations   int
		wantLevel    int
		wantDuration time.Duration
	}{
		{1, 1, 5 * time.Minute},
		{2, 2, 10 * time.Minute},
		{3, 3, 30 * time.Minute},
		{4, 3, 30 * time.Minute},
		{5, 4, 1 * time.Hour},
		{7, 4, 1 * time.Hour},
		{8, 5, 2 * time.Hour},
		{10, 5, 2 * time.Hour},
		{11, 6, 24 * time.Hour},
		{50, 6, 24 * time.Hour},
	}

	for _, tt := range tests {
		level, duration := EscalationFor(tt.violations)
		if level != tt.wantLevel || duration != tt.wantDuration {
			t.Errorf("EscalationFor(%d) = (%d, %v), want (%d, %v)",
				tt.violations, level, duration, tt.wantLevel, tt.wantDuration)
		}
	}
}

func TestEscalationLevelMonotonic(t *testing.T) {
	prev := 0
	for violations := 1; violations <= 20; violations++ {
		level, _ := EscalationFor(violations)
		if level < prev {
			t.Fatalf("level decreased at %d violations: %d -> %d", violations, prev, level)
		}
		prev = level
	}
}

func TestCheckAllowsWithinWindow(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	max := 5
	for i := 1; i <= max; i++ {
		res := l.Check(ctx, "203.0.113.7", 15*time.Minute, max)
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if res.Remaining != max-i {
			t.Errorf("request %d: remaining = %d, want %d", i, res.Remaining, max-i)
		}
	}
}

func TestCheckDeniesOnceExceeded(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	max := 5
	for i := 0; i < max; i++ {
		l.Check(ctx, "203.0.113.7", 15*time.Minute, max)
	}

	res := l.Check(ctx, "203.0.113.7", 15*time.Minute, max)
	if res.Allowed {
		t.Fatal("request past the limit must be denied")
	}
	if res.Block == nil {
		t.Fatal("first violation should create a block record")
	}
	if res.Block.EscalationLevel != 1 {
		t.Errorf("first violation level = %d, want 1", res.Block.EscalationLevel)
	}
	if res.Block.Violations != 1 {
		t.Errorf("violations = %d, want 1", res.Block.Violations)
	}
	if res.RetryAfter(time.Now()) < 1 {
		t.Error("RetryAfter must be at least 1 second")
	}

	// All further calls in the window are rejected without new violations
	for i := 0; i < 3; i++ {
		res = l.Check(ctx, "203.0.113.7", 15*time.Minute, max)
		if res.Allowed {
			t.Fatal("blocked client must be rejected unconditionally")
		}
	}
	if res.Block.Violations != 1 {
		t.Errorf("requests during a block must not add violations, got %d", res.Block.Violations)
	}
}

func TestCheckExceededWindowNotIncremented(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()
	l := New(store, nil, nil, Options{})
	ctx := context.Background()

	max := 5
	for i := 0; i < max; i++ {
		l.Check(ctx, "203.0.113.7", 15*time.Minute, max)
	}

	for i := 0; i < 3; i++ {
		if res := l.Check(ctx, "203.0.113.7", 15*time.Minute, max); res.Allowed {
			t.Fatal("request past the limit must be denied")
		}
	}

	// The counter only grows while the client is under budget
	raw, found, err := store.Get(ctx, l.windowKey("203.0.113.7"))
	if err != nil || !found {
		t.Fatalf("window counter missing: found=%v err=%v", found, err)
	}
	if raw != "5" {
		t.Errorf("window counter = %s, want 5", raw)
	}
}

func TestCheckIdentitiesAreIndependent(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		l.Check(ctx, "203.0.113.7", 15*time.Minute, 5)
	}

	res := l.Check(ctx, "198.51.100.3", 15*time.Minute, 5)
	if !res.Allowed {
		t.Error("a different identity must not inherit another's block")
	}
}

func TestRecordViolationEscalates(t *testing.T) {
	store := storage.NewMemoryStore(time.Hour)
	defer store.Close()
	l := New(store, nil, nil, Options{})
	ctx := context.Background()

	var block *BlockInfo
	now := time.Now()

	prev := 0
	for i := 1; i <= 12; i++ {
		block = l.recordViolation(ctx, "203.0.113.7", block, now)
		if block.Violations != i {
			t.Fatalf("violations = %d, want %d", block.Violations, i)
		}
		wantLevel, wantDuration := EscalationFor(i)
		if block.EscalationLevel != wantLevel {
			t.Errorf("violation %d: level = %d, want %d", i, block.EscalationLevel, wantLevel)
		}
		if got := block.BlockUntil.Sub(now); got != wantDuration {
			t.Errorf("violation %d: block duration = %v, want %v", i, got, wantDuration)
		}
		if block.EscalationLevel < prev {
			t.Errorf("violation %d: level decreased %d -> %d", i, prev, block.EscalationLevel)
		}
		prev = block.EscalationLevel
	}

	// Record survives in storage and round-trips
	loaded, err := l.ViolationRecord(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil || loaded.Violations != 12 || loaded.EscalationLevel != 6 {
		t.Errorf("persisted record = %+v", loaded)
	}
}

// brokenStore fails every operation, to exercise the fail-open path.
type brokenStore struct{}

var errBroken = errors.New("storage down")

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errBroken
}
func (brokenStore) Set(ctx context.Context, key string, value string, ttl *time.Duration) error {
	return errBroken
}
func (brokenStore) Delete(ctx context.Context, key string) error { return errBroken }
func (brokenStore) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	return 0, errBroken
}
func (brokenStore) TTL(ctx context.Context, key string) (*time.Duration, error) {
	return nil, errBroken
}
func (brokenStore) Close() error { return nil }

func TestCheckFailsOpenOnStorageError(t *testing.T) {
	l := New(brokenStore{}, nil, nil, Options{})

	res := l.Check(context.Background(), "203.0.113.7", 15*time.Minute, 5)
	if !res.Allowed {
		t.Error("storage failure must fail open")
	}
}
