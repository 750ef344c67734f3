package storage

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(time.Hour)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", nil); err != nil {
		t.Fatalf("set: %v", err)
	}

	val, ok, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || val != "v" {
		t.Errorf("got (%q, %v), want (v, true)", val, ok)
	}

	_, ok, err = s.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Error("missing key should report not found")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ttl := 10 * time.Millisecond
	if err := s.Set(ctx, "k", "v", &ttl); err != nil {
		t.Fatalf("set: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("expired key should lazy-evict on read")
	}
}

func TestMemoryStoreIncr(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ttl := time.Minute
	for i := 1; i <= 3; i++ {
		count, err := s.Incr(ctx, "counter", &ttl)
		if err != nil {
			t.Fatalf("incr %d: %v", i, err)
		}
		if count != i {
			t.Errorf("incr %d returned %d", i, count)
		}
	}

	remaining, err := s.TTL(ctx, "counter")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if remaining == nil || *remaining <= 0 || *remaining > time.Minute {
		t.Errorf("ttl = %v, want within (0, 1m]", remaining)
	}
}

func TestMemoryStoreIncrResetsAfterExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ttl := 10 * time.Millisecond
	if _, err := s.Incr(ctx, "counter", &ttl); err != nil {
		t.Fatalf("incr: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	count, err := s.Incr(ctx, "counter", &ttl)
	if err != nil {
		t.Fatalf("incr after expiry: %v", err)
	}
	if count != 1 {
		t.Errorf("counter should restart at 1 after expiry, got %d", count)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	short := time.Millisecond
	s.Set(ctx, "a", "1", &short)
	s.Set(ctx, "b", "2", &short)
	s.Set(ctx, "keep", "3", nil)

	evicted := s.Sweep(time.Now().Add(time.Second))
	if evicted != 2 {
		t.Errorf("sweep evicted %d, want 2", evicted)
	}

	_, ok, _ := s.Get(ctx, "keep")
	if !ok {
		t.Error("unexpired key must survive sweep")
	}
}
