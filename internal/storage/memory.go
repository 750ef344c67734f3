package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a thread-safe in-memory key-value store with TTL support.
// Entries lazy-expire on read; a janitor ticker removes the rest.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*memoryEntry

	done chan struct{}
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates a memory store whose janitor runs at the given
// interval. A zero interval defaults to one minute.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval == 0 {
		cleanupInterval = 1 * time.Minute
	}

	s := &MemoryStore{
		store: make(map[string]*memoryEntry),
		done:  make(chan struct{}),
	}

	go s.janitor(cleanupInterval)

	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.store[key]
	if !exists {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		delete(s.store, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl *time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	entry := &memoryEntry{value: value}
	if ttl != nil {
		entry.expiresAt = time.Now().Add(*ttl)
	}

	s.mu.Lock()
	s.store[key] = entry
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.store, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string, ttl *time.Duration) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("context canceled: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, exists := s.store[key]

	if !exists || entry.expired(now) {
		entry = &memoryEntry{value: "1"}
		if ttl != nil {
			entry.expiresAt = now.Add(*ttl)
		}
		s.store[key] = entry
		return 1, nil
	}

	count, err := strconv.Atoi(entry.value)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer: %w", key, err)
	}

	count++
	entry.value = strconv.Itoa(count)
	return count, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (*time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.store[key]
	if !exists || entry.expiresAt.IsZero() {
		return nil, nil
	}

	remaining := time.Until(entry.expiresAt)
	if remaining <= 0 {
		return nil, nil
	}
	return &remaining, nil
}

// Sweep removes all expired entries and returns how many were evicted.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.store {
		if entry.expired(now) {
			delete(s.store, key)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStore) Close() error {
	close(s.done)
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-s.done:
			return
		}
	}
}
