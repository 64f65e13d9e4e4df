// Package cache provides idempotency stores that guard financial operations
// against duplicate application on client retries.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/churchops/backend/internal/domain/shared"
)

// record represents a stored operation key with expiration
type record struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// Suitable for single-instance deployments and testing.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	records   map[string]record
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store and
// starts a background goroutine that evicts expired keys.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		records:  make(map[string]record),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed records an operation key with a TTL. Returns true if the key
// was newly recorded, false if the operation was already applied.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, operationKey string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, exists := s.records[operationKey]; exists {
		if time.Now().Before(r.expiresAt) {
			return false, nil // Already applied
		}
		// Expired record, overwrite
	}

	s.records[operationKey] = record{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// IsProcessed checks whether an operation key has already been recorded.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, operationKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[operationKey]
	if !exists {
		return false, nil
	}
	if time.Now().After(r.expiresAt) {
		return false, nil // Expired, treat as unseen
	}

	return true, nil
}

// Release forgets an operation key so a retry of a failed operation is
// accepted again.
func (s *InMemoryIdempotencyStore) Release(ctx context.Context, operationKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, operationKey)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, r := range s.records {
		if now.After(r.expiresAt) {
			delete(s.records, key)
		}
	}
}

// Size returns the number of recorded keys (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
