package shared

import (
	"context"
	"time"
)

// ErrDuplicateOperation rejects a retried operation whose key was already
// applied within the idempotency window
var ErrDuplicateOperation = NewDomainError("DUPLICATE_OPERATION", "Operation with this key was already applied")

// IdempotencyStore remembers operation keys so client retries of financial
// operations do not double-post movements
type IdempotencyStore interface {
	// MarkProcessed marks an operation key as applied with a TTL.
	// Returns true if the key was newly marked, false if it was already applied.
	MarkProcessed(ctx context.Context, operationKey string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an operation key has already been applied
	IsProcessed(ctx context.Context, operationKey string) (bool, error)

	// Release forgets an operation key so the same key is accepted again.
	// Called when the operation failed after the key was marked, since
	// nothing was applied.
	Release(ctx context.Context, operationKey string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for applied operation keys.
	// After this duration, the same key is accepted again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
