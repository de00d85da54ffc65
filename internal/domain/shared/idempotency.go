package shared

import (
	"context"
	"time"
)

// StoredResponse is the first outcome recorded for an idempotency key
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers client-supplied idempotency keys so that a
// retried line-item POST is answered with the first outcome instead of
// being applied twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl.
	// Returns true if the key was newly claimed, false if it is in flight or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records the response for a reserved key
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Lookup returns the recorded response, or nil while the key is unknown or in flight
	Lookup(ctx context.Context, key string) (*StoredResponse, error)

	// Release forgets a reservation so the client may retry
	Release(ctx context.Context, key string) error

	// Close releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key is remembered. Default: 24 hours
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
