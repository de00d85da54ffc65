package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"go.uber.org/zap"
)

// ErrLockNotObtained is returned when another instance holds the lock past the wait budget
var ErrLockNotObtained = errors.New("cache: lock not obtained")

const lockKeyPrefix = "minegocio:lock:"

// RunLocked runs fn while holding a Redis lock on key. Without Redis fn
// runs directly, since only one instance can be sharing the store.
// Waits up to ttl for a competing holder to finish.
func (f *Factory) RunLocked(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if f.client == nil {
		return fn(ctx)
	}

	backoff := 250 * time.Millisecond
	retries := int(ttl / backoff)
	locker := redislock.New(f.client)
	lock, err := locker.Obtain(ctx, lockKeyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(backoff), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return fmt.Errorf("%w: %s", ErrLockNotObtained, key)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if releaseErr := lock.Release(context.WithoutCancel(ctx)); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			f.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(releaseErr))
		}
	}()

	return fn(ctx)
}
