package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbusiness "github.com/minegocio/backend/internal/application/business"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/auth"
	"github.com/minegocio/backend/internal/infrastructure/config"
)

// Factory builds the Redis-backed stores, or their in-memory versions when
// Redis is disabled or unreachable.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                redis.UniversalClient
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithClient uses an existing client instead of dialing one
func WithClient(client redis.UniversalClient) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect dials Redis when enabled. A failed dial falls back to memory
// unless fallback is disabled.
func (f *Factory) Connect(ctx context.Context) error {
	if f.client != nil || !f.redisConfig.Enabled {
		if f.client == nil {
			f.logger.Info("Redis disabled, using in-memory stores")
		}
		return nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.client = client
		f.logger.Info("Connected to Redis", zap.String("addr", f.redisConfig.Addr()))
		return nil
	}
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Idempotency keys and token revocations are not shared across instances.",
		zap.Error(err),
	)
	return nil
}

// Client returns the Redis client, nil when running in memory
func (f *Factory) Client() redis.UniversalClient {
	return f.client
}

// IdempotencyStore creates the store behind the Idempotency-Key header
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client == nil {
		return NewInMemoryIdempotencyStore()
	}
	return NewRedisIdempotencyStore(f.client)
}

// BusinessCache creates the read-through cache of the settings row
func (f *Factory) BusinessCache() appbusiness.Cache {
	if f.client == nil {
		return NewInMemoryBusinessCache(f.redisConfig.BusinessCacheTTL)
	}
	return NewRedisBusinessCache(f.client, f.redisConfig.BusinessCacheTTL, f.logger)
}

// TokenBlacklist creates the store of revoked access tokens
func (f *Factory) TokenBlacklist() auth.TokenBlacklist {
	if f.client == nil {
		return auth.NewInMemoryTokenBlacklist()
	}
	return auth.NewRedisTokenBlacklist(f.client)
}

// Close closes the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// NewRedisClient dials Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
