package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbusiness "github.com/minegocio/backend/internal/application/business"
	"github.com/minegocio/backend/internal/domain/business"
)

const (
	businessKey           = "minegocio:business"
	businessGenerationKey = "minegocio:business:generation"
)

// setIfGeneration writes the row only while the generation counter still
// holds the value the caller observed. A missing counter reads as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisBusinessCache keeps the settings row in Redis as JSON next to a
// generation counter shared by every instance.
// Redis failures degrade to misses and are logged.
type RedisBusinessCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisBusinessCache creates a cache on an existing client
func NewRedisBusinessCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisBusinessCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBusinessCache{client: client, ttl: ttl, logger: logger}
}

// Get reads the cached row and the current generation in one round trip.
// When Redis is unreachable the generation is -1, which no Set accepts.
func (c *RedisBusinessCache) Get(ctx context.Context) (*business.Business, int64, bool) {
	values, err := c.client.MGet(ctx, businessKey, businessGenerationKey).Result()
	if err != nil {
		c.logger.Warn("Business cache read failed", zap.Error(err))
		return nil, -1, false
	}

	var generation int64
	if raw, ok := values[1].(string); ok {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			c.logger.Warn("Business cache generation is corrupt", zap.String("value", raw))
			return nil, -1, false
		}
	}

	raw, ok := values[0].(string)
	if !ok {
		return nil, generation, false
	}
	var b business.Business
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		c.logger.Warn("Business cache entry is corrupt", zap.Error(err))
		return nil, generation, false
	}
	return &b, generation, true
}

// Set stores b for the configured TTL unless the generation moved on
func (c *RedisBusinessCache) Set(ctx context.Context, b *business.Business, generation int64) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(b)
	if err != nil {
		c.logger.Warn("Business cache encode failed", zap.Error(err))
		return
	}
	keys := []string{businessKey, businessGenerationKey}
	stored, err := setIfGeneration.Run(ctx, c.client, keys, generation, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("Business cache write failed", zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("Business cache write skipped, settings changed during the read",
			zap.Int64("generation", generation))
	}
}

// Invalidate starts a new generation and drops the cached row
func (c *RedisBusinessCache) Invalidate(ctx context.Context) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, businessGenerationKey)
		pipe.Del(ctx, businessKey)
		return nil
	})
	if err != nil {
		c.logger.Warn("Business cache invalidation failed", zap.Error(err))
	}
}

// InMemoryBusinessCache keeps the settings row in process memory
type InMemoryBusinessCache struct {
	mu         sync.RWMutex
	value      *business.Business
	generation int64
	expiresAt  time.Time
	ttl        time.Duration
	now        func() time.Time
}

// NewInMemoryBusinessCache creates an empty cache
func NewInMemoryBusinessCache(ttl time.Duration) *InMemoryBusinessCache {
	return &InMemoryBusinessCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached row while it is fresh
func (c *InMemoryBusinessCache) Get(ctx context.Context) (*business.Business, int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == nil || !c.now().Before(c.expiresAt) {
		return nil, c.generation, false
	}
	b := *c.value
	return &b, c.generation, true
}

// Set stores a copy of b if no Invalidate ran since generation was read
func (c *InMemoryBusinessCache) Set(ctx context.Context, b *business.Business, generation int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	v := *b
	c.value = &v
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate drops the cached row
func (c *InMemoryBusinessCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.generation++
}

var (
	_ appbusiness.Cache = (*RedisBusinessCache)(nil)
	_ appbusiness.Cache = (*InMemoryBusinessCache)(nil)
)
