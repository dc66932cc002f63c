package services

import (
	"context"
	"time"

	"agrireport-backend-go/internal/metrics"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores encoded reference data for a fixed TTL. Entries are only
// dropped by expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	value, ok := c.store.Get(key)
	if !ok {
		metrics.ReferenceCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ReferenceCacheLookups.WithLabelValues("hit").Inc()
	return value.([]byte), true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.store.SetDefault(key, value)
}

// RedisCache shares reference data between instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: "agrireport:ref:", log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.ReferenceCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.ReferenceCacheLookups.WithLabelValues("hit").Inc()
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		c.log.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// NewReferenceCache uses Redis when redisURL is set and reachable and falls
// back to an in-process cache otherwise.
func NewReferenceCache(redisURL string, ttl time.Duration, log *zap.Logger) Cache {
	if redisURL == "" {
		return NewMemoryCache(ttl)
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, using in-memory reference cache", zap.Error(err))
		return NewMemoryCache(ttl)
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Warn("redis unreachable, using in-memory reference cache", zap.Error(err))
		return NewMemoryCache(ttl)
	}
	log.Info("reference cache backed by redis", zap.String("addr", opts.Addr))
	return NewRedisCache(client, ttl, log)
}
