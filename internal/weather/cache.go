package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

// Fetcher is anything that can produce a report for a city query.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (*Report, error)
}

// Cache stores reports keyed by the normalized city query.
type Cache interface {
	Get(ctx context.Context, city string) (*Report, bool)
	Set(ctx context.Context, city string, r *Report) error
	Ping(ctx context.Context) error
	Close() error
}

func cacheKey(city string) string {
	return fmt.Sprintf("weather:%s", strings.ToLower(strings.TrimSpace(city)))
}

// RedisCache keeps reports in redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, city string) (*Report, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, cacheKey(city)).Result()
	if err != nil {
		return nil, false
	}
	var r Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, false
	}
	return &r, true
}

func (c *RedisCache) Set(ctx context.Context, city string, r *Report) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(city), data, c.ttl).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache is the in-process fallback used when redis is unreachable.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *MemoryCache) Get(_ context.Context, city string) (*Report, bool) {
	v, ok := c.store.Get(cacheKey(city))
	if !ok {
		return nil, false
	}
	r := *v.(*Report)
	return &r, true
}

func (c *MemoryCache) Set(_ context.Context, city string, r *Report) error {
	cp := *r
	c.store.SetDefault(cacheKey(city), &cp)
	return nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }

// NewCache connects to redis and falls back to an in-memory cache when the
// connection test fails.
func NewCache(addr, password string, db int, ttl time.Duration, log *zap.Logger) Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("failed to connect to redis, using in-memory weather cache",
			zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return NewMemoryCache(ttl)
	}
	log.Info("connected to redis weather cache", zap.String("addr", addr))
	return NewRedisCache(client, ttl)
}

// CachedFetcher serves reports from a cache before calling the wrapped fetcher.
type CachedFetcher struct {
	next  Fetcher
	cache Cache
	log   *zap.Logger
}

func NewCachedFetcher(next Fetcher, cache Cache, log *zap.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, log: log}
}

func (f *CachedFetcher) Fetch(ctx context.Context, city string) (*Report, error) {
	if r, ok := f.cache.Get(ctx, city); ok {
		metrics.CacheHitsTotal.Inc()
		r.Source = "cache"
		return r, nil
	}
	metrics.CacheMissesTotal.Inc()

	r, err := f.next.Fetch(ctx, city)
	if err != nil {
		return nil, err
	}
	if err := f.cache.Set(ctx, city, r); err != nil {
		f.log.Warn("failed to cache weather data", zap.String("city", city), zap.Error(err))
	}
	return r, nil
}
