package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/fauna/core"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces every key written by RedisCache.
	DefaultPrefix = "fauna:"

	// DefaultTTL is how long a result list stays cached.
	DefaultTTL = 15 * time.Minute
)

// RedisCache stores result lists in Redis as JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ResultCache = (*RedisCache)(nil)

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithPrefix sets the key prefix. Default is DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *RedisCache) { c.prefix = prefix }
}

// WithTTL sets the expiry of cached entries. Zero keeps entries until evicted.
// Default is DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) { c.ttl = ttl }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// Connect opens a Redis client for addr and checks that the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisCache wraps client. The cache owns client and closes it on Close.
func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache")
	return c
}

func (c *RedisCache) fullKey(key string) string {
	return c.prefix + key
}

// Get returns the records stored under key, or ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]*core.SpeciesRecord, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var records []*core.SpeciesRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt entry behaves as a miss and is overwritten by the next Set.
		c.logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		return nil, ErrCacheMiss
	}
	return records, nil
}

// Set stores records under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, records []*core.SpeciesRecord) error {
	if records == nil {
		records = []*core.SpeciesRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes every entry written under the cache prefix.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()

	removed := 0
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	c.logger.Debug("invalidated cache", "removed", removed)
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key derives a fixed-length cache key from parts.
func Key(parts ...string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
