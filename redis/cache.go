// Package redis implements searchcrawl.Cache on a Redis server.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/searchcrawl"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key the cache writes.
const DefaultKeyPrefix = "searchcrawl:"

// Ensure Cache implements searchcrawl.Cache at compile time.
var _ searchcrawl.Cache = (*Cache)(nil)

// Cache stores values in Redis with a per-key expiry.
type Cache struct {
	client goredis.UniversalClient
	prefix string
	owned  bool
}

// NewCache wraps an existing client. The caller keeps ownership of client.
func NewCache(client goredis.UniversalClient, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Open connects to the server at rawURL (redis:// or rediss://) and verifies
// it answers. Close must be called when the Cache is no longer needed.
func Open(ctx context.Context, rawURL string) (*Cache, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "invalid redis URL: %v", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "ping redis: %v", err)
	}

	return &Cache{client: client, prefix: DefaultKeyPrefix, owned: true}, nil
}

// Get returns the value stored under key, or an ENOTFOUND error when the key
// is missing or expired.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, searchcrawl.Errorf(searchcrawl.ENOTFOUND, "cache miss: %s", key)
	}
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "redis get: %v", err)
	}
	return b, nil
}

// Set stores value under key. A zero ttl stores the value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "redis set: %v", err)
	}
	return nil
}

// Close closes the connection when the Cache opened it.
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}
	return c.client.Close()
}
