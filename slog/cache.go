package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure LoggingCache implements searchcrawl.Cache.
var _ searchcrawl.Cache = (*LoggingCache)(nil)

// LoggingCache wraps a Cache with debug logging. Misses are not logged as
// errors.
type LoggingCache struct {
	next   searchcrawl.Cache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next searchcrawl.Cache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Get delegates to the wrapped cache and logs whether the key was found.
func (c *LoggingCache) Get(ctx context.Context, key string) (value []byte, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"key", key,
			"hit", err == nil,
			"bytes", len(value),
			"duration", time.Since(begin),
		}
		if err != nil && searchcrawl.ErrorCode(err) != searchcrawl.ENOTFOUND {
			attrs = append(attrs, "err", err)
		}
		c.logger.Debug("cache get", attrs...)
	}(time.Now())
	return c.next.Get(ctx, key)
}

// Set delegates to the wrapped cache and logs the write.
func (c *LoggingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache set",
			"key", key,
			"bytes", len(value),
			"ttl", ttl,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Set(ctx, key, value, ttl)
}
