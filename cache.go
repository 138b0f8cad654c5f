package searchcrawl

import (
	"context"
	"time"
)

// DefaultCacheTTL is how long cached entries live unless a policy says otherwise.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores opaque values by key with a time-to-live.
//
// Implementations return an ENOTFOUND error on a miss and an EUNAVAILABLE
// error when the backend cannot be reached. Callers treat both as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachePolicy controls how a request uses the cache. Reads and writes are
// enabled independently.
type CachePolicy struct {
	Readable bool          `json:"readable"`
	Writable bool          `json:"writable"`
	TTL      time.Duration `json:"ttl"`
}

// DefaultCachePolicy reads and writes with DefaultCacheTTL.
func DefaultCachePolicy() CachePolicy {
	return CachePolicy{Readable: true, Writable: true, TTL: DefaultCacheTTL}
}

// Validate returns an error if the policy contains invalid fields.
func (p CachePolicy) Validate() error {
	if p.TTL < 0 {
		return Errorf(EINVALID, "cache TTL must not be negative")
	}
	return nil
}
