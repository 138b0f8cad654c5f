package crawl

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/searchcrawl"
)

// GetOrCompute returns the value cached under key, or computes it and caches
// the result, as allowed by policy. Cache failures of any kind count as a
// miss, so an unreachable backend slows requests down without failing them.
//
// When compute fails its value and error are returned as-is and nothing is
// cached. A nil cache always computes.
func GetOrCompute[T any](
	ctx context.Context,
	cache searchcrawl.Cache,
	policy searchcrawl.CachePolicy,
	key string,
	compute func(context.Context) (T, error),
) (T, error) {
	if cache != nil && policy.Readable {
		if data, err := cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}

	if cache != nil && policy.Writable {
		if data, err := json.Marshal(v); err == nil {
			_ = cache.Set(ctx, key, data, policy.TTL)
		}
	}
	return v, nil
}

// ScrapeCacheKey is the cache key for the raw fetch of a requested URL.
func ScrapeCacheKey(requestedURL string) string {
	return "scrape:" + requestedURL
}
