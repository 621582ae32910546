package oracle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "oracle:prices"

// CachedSource wraps a primary PriceSource with a Redis read-through cache.
// Reads check Redis first then fall back to the primary; a successful
// fallback re-populates the cache with a TTL.
type CachedSource struct {
	primary PriceSource
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedSource creates a cached wrapper around a primary source.
func NewCachedSource(primary PriceSource, rdb *redis.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// Prices returns the cached table if present, otherwise reads the primary
// and caches the result.
func (s *CachedSource) Prices(ctx context.Context) (map[string]uint64, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var prices map[string]uint64
		if json.Unmarshal(data, &prices) == nil {
			return prices, nil
		}
	}

	// Cache miss: read from primary.
	prices, err := s.primary.Prices(ctx)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, prices)
	return prices, nil
}

// Price reads through the cached table.
func (s *CachedSource) Price(ctx context.Context, symbol string) (uint64, error) {
	prices, err := s.Prices(ctx)
	if err != nil {
		return 0, err
	}
	p, ok := prices[symbol]
	if !ok {
		return 0, ErrUnknownSymbol
	}
	return p, nil
}

// Invalidate drops the cached table; the next read re-populates it.
func (s *CachedSource) Invalidate(ctx context.Context) {
	s.rdb.Del(ctx, cacheKey)
}

func (s *CachedSource) cache(ctx context.Context, prices map[string]uint64) {
	if data, err := json.Marshal(prices); err == nil {
		s.rdb.Set(ctx, cacheKey, data, s.ttl)
	}
}
