package pricefeed

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"pay-chain.backend/pkg/logger"
)

// RedisTTLFeed wraps another feed with a Redis-backed cache so a price
// fetched on one process survives a restart within its TTL, bounding how
// stale a price can be even across a relayer redeploy. It is itself a
// feed: a cache hit answers without calling through, a miss calls
// through and writes the result back.
type RedisTTLFeed struct {
	name  string
	inner *HTTPFeed
	rdb   *goredis.Client
	ttl   time.Duration
}

// NewRedisTTLFeed wraps inner with a Redis cache of the given TTL.
func NewRedisTTLFeed(inner *HTTPFeed, rdb *goredis.Client, ttl time.Duration) *RedisTTLFeed {
	return &RedisTTLFeed{name: inner.Name(), inner: inner, rdb: rdb, ttl: ttl}
}

func (f *RedisTTLFeed) Name() string { return f.name }

func (f *RedisTTLFeed) cacheKey(address string) string {
	return fmt.Sprintf("pricefeed:%s:%s", f.name, address)
}

// GetPricesByAddress answers from Redis where possible, falling back to
// the wrapped HTTP feed for cache misses and writing fresh quotes back.
func (f *RedisTTLFeed) GetPricesByAddress(ctx context.Context, addresses []string) (map[string]*big.Float, error) {
	out := make(map[string]*big.Float, len(addresses))
	var misses []string

	for _, addr := range addresses {
		val, err := f.rdb.Get(ctx, f.cacheKey(addr)).Result()
		if err != nil {
			misses = append(misses, addr)
			continue
		}
		price, ok := new(big.Float).SetString(val)
		if !ok {
			misses = append(misses, addr)
			continue
		}
		out[addr] = price
	}

	if len(misses) == 0 {
		return out, nil
	}

	fresh, err := f.inner.GetPricesByAddress(ctx, misses)
	if err != nil {
		logger.Warn(ctx, "redis ttl feed fallback to inner feed failed", zap.String("feed", f.name), zap.Error(err))
		return out, err
	}

	for addr, price := range fresh {
		out[addr] = price
		if setErr := f.rdb.Set(ctx, f.cacheKey(addr), strconv.FormatFloat(valueOf(price), 'f', -1, 64), f.ttl).Err(); setErr != nil {
			logger.Warn(ctx, "failed to write price to redis cache", zap.String("feed", f.name), zap.Error(setErr))
		}
	}
	return out, nil
}

func valueOf(f *big.Float) float64 {
	v, _ := f.Float64()
	return v
}
