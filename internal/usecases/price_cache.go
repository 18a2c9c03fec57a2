package usecases

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"go.uber.org/zap"
	"pay-chain.backend/internal/domain/repositories"
	"pay-chain.backend/pkg/fixedpoint"
	"pay-chain.backend/pkg/logger"
)

// PriceCache maps a token identifier (address or symbol) to its 18-decimal
// USD price, refreshed on Update and read by many concurrent callers
// between ticks. Per spec.md §5, single-threaded cooperative scheduling
// means the underlying map needs no lock for reads that happen between
// suspension points, but Update mutates it from a goroutine the caller
// joins on, so writes are still guarded.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]*big.Int

	// feeds are consulted in order: the canonical in-protocol feed
	// first, then independent public sources. The first feed to return
	// a defined price for an address wins.
	feeds []repositories.PriceFeed

	// remap applies TOKEN_EQUIVALENCE_REMAPPING before lookup: a display
	// symbol resolves under its canonical symbol's price.
	remap map[string]string

	lastErr error
}

// NewPriceCache builds a cache over an ordered list of feeds (in-protocol
// feed first) and an optional equivalence remapping table.
func NewPriceCache(feeds []repositories.PriceFeed, remap map[string]string) *PriceCache {
	if remap == nil {
		remap = map[string]string{}
	}
	return &PriceCache{
		prices: make(map[string]*big.Int),
		feeds:  feeds,
		remap:  remap,
	}
}

func (c *PriceCache) key(tokenIdentifier string) string {
	id := strings.ToLower(strings.TrimSpace(tokenIdentifier))
	if canon, ok := c.remap[id]; ok {
		return strings.ToLower(canon)
	}
	return id
}

// GetPrice returns the cached 18-decimal USD price for tokenIdentifier,
// or zero with a warning log if the price is unknown. Symbol resolution
// applies TOKEN_EQUIVALENCE_REMAPPING before lookup.
func (c *PriceCache) GetPrice(tokenIdentifier string) *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := c.key(tokenIdentifier)
	if p, ok := c.prices[key]; ok {
		return new(big.Int).Set(p)
	}
	logger.Warn(context.Background(), "price cache miss", zap.String("token", tokenIdentifier))
	return new(big.Int)
}

// LastError returns the error from the most recent Update call, if any
// price source failed. The cache still serves the last successfully
// fetched prices while this is non-nil (spec.md §7: preserve prior
// prices on failure, surface the error for the orchestrator to decide).
func (c *PriceCache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Update refreshes prices for the given set of addresses (the union of
// hub-chain L1-token addresses and the native gas tokens of enabled
// chains). Each feed is queried with one batched call; the first feed to
// return a defined price for a given address wins. A feed error is
// logged and does not prevent later feeds from being tried; only a total
// failure across every feed is returned as an error, and even then prior
// prices are left untouched.
func (c *PriceCache) Update(ctx context.Context, addresses []string) error {
	if len(addresses) == 0 {
		return nil
	}

	resolved := make(map[string]*big.Float)
	var lastFeedErr error

	for _, feed := range c.feeds {
		missing := make([]string, 0, len(addresses))
		for _, addr := range addresses {
			if _, ok := resolved[strings.ToLower(addr)]; !ok {
				missing = append(missing, addr)
			}
		}
		if len(missing) == 0 {
			break
		}

		prices, err := feed.GetPricesByAddress(ctx, missing)
		if err != nil {
			lastFeedErr = err
			logger.Warn(ctx, "price feed failed", zap.String("feed", feed.Name()), zap.Error(err))
			continue
		}
		for addr, price := range prices {
			if price == nil {
				continue
			}
			key := strings.ToLower(addr)
			if _, already := resolved[key]; !already {
				resolved[key] = price
			}
		}
	}

	if len(resolved) == 0 {
		c.mu.Lock()
		c.lastErr = lastFeedErr
		c.mu.Unlock()
		if lastFeedErr != nil {
			return lastFeedErr
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, price := range resolved {
		scaled := new(big.Float).Mul(price, new(big.Float).SetInt(fixedpoint.Scale))
		intVal, _ := scaled.Int(nil)
		c.prices[strings.ToLower(addr)] = intVal
	}
	c.lastErr = lastFeedErr
	return nil
}
