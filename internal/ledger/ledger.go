// Package ledger defines the transaction-count lookup used to enrich wallet
// addresses, plus a caching decorator shared by every backend.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrNoData is returned when the explorer answers but reports no usable data
// for the address (for Etherscan, a status other than "1").
var ErrNoData = errors.New("ledger: no data for address")

// Counter returns the number of transactions recorded for an address.
type Counter interface {
	TransactionCount(ctx context.Context, address string) (int, error)
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(ctx context.Context, address string) (int, error)

// TransactionCount implements Counter.
func (f CounterFunc) TransactionCount(ctx context.Context, address string) (int, error) {
	return f(ctx, address)
}

// Cache stores successful counts keyed by address.
type Cache interface {
	Get(ctx context.Context, address string) (int, bool, error)
	Set(ctx context.Context, address string, count int, ttl time.Duration) error
}

// CachedCounter serves counts from a cache before asking the wrapped backend.
// Only successful lookups are stored; ErrNoData and errors always reach the
// backend again on the next call.
type CachedCounter struct {
	next   Counter
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

const defaultCacheTTL = 10 * time.Minute

// NewCachedCounter wraps next with cache. A non-positive ttl falls back to ten
// minutes and a nil logger discards cache diagnostics.
func NewCachedCounter(next Counter, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedCounter {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedCounter{next: next, cache: cache, ttl: ttl, logger: logger}
}

// TransactionCount implements Counter.
func (c *CachedCounter) TransactionCount(ctx context.Context, address string) (int, error) {
	key := strings.ToLower(address)
	if count, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("ledger cache read failed", slog.String("address", address), slog.Any("error", err))
	} else if ok {
		return count, nil
	}

	count, err := c.next.TransactionCount(ctx, address)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, key, count, c.ttl); err != nil {
		c.logger.Warn("ledger cache write failed", slog.String("address", address), slog.Any("error", err))
	}
	return count, nil
}
