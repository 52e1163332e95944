package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avayoung/riskdesk/internal/domain"
)

// MarketCache implements domain.MarketCache using JSON values keyed by
// ticker. Market metadata (volume, open interest, status) changes slowly, so
// a plain key with TTL is enough.
type MarketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMarketCache creates a MarketCache backed by the given Client. Entries
// expire after ttl; a non-positive ttl disables expiry.
func NewMarketCache(c *Client, ttl time.Duration) *MarketCache {
	return &MarketCache{rdb: c.Underlying(), ttl: ttl}
}

func marketKey(ticker string) string { return "market:" + ticker }

// Set stores market metadata under its ticker.
func (mc *MarketCache) Set(ctx context.Context, market domain.Market) error {
	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market %s: %w", market.Ticker, err)
	}
	if err := mc.rdb.Set(ctx, marketKey(market.Ticker), data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set market %s: %w", market.Ticker, err)
	}
	return nil
}

// Get returns the cached market for a ticker, or domain.ErrNotFound.
func (mc *MarketCache) Get(ctx context.Context, ticker string) (domain.Market, error) {
	data, err := mc.rdb.Get(ctx, marketKey(ticker)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", ticker, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", ticker, err)
	}
	return market, nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
