package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avayoung/riskdesk/internal/domain"
)

// OrderbookCache implements domain.OrderbookCache using Redis sorted sets and
// hashes for each market's bid-only books.
//
// Key schema:
//
//	book:{ticker}:yes      - sorted set of YES bid prices in cents (score = price)
//	book:{ticker}:no       - sorted set of NO bid prices in cents (score = price)
//	book:{ticker}:yes:qty  - hash mapping price -> quantity for YES bids
//	book:{ticker}:no:qty   - hash mapping price -> quantity for NO bids
//	book:{ticker}:meta     - hash with "ts" field (snapshot timestamp)
type OrderbookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewOrderbookCache creates an OrderbookCache backed by the given Client.
// Snapshots expire after ttl; a non-positive ttl disables expiry.
func NewOrderbookCache(c *Client, ttl time.Duration) *OrderbookCache {
	return &OrderbookCache{rdb: c.Underlying(), ttl: ttl}
}

func bookYesKey(ticker string) string    { return "book:" + ticker + ":yes" }
func bookNoKey(ticker string) string     { return "book:" + ticker + ":no" }
func bookYesQtyKey(ticker string) string { return "book:" + ticker + ":yes:qty" }
func bookNoQtyKey(ticker string) string  { return "book:" + ticker + ":no:qty" }
func bookMetaKey(ticker string) string   { return "book:" + ticker + ":meta" }

// SetSnapshot atomically replaces the cached orderbook for a market. It
// clears existing data and repopulates both bid books and the metadata hash.
func (oc *OrderbookCache) SetSnapshot(ctx context.Context, snap domain.OrderbookSnapshot) error {
	yesKey := bookYesKey(snap.Ticker)
	noKey := bookNoKey(snap.Ticker)
	yesQtyKey := bookYesQtyKey(snap.Ticker)
	noQtyKey := bookNoQtyKey(snap.Ticker)
	metaKey := bookMetaKey(snap.Ticker)

	pipe := oc.rdb.TxPipeline()

	pipe.Del(ctx, yesKey, noKey, yesQtyKey, noQtyKey, metaKey)

	for _, lvl := range snap.YesBids {
		priceStr := strconv.Itoa(lvl.PriceCents)
		pipe.ZAdd(ctx, yesKey, redis.Z{Score: float64(lvl.PriceCents), Member: priceStr})
		pipe.HSet(ctx, yesQtyKey, priceStr, strconv.Itoa(lvl.Quantity))
	}
	for _, lvl := range snap.NoBids {
		priceStr := strconv.Itoa(lvl.PriceCents)
		pipe.ZAdd(ctx, noKey, redis.Z{Score: float64(lvl.PriceCents), Member: priceStr})
		pipe.HSet(ctx, noQtyKey, priceStr, strconv.Itoa(lvl.Quantity))
	}

	pipe.HSet(ctx, metaKey, "ts", strconv.FormatInt(snap.Timestamp.UnixNano(), 10))

	if oc.ttl > 0 {
		for _, key := range []string{yesKey, noKey, yesQtyKey, noQtyKey, metaKey} {
			pipe.Expire(ctx, key, oc.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set orderbook snapshot %s: %w", snap.Ticker, err)
	}
	return nil
}

// GetSnapshot reconstructs a full OrderbookSnapshot from Redis. It returns
// domain.ErrNotFound if no snapshot exists for the ticker.
func (oc *OrderbookCache) GetSnapshot(ctx context.Context, ticker string) (domain.OrderbookSnapshot, error) {
	pipe := oc.rdb.Pipeline()

	// Bids sorted descending so the best bid leads each book.
	yesCmd := pipe.ZRevRangeWithScores(ctx, bookYesKey(ticker), 0, -1)
	noCmd := pipe.ZRevRangeWithScores(ctx, bookNoKey(ticker), 0, -1)
	yesQtyCmd := pipe.HGetAll(ctx, bookYesQtyKey(ticker))
	noQtyCmd := pipe.HGetAll(ctx, bookNoQtyKey(ticker))
	metaCmd := pipe.HGetAll(ctx, bookMetaKey(ticker))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.OrderbookSnapshot{}, fmt.Errorf("redis: get orderbook snapshot %s: %w", ticker, err)
	}

	metaVals, _ := metaCmd.Result()
	if len(metaVals) == 0 {
		return domain.OrderbookSnapshot{}, domain.ErrNotFound
	}

	snap := domain.OrderbookSnapshot{Ticker: ticker}

	if tsStr, ok := metaVals["ts"]; ok {
		if tsNano, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			snap.Timestamp = time.Unix(0, tsNano)
		}
	}

	yesQty, _ := yesQtyCmd.Result()
	yesZ, _ := yesCmd.Result()
	snap.YesBids = buildLevels(yesZ, yesQty)

	noQty, _ := noQtyCmd.Result()
	noZ, _ := noCmd.Result()
	snap.NoBids = buildLevels(noZ, noQty)

	return snap, nil
}

func buildLevels(zs []redis.Z, quantities map[string]string) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, len(zs))
	for _, z := range zs {
		priceStr, ok := z.Member.(string)
		if !ok {
			continue
		}
		qty := 0
		if qtyStr, exists := quantities[priceStr]; exists {
			qty, _ = strconv.Atoi(qtyStr)
		}
		if qty <= 0 {
			continue
		}
		levels = append(levels, domain.PriceLevel{
			PriceCents: int(z.Score),
			Quantity:   qty,
		})
	}
	return levels
}

// Delete removes all cached orderbook keys for a ticker. Used when a delta
// arrives on the stream and the cached snapshot can no longer be trusted.
func (oc *OrderbookCache) Delete(ctx context.Context, ticker string) error {
	err := oc.rdb.Del(ctx,
		bookYesKey(ticker), bookNoKey(ticker),
		bookYesQtyKey(ticker), bookNoQtyKey(ticker), bookMetaKey(ticker),
	).Err()
	if err != nil {
		return fmt.Errorf("redis: delete orderbook %s: %w", ticker, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OrderbookCache = (*OrderbookCache)(nil)
