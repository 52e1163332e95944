package domain

import "context"

// OrderbookCache caches the latest orderbook snapshot per ticker so repeated
// analyses within the freshness window avoid a REST round-trip.
type OrderbookCache interface {
	SetSnapshot(ctx context.Context, snap OrderbookSnapshot) error
	GetSnapshot(ctx context.Context, ticker string) (OrderbookSnapshot, error)
	Delete(ctx context.Context, ticker string) error
}

// MarketCache caches market metadata keyed by ticker.
type MarketCache interface {
	Set(ctx context.Context, market Market) error
	Get(ctx context.Context, ticker string) (Market, error)
}
