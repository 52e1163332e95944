package domain

import "time"

// Fill is a raw executed trade as recorded by the exchange. Fills are
// append-only: once recorded they are never modified, so the FIFO engine can
// recompute cost basis from scratch at any time.
type Fill struct {
	ID         string
	Ticker     string
	Side       Side
	Action     Action
	Quantity   int
	PriceCents int
	FeeCents   int64
	ExecutedAt time.Time
}

// EffectiveTrade is the FIFO-normalized view of a Fill. It is derived and
// never persisted. On this exchange closing a YES position is often reported
// as a sell quote on the NO side, so a SELL is normalized to act on the
// opposite side at the inverted price (100 - price); a BUY acts on the
// literal side at the literal price.
type EffectiveTrade struct {
	Ticker     string
	Side       Side
	Action     Action
	Quantity   int
	PriceCents int
	FeeCents   int64
	ExecutedAt time.Time
}
