package domain

import (
	"math"
	"time"
)

// PositionKey identifies one FIFO lot queue: all lots for a ticker's
// effective side are matched independently of every other key.
type PositionKey struct {
	Ticker string
	Side   Side
}

// Lot is a partially-or-fully unconsumed batch of acquired contracts.
// Created by a BUY, consumed by subsequent SELLs on the same key, destroyed
// when QuantityRemaining reaches zero.
type Lot struct {
	QuantityRemaining  int
	CostRemainingCents int64
}

// AvgCostCents returns the average cost per contract, rounded half up the
// same way price/cents conversions round. Returns 0 for an empty lot.
func (l Lot) AvgCostCents() int64 {
	if l.QuantityRemaining <= 0 {
		return 0
	}
	return int64(math.Round(float64(l.CostRemainingCents) / float64(l.QuantityRemaining)))
}

// RealizedPnL records the outcome of one sell event's matched quantity.
type RealizedPnL struct {
	Ticker     string
	Side       Side
	Quantity   int
	PnLCents   int64
	ExecutedAt time.Time
}

// FifoResult is the output of one FIFO matching pass over a fill history.
// Computed fresh each call; the engine holds no persistent state.
//
// OrphanSellQuantitySkipped counts sell quantity that found no open lot to
// match. It is a diagnostic of incomplete trade history (cold start), never
// an error, and callers are expected to surface it.
type FifoResult struct {
	ClosedPnLs                []RealizedPnL
	OrphanSellQuantitySkipped int
	OpenLots                  map[PositionKey]Lot
}

// RealizedTotalCents sums realized P&L across all closed quantity.
func (r FifoResult) RealizedTotalCents() int64 {
	var total int64
	for _, p := range r.ClosedPnLs {
		total += p.PnLCents
	}
	return total
}

// Position is a persisted open position derived from the FIFO open lots,
// marked at the current midpoint when one is available.
type Position struct {
	ID                 string
	Ticker             string
	Side               Side
	Quantity           int
	CostCents          int64
	AvgCostCents       int64
	MarkPriceCents     float64
	UnrealizedPnLCents int64
	UpdatedAt          time.Time
}

// PositionMark is one open position valued at the caller-supplied mark.
type PositionMark struct {
	Key                PositionKey
	Quantity           int
	CostCents          int64
	AvgCostCents       int64
	MarkPriceCents     float64
	UnrealizedPnLCents int64
	Marked             bool
}

// PnLSummary aggregates a FIFO pass with marks into realized and unrealized
// totals for display or persistence.
type PnLSummary struct {
	RealizedPnLCents   int64
	UnrealizedPnLCents int64
	ClosedTradeCount   int
	OpenPositionCount  int
	OrphanQuantity     int
	Positions          []PositionMark
}
