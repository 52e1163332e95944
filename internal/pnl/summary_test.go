package pnl

import (
	"testing"

	"github.com/avayoung/riskdesk/internal/domain"
)

func TestSummarize_MarksOpenPositionsAtMid(t *testing.T) {
	result := domain.FifoResult{
		ClosedPnLs: []domain.RealizedPnL{
			{Ticker: "KXA", Side: domain.SideYes, Quantity: 10, PnLCents: 150},
			{Ticker: "KXA", Side: domain.SideYes, Quantity: 5, PnLCents: -40},
		},
		OpenLots: map[domain.PositionKey]domain.Lot{
			{Ticker: "KXA", Side: domain.SideYes}: {QuantityRemaining: 20, CostRemainingCents: 900},
			{Ticker: "KXA", Side: domain.SideNo}:  {QuantityRemaining: 10, CostRemainingCents: 480},
		},
		OrphanSellQuantitySkipped: 3,
	}

	got := Summarize(result, map[string]float64{"KXA": 47.5})

	if got.RealizedPnLCents != 110 {
		t.Errorf("realized = %d, want 110", got.RealizedPnLCents)
	}
	if got.ClosedTradeCount != 2 || got.OpenPositionCount != 2 || got.OrphanQuantity != 3 {
		t.Errorf("counts = %d/%d/%d, want 2/2/3", got.ClosedTradeCount, got.OpenPositionCount, got.OrphanQuantity)
	}

	// YES marked at 47.5: value 950 against 900 cost. NO marked at 52.5:
	// value 525 against 480 cost.
	if got.UnrealizedPnLCents != 50+45 {
		t.Errorf("unrealized = %d, want 95", got.UnrealizedPnLCents)
	}

	if len(got.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(got.Positions))
	}
	// Sorted by ticker then side: no before yes.
	if got.Positions[0].Key.Side != domain.SideNo || got.Positions[1].Key.Side != domain.SideYes {
		t.Errorf("positions not sorted by key: %+v", got.Positions)
	}
	if got.Positions[1].AvgCostCents != 45 {
		t.Errorf("yes avg cost = %d, want 45", got.Positions[1].AvgCostCents)
	}
}

func TestSummarize_UnmarkedPositionContributesNothing(t *testing.T) {
	result := domain.FifoResult{
		OpenLots: map[domain.PositionKey]domain.Lot{
			{Ticker: "KXB", Side: domain.SideYes}: {QuantityRemaining: 10, CostRemainingCents: 400},
		},
	}

	got := Summarize(result, nil)

	if got.UnrealizedPnLCents != 0 {
		t.Errorf("unrealized = %d, want 0", got.UnrealizedPnLCents)
	}
	if len(got.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(got.Positions))
	}
	if got.Positions[0].Marked {
		t.Errorf("position should be unmarked: %+v", got.Positions[0])
	}
}
