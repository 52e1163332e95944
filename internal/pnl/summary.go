package pnl

import (
	"math"
	"sort"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Summarize folds a FIFO result and a set of current YES midpoints (keyed by
// ticker, in cents) into realized and unrealized totals.
//
// Open lots are valued at the mark: a YES position is worth mid per
// contract, a NO position 100 - mid, since a NO contract pays when YES does
// not. Keys without a mark are listed with Marked == false and contribute
// nothing to the unrealized total. Positions are ordered by key for stable
// output.
func Summarize(result domain.FifoResult, yesMidCents map[string]float64) domain.PnLSummary {
	summary := domain.PnLSummary{
		RealizedPnLCents:  result.RealizedTotalCents(),
		ClosedTradeCount:  len(result.ClosedPnLs),
		OpenPositionCount: len(result.OpenLots),
		OrphanQuantity:    result.OrphanSellQuantitySkipped,
	}

	for key, lot := range result.OpenLots {
		mark := domain.PositionMark{
			Key:          key,
			Quantity:     lot.QuantityRemaining,
			CostCents:    lot.CostRemainingCents,
			AvgCostCents: lot.AvgCostCents(),
		}

		if mid, ok := yesMidCents[key.Ticker]; ok {
			price := mid
			if key.Side == domain.SideNo {
				price = float64(domain.ContractPayoutCents) - mid
			}
			value := int64(math.Round(price * float64(lot.QuantityRemaining)))
			mark.MarkPriceCents = price
			mark.UnrealizedPnLCents = value - lot.CostRemainingCents
			mark.Marked = true
			summary.UnrealizedPnLCents += mark.UnrealizedPnLCents
		}

		summary.Positions = append(summary.Positions, mark)
	}

	sort.Slice(summary.Positions, func(i, j int) bool {
		a, b := summary.Positions[i].Key, summary.Positions[j].Key
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Side < b.Side
	})

	return summary
}
