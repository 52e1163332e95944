package pnl

import (
	"math"
	"sort"

	"github.com/avayoung/riskdesk/internal/domain"
)

// MatchFIFO normalizes the fill history, groups it by (ticker, effective
// side), sorts each group by execution time ascending, and runs a FIFO lot
// queue per group.
//
// A BUY pushes a lot whose cost is price*quantity + fee. A SELL consumes
// lots from the front, oldest first; the consumed share of a lot's cost is
// prorated with round-half-to-even so repeated partial consumption carries
// no systematic bias. Sell quantity that finds no open lot is counted as
// orphan quantity: a diagnostic of incomplete history, never an error.
//
// Malformed fills fail fast with domain.ErrInvalidTrade and abort the whole
// batch; callers sanitize history before calling, there is no partial-batch
// recovery here.
func MatchFIFO(fills []domain.Fill) (domain.FifoResult, error) {
	groups := make(map[domain.PositionKey][]domain.EffectiveTrade)
	for _, fill := range fills {
		eff, err := Normalize(fill)
		if err != nil {
			return domain.FifoResult{}, err
		}
		key := domain.PositionKey{Ticker: eff.Ticker, Side: eff.Side}
		groups[key] = append(groups[key], eff)
	}

	result := domain.FifoResult{
		OpenLots: make(map[domain.PositionKey]domain.Lot),
	}

	for key, events := range groups {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].ExecutedAt.Before(events[j].ExecutedAt)
		})

		var queue []domain.Lot
		for _, ev := range events {
			if ev.Action == domain.ActionBuy {
				queue = append(queue, domain.Lot{
					QuantityRemaining:  ev.Quantity,
					CostRemainingCents: int64(ev.PriceCents)*int64(ev.Quantity) + ev.FeeCents,
				})
				continue
			}

			var realized domain.RealizedPnL
			var orphaned int
			queue, realized, orphaned = consumeSell(queue, ev)
			if realized.Quantity > 0 {
				result.ClosedPnLs = append(result.ClosedPnLs, realized)
			}
			result.OrphanSellQuantitySkipped += orphaned
		}

		open := aggregateLots(queue)
		if open.QuantityRemaining > 0 {
			result.OpenLots[key] = open
		}
	}

	return result, nil
}

// consumeSell matches one sell event against the front of the lot queue.
// It returns the updated queue, the realized entry (zero quantity when the
// sell was fully orphaned), and the unmatched remainder.
func consumeSell(queue []domain.Lot, ev domain.EffectiveTrade) ([]domain.Lot, domain.RealizedPnL, int) {
	unmet := ev.Quantity
	matched := 0
	var costBasis int64

	for unmet > 0 && len(queue) > 0 {
		front := &queue[0]
		take := front.QuantityRemaining
		if take > unmet {
			take = unmet
		}

		var consumedCost int64
		if take == front.QuantityRemaining {
			// Taking the whole lot takes its exact remaining cost, so
			// rounding residue never strands in a destroyed lot.
			consumedCost = front.CostRemainingCents
		} else {
			consumedCost = roundHalfEven(float64(front.CostRemainingCents) * float64(take) / float64(front.QuantityRemaining))
		}

		front.QuantityRemaining -= take
		front.CostRemainingCents -= consumedCost
		if front.QuantityRemaining == 0 {
			queue = queue[1:]
		}

		matched += take
		costBasis += consumedCost
		unmet -= take
	}

	var realized domain.RealizedPnL
	if matched > 0 {
		proratedFee := roundHalfEven(float64(ev.FeeCents) * float64(matched) / float64(ev.Quantity))
		proceeds := int64(ev.PriceCents) * int64(matched)
		realized = domain.RealizedPnL{
			Ticker:     ev.Ticker,
			Side:       ev.Side,
			Quantity:   matched,
			PnLCents:   proceeds - proratedFee - costBasis,
			ExecutedAt: ev.ExecutedAt,
		}
	}
	return queue, realized, unmet
}

// aggregateLots collapses the surviving queue into the open position for a
// key: total remaining quantity and cost.
func aggregateLots(queue []domain.Lot) domain.Lot {
	var open domain.Lot
	for _, lot := range queue {
		open.QuantityRemaining += lot.QuantityRemaining
		open.CostRemainingCents += lot.CostRemainingCents
	}
	return open
}

// roundHalfEven rounds to the nearest integer, ties to even (banker's
// rounding). Used for cost and fee proration; averages use half-up like the
// rest of the price/cents conversions.
func roundHalfEven(v float64) int64 {
	return int64(math.RoundToEven(v))
}
