package liquidity

import (
	"fmt"
	"sort"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Walk estimates execution quality for a hypothetical order of the given
// quantity by consuming the executable ladder for (side, action) in
// best-first order.
//
// Because the exchange quotes only bids, the levels an order crosses are
// always the opposing bid ladder, read in the acting side's price axis:
//
//   - BUY YES and SELL NO both cross the levels derived from NO bids. A YES
//     buyer sees them as implied YES asks (100 - bid) from cheapest up; a NO
//     seller sees the same levels as NO bids from highest down.
//   - SELL YES and BUY NO are the mirror, crossing the YES bid ladder.
//
// Slippage is the average fill price's distance from the best quoted price,
// floored at zero: averaging can never beat the best level, the floor only
// guards rounding underflow. An empty ladder yields an all-zero estimate
// with the full quantity unfilled.
//
// Returns domain.ErrInvalidArgument when quantity is not positive.
func Walk(book domain.OrderbookSnapshot, side domain.Side, action domain.Action, quantity int) (domain.SlippageEstimate, error) {
	if quantity <= 0 {
		return domain.SlippageEstimate{}, fmt.Errorf("liquidity: walk quantity %d: %w", quantity, domain.ErrInvalidArgument)
	}

	levels := executableLadder(book, side, action)
	if len(levels) == 0 {
		return domain.SlippageEstimate{RemainingUnfilled: quantity}, nil
	}

	est := domain.SlippageEstimate{
		BestPriceCents: levels[0].PriceCents,
	}

	var costCents int64
	remaining := quantity
	for _, lvl := range levels {
		if remaining == 0 {
			break
		}
		take := lvl.Quantity
		if take > remaining {
			take = remaining
		}
		costCents += int64(take) * int64(lvl.PriceCents)
		est.FillableQuantity += take
		est.WorstPriceCents = lvl.PriceCents
		est.LevelsCrossed++
		remaining -= take
	}
	est.RemainingUnfilled = remaining

	if est.FillableQuantity > 0 {
		est.AvgFillPrice = float64(costCents) / float64(est.FillableQuantity)
	}

	var slip float64
	if action == domain.ActionBuy {
		slip = est.AvgFillPrice - float64(est.BestPriceCents)
	} else {
		slip = float64(est.BestPriceCents) - est.AvgFillPrice
	}
	if est.FillableQuantity == 0 || slip < 0 {
		slip = 0
	}
	est.SlippageCents = slip
	if est.BestPriceCents > 0 {
		est.SlippagePct = slip / float64(est.BestPriceCents) * 100
	}

	return est, nil
}

// CheckExecution is a pure validation gate run immediately before placing a
// live order. It walks the book and fails with ErrInsufficientLiquidity when
// the order cannot be fully filled, or ErrSlippageExceeded when the walk's
// slippage percentage exceeds maxSlippagePct. On success the estimate is
// returned unchanged; nothing is placed and no state is touched.
func CheckExecution(book domain.OrderbookSnapshot, side domain.Side, action domain.Action, quantity int, maxSlippagePct float64) (domain.SlippageEstimate, error) {
	est, err := Walk(book, side, action, quantity)
	if err != nil {
		return domain.SlippageEstimate{}, err
	}
	if est.RemainingUnfilled > 0 {
		return est, fmt.Errorf("liquidity: %d of %d contracts unfillable: %w",
			est.RemainingUnfilled, quantity, domain.ErrInsufficientLiquidity)
	}
	if est.SlippagePct > maxSlippagePct {
		return est, fmt.Errorf("liquidity: slippage %.2f%% over limit %.2f%%: %w",
			est.SlippagePct, maxSlippagePct, domain.ErrSlippageExceeded)
	}
	return est, nil
}

// executableLadder builds the price levels a (side, action) order would
// consume, sorted best-first in the acting side's price axis. Buys walk
// implied asks ascending; sells walk bids descending. Equal-priced levels
// are merged so the walk sees each price once.
func executableLadder(book domain.OrderbookSnapshot, side domain.Side, action domain.Action) []domain.PriceLevel {
	var levels []domain.PriceLevel

	switch {
	case side == domain.SideYes && action == domain.ActionBuy:
		levels = invertLadder(book.NoBids)
	case side == domain.SideNo && action == domain.ActionSell:
		levels = copyLadder(book.NoBids)
	case side == domain.SideYes && action == domain.ActionSell:
		levels = copyLadder(book.YesBids)
	case side == domain.SideNo && action == domain.ActionBuy:
		levels = invertLadder(book.YesBids)
	default:
		return nil
	}

	levels = mergeByPrice(levels)
	if action == domain.ActionBuy {
		sort.Slice(levels, func(i, j int) bool { return levels[i].PriceCents < levels[j].PriceCents })
	} else {
		sort.Slice(levels, func(i, j int) bool { return levels[i].PriceCents > levels[j].PriceCents })
	}
	return levels
}

func copyLadder(levels []domain.PriceLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(levels))
	copy(out, levels)
	return out
}

func invertLadder(levels []domain.PriceLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, l := range levels {
		out = append(out, domain.PriceLevel{
			PriceCents: domain.ContractPayoutCents - l.PriceCents,
			Quantity:   l.Quantity,
		})
	}
	return out
}

func mergeByPrice(levels []domain.PriceLevel) []domain.PriceLevel {
	if len(levels) < 2 {
		return levels
	}
	byPrice := make(map[int]int, len(levels))
	for _, l := range levels {
		byPrice[l.PriceCents] += l.Quantity
	}
	if len(byPrice) == len(levels) {
		return levels
	}
	out := make([]domain.PriceLevel, 0, len(byPrice))
	for price, qty := range byPrice {
		out = append(out, domain.PriceLevel{PriceCents: price, Quantity: qty})
	}
	return out
}
