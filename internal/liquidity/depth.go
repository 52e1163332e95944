// Package liquidity implements the orderbook liquidity engine: depth scoring,
// slippage estimation over the walked ladder, maximum safe order sizing, and
// the composite liquidity grade. Every function is pure: it reads only its
// arguments and allocates fresh result values, so concurrent use needs no
// locking.
package liquidity

import (
	"fmt"
	"math"

	"github.com/avayoung/riskdesk/internal/domain"
)

// Depth measures resting liquidity within radiusCents of the midpoint.
// Levels closer to the midpoint weigh more: weight is 1.0 when radiusCents
// is 0, otherwise 1.0 - distance/(radius+1), which linearly decays and stays
// positive for every level inside the radius. NO bids are converted to their
// implied YES-ask price (100 - price) before distance is computed, so both
// sides are compared on the same axis.
//
// Returns domain.ErrInvalidArgument when radiusCents is negative, and an
// all-zero analysis when the midpoint is undefined.
func Depth(book domain.OrderbookSnapshot, radiusCents int) (domain.DepthAnalysis, error) {
	if radiusCents < 0 {
		return domain.DepthAnalysis{}, fmt.Errorf("liquidity: depth radius %d: %w", radiusCents, domain.ErrInvalidArgument)
	}

	mid, ok := book.Midpoint()
	if !ok {
		return domain.DepthAnalysis{}, nil
	}

	var analysis domain.DepthAnalysis
	for _, lvl := range book.YesBids {
		w, in := levelWeight(float64(lvl.PriceCents), mid, radiusCents)
		if !in {
			continue
		}
		analysis.WeightedScore += float64(lvl.Quantity) * w
		analysis.YesSideDepth += lvl.Quantity
	}
	for _, lvl := range book.NoBids {
		implied := float64(domain.ContractPayoutCents - lvl.PriceCents)
		w, in := levelWeight(implied, mid, radiusCents)
		if !in {
			continue
		}
		analysis.WeightedScore += float64(lvl.Quantity) * w
		analysis.NoSideDepth += lvl.Quantity
	}

	analysis.TotalContracts = analysis.YesSideDepth + analysis.NoSideDepth

	total := analysis.TotalContracts
	if total < 1 {
		total = 1
	}
	analysis.ImbalanceRatio = float64(analysis.YesSideDepth-analysis.NoSideDepth) / float64(total)

	return analysis, nil
}

// levelWeight returns the linear-decay weight for a level at price given the
// midpoint, and whether the level falls inside the radius at all.
func levelWeight(price, mid float64, radiusCents int) (float64, bool) {
	distance := math.Abs(price - mid)
	if distance > float64(radiusCents) {
		return 0, false
	}
	if radiusCents == 0 {
		return 1.0, true
	}
	return 1.0 - distance/float64(radiusCents+1), true
}
