package liquidity

import "github.com/avayoung/riskdesk/internal/domain"

// MaxSafeSize returns the largest BUY quantity on the given side that is
// both fully fillable and incurs at most maxSlippageCents of slippage.
// Returns 0 when no executable levels exist.
//
// The search is a binary search over [1, total executable quantity]. It is
// valid because slippage is monotone in order size: a larger walk only ever
// reaches equal or worse price levels, so SlippageCents never decreases as
// quantity grows. Cost is O(log N) walks of the ladder.
func MaxSafeSize(book domain.OrderbookSnapshot, side domain.Side, maxSlippageCents float64) int {
	levels := executableLadder(book, side, domain.ActionBuy)
	var total int
	for _, l := range levels {
		total += l.Quantity
	}
	if total == 0 {
		return 0
	}

	best := 0
	lo, hi := 1, total
	for lo <= hi {
		mid := lo + (hi-lo)/2
		est, err := Walk(book, side, domain.ActionBuy, mid)
		if err != nil {
			return 0
		}
		if est.RemainingUnfilled > 0 || est.SlippageCents > maxSlippageCents {
			hi = mid - 1
			continue
		}
		best = mid
		lo = mid + 1
	}
	return best
}
