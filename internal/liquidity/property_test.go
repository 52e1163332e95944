package liquidity

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/avayoung/riskdesk/internal/domain"
)

// slippageTolerance absorbs float64 rounding in avg-fill arithmetic when
// comparing two walks.
const slippageTolerance = 1e-9

func genLevels(t *rapid.T, label string) []domain.PriceLevel {
	n := rapid.IntRange(0, 8).Draw(t, label+"_n")
	levels := make([]domain.PriceLevel, 0, n)
	for i := 0; i < n; i++ {
		levels = append(levels, domain.PriceLevel{
			PriceCents: rapid.IntRange(1, 99).Draw(t, label+"_price"),
			Quantity:   rapid.IntRange(1, 500).Draw(t, label+"_qty"),
		})
	}
	return levels
}

func genBook(t *rapid.T) domain.OrderbookSnapshot {
	return domain.OrderbookSnapshot{
		Ticker:  "PROP",
		YesBids: genLevels(t, "yes"),
		NoBids:  genLevels(t, "no"),
	}
}

// Slippage is non-decreasing in order size: a larger walk only ever reaches
// equal or worse price levels. Binary search in MaxSafeSize relies on this.
func TestProperty_SlippageMonotoneInQuantity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := genBook(t)
		side := rapid.SampledFrom([]domain.Side{domain.SideYes, domain.SideNo}).Draw(t, "side")
		action := rapid.SampledFrom([]domain.Action{domain.ActionBuy, domain.ActionSell}).Draw(t, "action")
		q1 := rapid.IntRange(1, 999).Draw(t, "q1")
		q2 := rapid.IntRange(q1+1, 2000).Draw(t, "q2")

		e1, err := Walk(b, side, action, q1)
		if err != nil {
			t.Fatalf("walk q1: %v", err)
		}
		e2, err := Walk(b, side, action, q2)
		if err != nil {
			t.Fatalf("walk q2: %v", err)
		}

		if e1.SlippageCents > e2.SlippageCents+slippageTolerance {
			t.Fatalf("slippage(%d) = %v > slippage(%d) = %v", q1, e1.SlippageCents, q2, e2.SlippageCents)
		}
	})
}

// The safe size is safe, and one contract more is not.
func TestProperty_MaxSafeSizeTight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := genBook(t)
		side := rapid.SampledFrom([]domain.Side{domain.SideYes, domain.SideNo}).Draw(t, "side")
		threshold := rapid.Float64Range(0, 5).Draw(t, "threshold")

		size := MaxSafeSize(b, side, threshold)
		if size == 0 {
			return
		}

		at, err := Walk(b, side, domain.ActionBuy, size)
		if err != nil {
			t.Fatalf("walk at size: %v", err)
		}
		if at.RemainingUnfilled != 0 {
			t.Fatalf("size %d not fully fillable: %+v", size, at)
		}
		if at.SlippageCents > threshold {
			t.Fatalf("size %d slippage %v over threshold %v", size, at.SlippageCents, threshold)
		}

		over, err := Walk(b, side, domain.ActionBuy, size+1)
		if err != nil {
			t.Fatalf("walk over size: %v", err)
		}
		if over.RemainingUnfilled == 0 && over.SlippageCents <= threshold {
			t.Fatalf("size %d should violate fillability or threshold %v: %+v", size+1, threshold, over)
		}
	})
}

// A walk never fills more than requested, never reports negative slippage,
// and fills exactly min(requested, ladder total).
func TestProperty_WalkConservesQuantity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := genBook(t)
		side := rapid.SampledFrom([]domain.Side{domain.SideYes, domain.SideNo}).Draw(t, "side")
		action := rapid.SampledFrom([]domain.Action{domain.ActionBuy, domain.ActionSell}).Draw(t, "action")
		qty := rapid.IntRange(1, 3000).Draw(t, "qty")

		est, err := Walk(b, side, action, qty)
		if err != nil {
			t.Fatalf("walk: %v", err)
		}

		if est.FillableQuantity+est.RemainingUnfilled != qty {
			t.Fatalf("fillable %d + remaining %d != requested %d", est.FillableQuantity, est.RemainingUnfilled, qty)
		}
		if est.SlippageCents < 0 {
			t.Fatalf("negative slippage %v", est.SlippageCents)
		}

		levels := executableLadder(b, side, action)
		var total int
		for _, l := range levels {
			total += l.Quantity
		}
		wantFill := qty
		if total < qty {
			wantFill = total
		}
		if est.FillableQuantity != wantFill {
			t.Fatalf("fillable = %d, want %d (ladder total %d)", est.FillableQuantity, wantFill, total)
		}
	})
}
