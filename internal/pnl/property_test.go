package pnl

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/avayoung/riskdesk/internal/domain"
)

func genFills(t *rapid.T) []domain.Fill {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	fills := make([]domain.Fill, 0, n)
	for i := 0; i < n; i++ {
		fills = append(fills, domain.Fill{
			ID:         "p",
			Ticker:     rapid.SampledFrom([]string{"KXA", "KXB"}).Draw(t, "ticker"),
			Side:       rapid.SampledFrom([]domain.Side{domain.SideYes, domain.SideNo}).Draw(t, "side"),
			Action:     rapid.SampledFrom([]domain.Action{domain.ActionBuy, domain.ActionSell}).Draw(t, "action"),
			Quantity:   rapid.IntRange(1, 100).Draw(t, "qty"),
			PriceCents: rapid.IntRange(0, 100).Draw(t, "price"),
			FeeCents:   int64(rapid.IntRange(0, 20).Draw(t, "fee")),
			ExecutedAt: base.Add(time.Duration(rapid.IntRange(0, 10_000).Draw(t, "ts")) * time.Second),
		})
	}
	return fills
}

// Open quantity equals buys minus matched sells, and matched plus orphaned
// sell quantity equals total sell quantity. Nothing is created or lost by
// the lot queue.
func TestProperty_LotConservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fills := genFills(t)

		result, err := MatchFIFO(fills)
		if err != nil {
			t.Fatalf("match: %v", err)
		}

		var bought, sold int
		for _, f := range fills {
			if f.Action == domain.ActionBuy {
				bought += f.Quantity
			} else {
				sold += f.Quantity
			}
		}

		var matched int
		for _, p := range result.ClosedPnLs {
			if p.Quantity <= 0 {
				t.Fatalf("closed entry with non-positive quantity: %+v", p)
			}
			matched += p.Quantity
		}

		var open int
		for key, lot := range result.OpenLots {
			if lot.QuantityRemaining <= 0 {
				t.Fatalf("open lot for %v with non-positive quantity: %+v", key, lot)
			}
			if lot.CostRemainingCents < 0 {
				t.Fatalf("open lot for %v with negative cost: %+v", key, lot)
			}
			open += lot.QuantityRemaining
		}

		if matched+result.OrphanSellQuantitySkipped != sold {
			t.Fatalf("matched %d + orphan %d != sold %d", matched, result.OrphanSellQuantitySkipped, sold)
		}
		if open != bought-matched {
			t.Fatalf("open %d != bought %d - matched %d", open, bought, matched)
		}
	})
}

// Matching is a pure function of the (time-sorted) history: shuffling the
// input slice changes nothing.
func TestProperty_InputOrderIrrelevant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fills := genFills(t)
		if len(fills) < 2 {
			return
		}
		// Distinct timestamps so the defensive re-sort has a unique order.
		base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		for i := range fills {
			fills[i].ExecutedAt = base.Add(time.Duration(i) * time.Second)
		}

		sorted, err := MatchFIFO(fills)
		if err != nil {
			t.Fatalf("match sorted: %v", err)
		}

		shuffled := make([]domain.Fill, len(fills))
		copy(shuffled, fills)
		perm := rapid.Permutation(shuffled).Draw(t, "perm")

		reshuffled, err := MatchFIFO(perm)
		if err != nil {
			t.Fatalf("match shuffled: %v", err)
		}

		if sorted.RealizedTotalCents() != reshuffled.RealizedTotalCents() {
			t.Fatalf("realized %d != %d after shuffle", sorted.RealizedTotalCents(), reshuffled.RealizedTotalCents())
		}
		if sorted.OrphanSellQuantitySkipped != reshuffled.OrphanSellQuantitySkipped {
			t.Fatalf("orphan %d != %d after shuffle", sorted.OrphanSellQuantitySkipped, reshuffled.OrphanSellQuantitySkipped)
		}
		for key, lot := range sorted.OpenLots {
			if reshuffled.OpenLots[key] != lot {
				t.Fatalf("open lot %v: %+v != %+v", key, lot, reshuffled.OpenLots[key])
			}
		}
	})
}
